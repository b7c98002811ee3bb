// AngelaMos | 2026
// handler.go

package account

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/accounts", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
	})
}

// RegisterAdminRoutes mounts account management. Listing is open to any
// administrator; role and status changes need a superadmin.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly, superAdminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/accounts", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAccounts)
		r.Get("/{accountID}", h.GetAccount)

		r.Group(func(r chi.Router) {
			r.Use(superAdminOnly)
			r.Put("/{accountID}/role", h.UpdateRole)
			r.Put("/{accountID}/status", h.UpdateStatus)
		})
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetMe(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	account, err := h.service.UpdateMe(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Status:   r.URL.Query().Get("status"),
	}
	params.Normalize()

	accounts, total, err := h.service.ListAccounts(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		params,
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Paginated(
		w,
		ToAccountResponseList(accounts),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	account, err := h.service.UpdateRole(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		chi.URLParam(r, "accountID"),
		req.Role,
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	account, err := h.service.UpdateStatus(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		chi.URLParam(r, "accountID"),
		req.Status,
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
