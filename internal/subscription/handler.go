// AngelaMos | 2026
// handler.go

package subscription

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
	authenticator, submitLimiter func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.With(submitLimiter).Post("/subscriptions", h.Submit)
		r.Get("/subscriptions", h.ListMine)
		r.Get("/subscriptions/{subscriptionID}", h.Get)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly, superAdminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/subscriptions", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAll)
		r.Get("/pending", h.ListPending)
		r.Post("/{subscriptionID}/approve", h.Approve)
		r.Post("/{subscriptionID}/reject", h.Reject)

		r.With(superAdminOnly).Delete("/{subscriptionID}", h.Delete)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, err := h.service.Submit(r.Context(), middleware.ActorFrom(r.Context()), req)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, ToResponse(sub))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Get(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		chi.URLParam(r, "subscriptionID"),
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToResponse(sub))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	subs, total, err := h.service.ListMine(r.Context(), middleware.ActorFrom(r.Context()), params)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Paginated(w, ToResponseList(subs), params.Page, params.PageSize, total)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	params.Status = r.URL.Query().Get("status")

	subs, total, err := h.service.ListAll(r.Context(), middleware.ActorFrom(r.Context()), params)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Paginated(w, ToResponseList(subs), params.Page, params.PageSize, total)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	subs, total, err := h.service.ListPending(r.Context(), middleware.ActorFrom(r.Context()), params)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Paginated(w, ToResponseList(subs), params.Page, params.PageSize, total)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Approve(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		chi.URLParam(r, "subscriptionID"),
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToResponse(sub))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Reject(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		chi.URLParam(r, "subscriptionID"),
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToResponse(sub))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		chi.URLParam(r, "subscriptionID"),
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func listParams(r *http.Request) ListParams {
	params := ListParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
	}
	params.Normalize()
	return params
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	parsed, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return defaultVal
	}
	return parsed
}
