// AngelaMos | 2026
// handler.go

package pricing

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
)

// PublicView is the pricing row without network credentials.
type PublicView struct {
	Price24   int64     `json:"price_24"`
	Price5    int64     `json:"price_5"`
	SSID24    string    `json:"ssid_24"`
	SSID5     string    `json:"ssid_5"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdminView struct {
	PublicView
	Password24 string  `json:"password_24"`
	Password5  string  `json:"password_5"`
	UpdatedBy  *string `json:"updated_by,omitempty"`
}

func PublicViewOf(p *Pricing) PublicView {
	return PublicView{
		Price24:   p.Price24,
		Price5:    p.Price5,
		SSID24:    p.SSID24,
		SSID5:     p.SSID5,
		UpdatedAt: p.UpdatedAt,
	}
}

func AdminViewOf(p *Pricing) AdminView {
	return AdminView{
		PublicView: PublicViewOf(p),
		Password24: p.Password24,
		Password5:  p.Password5,
		UpdatedBy:  p.UpdatedBy,
	}
}

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
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.With(authenticator).Get("/pricing", h.GetPublic)

	r.Route("/admin/pricing", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.GetAdmin)
		r.Patch("/", h.Update)
	})
}

func (h *Handler) GetPublic(w http.ResponseWriter, _ *http.Request) {
	p := h.service.Current()
	core.OK(w, PublicViewOf(&p))
}

func (h *Handler) GetAdmin(w http.ResponseWriter, _ *http.Request) {
	p := h.service.Current()
	core.OK(w, AdminViewOf(&p))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req Update
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.SetPricing(r.Context(), middleware.ActorFrom(r.Context()), req)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, AdminViewOf(p))
}
