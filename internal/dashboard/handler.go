// AngelaMos | 2026
// handler.go

package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/wifi-portal/internal/access"
	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
	"github.com/carterperez-dev/templates/wifi-portal/internal/receipt"
)

const (
	EventDashboard  = "dashboard"
	EventCountdown  = "countdown"
	EventReveal     = "reveal"
	EventRevealHide = "reveal.hidden"
	EventChange     = "change"

	streamKeepAlive = 25 * time.Second
)

type Handler struct {
	service    *Service
	subscriber notify.Subscriber
	streamTick time.Duration
	logger     *slog.Logger

	userStreams  atomic.Int64
	adminStreams atomic.Int64
}

// OpenStreams reports how many user and admin streams are connected.
func (h *Handler) OpenStreams() (user, admin int64) {
	return h.userStreams.Load(), h.adminStreams.Load()
}

func NewHandler(
	service *Service,
	subscriber notify.Subscriber,
	streamTick time.Duration,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:    service,
		subscriber: subscriber,
		streamTick: streamTick,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/dashboard/user", h.User)
		r.Get("/dashboard/user/stream", h.UserStream)
		r.Get("/dashboard/admin", h.Admin)
		r.Get("/dashboard/admin/stream", h.AdminStream)

		r.Post("/subscriptions/{subscriptionID}/reveal", h.Reveal)
		r.Get("/subscriptions/{subscriptionID}/receipt", h.Receipt)
	})
}

func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.UserView(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.AdminView(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) Reveal(w http.ResponseWriter, r *http.Request) {
	reveal, err := h.service.Reveal(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		chi.URLParam(r, "subscriptionID"),
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, reveal)
}

func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Receipt(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		chi.URLParam(r, "subscriptionID"),
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", receipt.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Document)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort response write
	_, _ = w.Write(doc.Document)
}

// UserStream pushes the caller's dashboard on every change to their records
// or to pricing, the countdown on every tick, and hides reveals once their
// display time passes. It ends when the session is terminated.
func (h *Handler) UserStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	feed, err := h.subscriber.Subscribe(ctx,
		notify.OwnerTopic(actor.ID),
		notify.PricingTopic(),
		notify.SessionTopic(actor.ID),
	)
	if err != nil {
		core.Error(w, core.Classify(err))
		return
	}
	defer feed.Close() //nolint:errcheck // stream teardown

	h.userStreams.Add(1)
	defer h.userStreams.Add(-1)

	stream, err := core.NewSSEWriter(w)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	tick := time.NewTicker(h.streamTick)
	defer tick.Stop()
	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	var hideTimer *time.Timer
	var hideC <-chan time.Time
	var shown *access.Reveal
	defer func() {
		if hideTimer != nil {
			hideTimer.Stop()
		}
	}()

	push := func() bool {
		view, err := h.service.UserView(ctx, actor)
		if err != nil {
			h.logger.Warn("user dashboard stream", "error", err)
			return true
		}
		if err := stream.Send(EventDashboard, view); err != nil {
			return false
		}
		if view.Reveal == nil {
			return true
		}
		if err := stream.Send(EventReveal, view.Reveal); err != nil {
			return false
		}

		shown = view.Reveal
		if hideTimer != nil {
			hideTimer.Stop()
		}
		hideTimer = time.NewTimer(time.Until(shown.HideAt))
		hideC = hideTimer.C
		return true
	}

	if !push() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			if err := stream.Ping(); err != nil {
				return
			}

		case <-tick.C:
			window, err := h.service.Window(ctx, actor)
			if err != nil {
				h.logger.Warn("countdown stream", "error", err)
				continue
			}
			if err := stream.Send(EventCountdown, window); err != nil {
				return
			}

		case <-hideC:
			hideC = nil
			if err := stream.Send(EventRevealHide, map[string]string{
				"subscription_id": shown.SubscriptionID,
			}); err != nil {
				return
			}

		case ev, ok := <-feed.Events():
			if !ok {
				return
			}
			if ev.Type == notify.TypeSessionTerminated {
				_ = stream.Send(notify.TypeSessionTerminated, ev)
				return
			}
			if isSessionEvent(ev.Type) {
				continue
			}
			if !push() {
				return
			}
		}
	}
}

// AdminStream relays every subscription change to administrators followed by
// a refreshed admin dashboard. Non-administrators receive one empty view.
func (h *Handler) AdminStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	if !authz.IsAdmin(actor.Role) {
		stream, err := core.NewSSEWriter(w)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		_ = stream.Send(EventDashboard, emptyAdminDashboard())
		return
	}

	feed, err := h.subscriber.Subscribe(ctx,
		notify.AdminTopic(),
		notify.PricingTopic(),
		notify.SessionTopic(actor.ID),
	)
	if err != nil {
		core.Error(w, core.Classify(err))
		return
	}
	defer feed.Close() //nolint:errcheck // stream teardown

	h.adminStreams.Add(1)
	defer h.adminStreams.Add(-1)

	stream, err := core.NewSSEWriter(w)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	push := func() bool {
		view, err := h.service.AdminView(ctx, actor)
		if err != nil {
			h.logger.Warn("admin dashboard stream", "error", err)
			return true
		}
		return stream.Send(EventDashboard, view) == nil
	}

	if !push() {
		return
	}

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			if err := stream.Ping(); err != nil {
				return
			}

		case ev, ok := <-feed.Events():
			if !ok {
				return
			}
			if ev.Type == notify.TypeSessionTerminated {
				_ = stream.Send(notify.TypeSessionTerminated, ev)
				return
			}
			if isSessionEvent(ev.Type) {
				continue
			}
			if err := stream.Send(EventChange, ev); err != nil {
				return
			}
			if !push() {
				return
			}
		}
	}
}

func isSessionEvent(eventType string) bool {
	switch eventType {
	case notify.TypeSessionStarted, notify.TypeSessionEnded, notify.TypeSessionTerminated:
		return true
	}
	return false
}
