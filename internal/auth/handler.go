// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
)

const streamKeepAlive = 25 * time.Second

type Handler struct {
	service    *Service
	subscriber notify.Subscriber
	logger     *slog.Logger
	validator  *validator.Validate
}

func NewHandler(
	service *Service,
	subscriber notify.Subscriber,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:    service,
		subscriber: subscriber,
		logger:     logger,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, resetLimiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)

		r.Route("/reset", func(r chi.Router) {
			r.Use(resetLimiter)
			r.Post("/question", h.ResetQuestion)
			r.Post("/verify", h.ResetVerify)
			r.Post("/complete", h.ResetComplete)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/session/stream", h.SessionStream)
		})
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(
		r.Context(),
		req,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.AuthenticationError("invalid email or password"),
			)
			return
		}
		core.Error(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Register(
		r.Context(),
		req,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			core.JSONError(w, core.DuplicateError("email"))
			return
		}
		core.Error(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Refresh(
		r.Context(),
		req.RefreshToken,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		if errors.Is(err, ErrTokenReuse) {
			core.JSONError(w, core.NewAppError(
				core.ErrTokenRevoked,
				"security alert: token reuse detected, all sessions revoked",
				http.StatusUnauthorized,
				"TOKEN_REUSE_DETECTED",
			))
			return
		}
		core.Error(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken, claims); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "cannot revoke another user's token")
			return
		}
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LogoutAll(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.GetActiveSessions(
		r.Context(),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		core.BadRequest(w, "session ID required")
		return
	}

	err := h.service.RevokeSession(
		r.Context(),
		middleware.GetUserID(r.Context()),
		sessionID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "session")
			return
		}
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "cannot revoke another user's session")
			return
		}
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.AuthenticationError("current password is incorrect"),
			)
			return
		}
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetCurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.Error(w, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) ResetQuestion(w http.ResponseWriter, r *http.Request) {
	var req ResetQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}

	question, err := h.service.ResetQuestion(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.Error(w, err)
		return
	}

	core.OK(w, ResetQuestionResponse{Question: question})
}

func (h *Handler) ResetVerify(w http.ResponseWriter, r *http.Request) {
	var req ResetVerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	ticket, err := h.service.VerifyAnswer(r.Context(), req.Email, req.Answer)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(w, core.AuthenticationError("security answer does not match"))
			return
		}
		core.Error(w, err)
		return
	}

	core.OK(w, ticket)
}

func (h *Handler) ResetComplete(w http.ResponseWriter, r *http.Request) {
	var req ResetCompleteRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.CompleteReset(r.Context(), req.Ticket, req.NewPassword); err != nil {
		if errors.Is(err, core.ErrTokenInvalid) {
			core.JSONError(w, core.NewAppError(
				core.ErrTokenInvalid,
				"reset ticket is invalid or expired",
				http.StatusUnauthorized,
				"RESET_TICKET_INVALID",
			))
			return
		}
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

// SessionStream pushes session lifecycle events for the caller's account
// until the client disconnects or the session is terminated.
func (h *Handler) SessionStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	sub, err := h.subscriber.Subscribe(ctx, notify.SessionTopic(userID))
	if err != nil {
		core.Error(w, core.Classify(err))
		return
	}
	defer sub.Close() //nolint:errcheck // stream teardown

	stream, err := core.NewSSEWriter(w)
	if err != nil {
		core.InternalServerError(w, err)
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
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := stream.Send(ev.Type, ev); err != nil {
				h.logger.Debug("session stream closed", "error", err)
				return
			}
			if ev.Type == notify.TypeSessionTerminated {
				return
			}
		}
	}
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
