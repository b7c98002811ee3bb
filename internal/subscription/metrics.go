// AngelaMos | 2026
// metrics.go

package subscription

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

type Metrics struct {
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wifi_portal_subscription_transitions_total",
			Help: "Subscription lifecycle operations by action and outcome.",
		}, []string{"action", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.transitions)
	}
	return m
}

func (m *Metrics) observe(action string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrAlreadyDecided):
		return "already_decided"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrForbidden):
		return "forbidden"
	case errors.Is(err, core.ErrInvalidInput):
		return "invalid"
	}
	return "error"
}
