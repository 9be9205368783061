package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "linkreg"

// Metrics groups the registry counters. A nil *Metrics records nothing.
type Metrics struct {
	usersRegistered prometheus.Counter
	linksCreated    prometheus.Counter
	linksDeleted    prometheus.Counter
	linksEvicted    prometheus.Counter
	redemptions     *prometheus.CounterVec
	codeCollisions  prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		usersRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Users registered.",
		}),
		linksCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Links created.",
		}),
		linksDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_deleted_total",
			Help:      "Links deleted by their owner.",
		}),
		linksEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_evicted_total",
			Help:      "Expired or exhausted links removed by explicit cleanup sweeps.",
		}),
		redemptions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redemptions_total",
			Help:      "Short code redemption attempts by result.",
		}, []string{"result"}),
		codeCollisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Generated codes rejected because they were already in use.",
		}),
	}
}

func (m *Metrics) UserRegistered() {
	if m != nil {
		m.usersRegistered.Inc()
	}
}

func (m *Metrics) LinkCreated() {
	if m != nil {
		m.linksCreated.Inc()
	}
}

func (m *Metrics) LinkDeleted() {
	if m != nil {
		m.linksDeleted.Inc()
	}
}

func (m *Metrics) LinksEvicted(n int) {
	if m != nil && n > 0 {
		m.linksEvicted.Add(float64(n))
	}
}

// Redeemed counts a redemption attempt; ok is false for unknown or unusable codes.
func (m *Metrics) Redeemed(ok bool) {
	if m == nil {
		return
	}
	result := "miss"
	if ok {
		result = "ok"
	}
	m.redemptions.WithLabelValues(result).Inc()
}

func (m *Metrics) CodeCollision() {
	if m != nil {
		m.codeCollisions.Inc()
	}
}
