package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.LinkCreated()
	m.LinkCreated()
	m.Redeemed(true)
	m.Redeemed(false)
	m.Redeemed(false)
	m.LinksEvicted(3)
	m.LinksEvicted(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.linksCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redemptions.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.redemptions.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.linksEvicted))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UserRegistered()
		m.LinkCreated()
		m.LinkDeleted()
		m.LinksEvicted(2)
		m.Redeemed(true)
		m.CodeCollision()
	})
}
