package metrics

import (
	"testing"
	"time"

	"twin-core/internal/cache"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCache(t *testing.T) {
	c := cache.New[string]()
	c.Set("a", "1", time.Hour)
	c.Set("b", "2", time.Hour)
	c.Get("a")
	c.Get("missing")

	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterCache(reg, c))

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetGauge() != nil:
			got[mf.GetName()] = m.GetGauge().GetValue()
		case m.GetCounter() != nil:
			got[mf.GetName()] = m.GetCounter().GetValue()
		}
	}

	assert.Equal(t, map[string]float64{
		"twin_cache_entries":       2,
		"twin_cache_hits_total":    1,
		"twin_cache_misses_total":  1,
		"twin_cache_expired_total": 0,
	}, got)

	// A second cache on the same registry would shadow the first.
	assert.Error(t, RegisterCache(reg, cache.New[string]()))
}
