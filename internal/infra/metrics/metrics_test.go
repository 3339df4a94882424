package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegister_BindsOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	require.NotPanics(t, func() { MustRegister(reg) }, "second call is a no-op")

	IncDispatch("Primary", " start ", "ok")
	IncCacheRequest("credential", "HIT")
	ObserveIdentityCall("sign_in", "ok", 20*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			if c := m.GetCounter(); c != nil {
				byName[f.GetName()] += c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				byName[f.GetName()] += float64(h.GetSampleCount())
			}
		}
	}
	assert.Equal(t, 1.0, byName["bot_dispatch_total"])
	assert.Equal(t, 1.0, byName["bot_state_cache_lookups_total"])
	assert.Equal(t, 1.0, byName["bot_identity_call_duration_seconds"])
}

func TestNorm(t *testing.T) {
	assert.Equal(t, "callback", norm("  Callback "))
}
