// ABOUTME: Tests for the metrics registry and scrape endpoint
// ABOUTME: Verifies counters appear in the scrape output

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ScrapeIncludesCounters(t *testing.T) {
	m := New()
	m.Logins.WithLabelValues("success").Inc()
	m.GateDenials.WithLabelValues("anonymous").Add(2)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `console_logins_total{result="success"} 1`)
	assert.Contains(t, string(body), `console_gate_denials_total{reason="anonymous"} 2`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// Two instances must not clash on registration.
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
