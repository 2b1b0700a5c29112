package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("render_pages", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render_pages", ResultSuccess)
	r.IncBuildOutcome("success")
	r.SetPagesRendered(3)
	r.SetLiveReloadClients(1)
	r.IncLiveReloadBroadcast()
}

func TestPrometheusRecorderRegistersAndCounts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("render_pages", 120*time.Millisecond)
	pr.ObserveBuildDuration(time.Second)
	pr.IncStageResult("render_pages", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.SetPagesRendered(12)
	pr.SetLiveReloadClients(2)
	pr.IncLiveReloadBroadcast()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"ardoc_stage_duration_seconds",
		"ardoc_build_duration_seconds",
		"ardoc_stage_results_total",
		"ardoc_build_outcomes_total",
		"ardoc_pages_rendered",
		"ardoc_livereload_clients",
		"ardoc_livereload_broadcasts_total",
	} {
		assert.True(t, names[want], "missing metric family %s", want)
	}
}

func TestPrometheusRecorderNilReceiverSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("x", time.Second)
	pr.IncBuildOutcome("failed")
	pr.SetPagesRendered(1)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).SetPagesRendered(7)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ardoc_pages_rendered 7"))
}
