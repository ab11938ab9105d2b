package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RunFinished("chef", "success", time.Second)
	c.StageFailure("writing")
	c.Fallback(FallbackResearch)
	c.CycleFinished(3)
	if c.Registry() != nil {
		t.Error("nil collector should have no registry")
	}
}

func TestCollectorCounts(t *testing.T) {
	c := New("agent-feed")

	c.RunFinished("chef", "success", 2*time.Second)
	c.RunFinished("chef", "success", time.Second)
	c.RunFinished("nova", "failed", time.Second)
	c.StageFailure("writing")
	c.Fallback(FallbackVideoToImage)
	c.CycleFinished(2)

	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("chef", "success")); got != 2 {
		t.Errorf("chef successes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.stageFailures.WithLabelValues("writing")); got != 1 {
		t.Errorf("writing failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.fallbacksTotal.WithLabelValues(FallbackVideoToImage)); got != 1 {
		t.Errorf("video fallbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.lastCycleOK); got != 2 {
		t.Errorf("last cycle = %v, want 2", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := New("agentfeed")
	c.Fallback(FallbackWriter)

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/metrics", c.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `agentfeed_fallbacks_total{kind="writer"} 1`) {
		t.Errorf("fallback counter missing from scrape output")
	}
}
