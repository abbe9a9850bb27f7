package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotaguard/pkg/metrics"
)

func TestNilCollector(t *testing.T) {
	t.Parallel()

	var c *metrics.Collector
	assert.NotPanics(t, func() {
		c.QuotaDecision("fetch_data", "allowed")
		c.QuotaRecordFailure("fetch_data")
		c.GateDecision("require_active", "denied")
		c.AuthDecision("api_key", "rejected")
		c.Delivery("stripe", "payment", "handled", time.Second)
		c.LinkageAttempt("missing")
	})
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollector(t *testing.T) {
	t.Parallel()

	c := metrics.New()
	c.QuotaDecision("fetch_data", "allowed")
	c.QuotaDecision("fetch_data", "allowed")
	c.QuotaDecision("fetch_data", "rejected")
	c.Delivery("stripe", "payment", "handled", 20*time.Millisecond)
	c.LinkageAttempt("missing")
	c.LinkageAttempt("found")

	n, err := testutil.GatherAndCount(c.Registry(), "quotaguard_quota_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per label set")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `quotaguard_quota_decisions_total{decision="allowed",event="fetch_data"} 2`)
	assert.Contains(t, body, `quotaguard_webhook_deliveries_total{kind="payment",provider="stripe",state="handled"} 1`)
	assert.Contains(t, body, `quotaguard_webhook_linkage_attempts_total{result="missing"} 1`)
}
