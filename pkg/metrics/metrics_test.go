package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWebhookCounter(t *testing.T) {
	m := New()
	m.Webhook("voice", OutcomeHandled)
	m.Webhook("voice", OutcomeHandled)
	m.Webhook("recording", OutcomeFailed)

	if got := testutil.ToFloat64(m.WebhooksTotal.WithLabelValues("voice", OutcomeHandled)); got != 2 {
		t.Fatalf("expected 2 handled voice webhooks, got %v", got)
	}
	if got := testutil.ToFloat64(m.WebhooksTotal.WithLabelValues("recording", OutcomeFailed)); got != 1 {
		t.Fatalf("expected 1 failed recording webhook, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Webhook("voice", OutcomeHandled)
	m.Unavailable("voice")
	m.CallLogCreated("Incoming")
	m.EventCreated()
}

func TestHandlerExposesCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	m.Unavailable("phone_numbers")

	r := gin.New()
	r.GET("/metrics", m.Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "twilio_provider_unavailable_total") {
		t.Fatalf("expected counter in exposition")
	}
}
