package httpapi

import (
	"net/http"

	"twilio-integration/internal/audit"
	"twilio-integration/internal/events"
	"twilio-integration/internal/reporting"
	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voicesettings"
	"twilio-integration/internal/voip"
	"twilio-integration/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, render JSON or TwiML.
type Handlers struct {
	VoIP    *voip.Service
	Reports *reporting.Service

	// Admin configuration.
	VoiceSettings  *voicesettings.Service
	TwilioSettings telephony.SettingsSource
	Events         *events.Service
	Audit          *audit.Service

	Metrics *metrics.Metrics
}

// fail renders the UI error shape and aborts the chain.
func fail(c *gin.Context, status int, code, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": code, "detail": detail})
}

func twiml(c *gin.Context, body string) {
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(body))
}
