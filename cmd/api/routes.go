package main

import (
	"net/http"
	"time"

	"twilio-integration/internal/httpapi"
	"twilio-integration/internal/rbac"
	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voip"
	"twilio-integration/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	Handlers httpapi.Handlers
	AuthMW   gin.HandlerFunc
	Metrics  *metrics.Metrics
	Health   func(c *gin.Context) error

	Redis     *redis.Client
	DedupeTTL time.Duration

	// Signature checks are on when Settings is non-nil.
	Settings      telephony.SettingsSource
	PublicBaseURL string
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal/voip.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := d.Handlers

	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := d.Health(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", d.Metrics.Handler())

	// Twilio webhooks (public, optionally signature checked).
	hooks := r.Group("")
	if d.Settings != nil {
		hooks.Use(httpapi.TwilioSignature(d.Settings, d.PublicBaseURL, d.Metrics))
	}
	{
		dedupe := func(name string) gin.HandlerFunc {
			return httpapi.DedupeWebhook(d.Redis, d.DedupeTTL, name, d.Metrics)
		}
		hooks.POST(telephony.PathVoice, h.VoiceWebhook)
		hooks.POST(telephony.PathIncomingCall, h.IncomingCallWebhook)
		hooks.POST(telephony.PathWhatsAppIn, h.WhatsAppIncomingWebhook)

		// Bodiless callbacks: a retry only repeats work, so drop it.
		hooks.POST(telephony.PathCallStatus, dedupe(voip.WebhookCallStatus), h.CallStatusWebhook)
		hooks.POST(telephony.PathRecording, dedupe(voip.WebhookRecording), h.RecordingWebhook)
		hooks.POST(telephony.PathWhatsAppStatus, dedupe(voip.WebhookWhatsAppStatus), h.WhatsAppStatusWebhook)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(d.AuthMW)
	{
		tw := v1.Group("/twilio")
		{
			tw.GET("/phone-numbers", h.PhoneNumbers)
			tw.POST("/access-token", h.AccessToken)
		}

		callLogs := v1.Group("/call-logs")
		{
			callLogs.POST("", h.CreateCallLog)
			callLogs.POST("/:call_sid/sync", h.SyncCallLog)
			callLogs.PUT("/:call_sid/details", h.SetCallDetails)
			callLogs.POST("/:call_sid/events", h.CreateEvent)
		}

		v1.GET("/contacts/lookup", h.LookupContact)

		wa := v1.Group("/whatsapp")
		{
			wa.POST("/messages", h.SendWhatsApp)
			wa.GET("/messages/:id", h.GetWhatsAppMessage)
		}

		reports := v1.Group("/reports")
		reports.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			reports.GET("/calls", h.CallsReport)
		}

		// ADMIN routes
		// system_manager bypasses the role check.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.GET("/voice-settings/:user", h.GetVoiceSettings)
			admin.PUT("/voice-settings/:user", h.PutVoiceSettings)
			admin.GET("/twilio-settings", h.GetTwilioSettings)
			admin.PUT("/twilio-settings", h.PutTwilioSettings)
			admin.GET("/selling-steps/:name", h.GetSellingStep)
			admin.PUT("/selling-steps/:name", h.PutSellingStep)
		}
	}
}
