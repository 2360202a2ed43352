package httpapi

import (
	"net/http"
	"time"

	"twilio-integration/internal/audit"
	"twilio-integration/internal/telephony"
	"twilio-integration/pkg/logger"
	"twilio-integration/pkg/metrics"
	"twilio-integration/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	headerTwilioSignature   = "X-Twilio-Signature"
	headerTwilioIdempotency = "I-Twilio-Idempotency-Token"
)

// ClientIP stores the caller address in the request context for audit records.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(audit.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// TwilioSignature rejects webhooks whose X-Twilio-Signature does not match
// publicBaseURL + request URI signed with the persisted auth token.
// Without an auth token nothing can be verified, so everything is rejected.
func TwilioSignature(source telephony.SettingsSource, publicBaseURL string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		st, err := source.Load(c.Request.Context())
		if err != nil {
			log.Error("load twilio settings failed", "err", err)
			m.Webhook(webhookName(c.FullPath()), metrics.OutcomeFailed)
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			m.Webhook(webhookName(c.FullPath()), metrics.OutcomeRejected)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		sig := c.GetHeader(headerTwilioSignature)
		fullURL := publicBaseURL + c.Request.URL.RequestURI()
		if st.AuthToken == "" || sig == "" || !telephony.ValidSignature(st.AuthToken, fullURL, telephony.FormParams(c.Request), sig) {
			log.Warn("twilio signature rejected", "path", c.FullPath(), "has_signature", sig != "")
			m.Webhook(webhookName(c.FullPath()), metrics.OutcomeRejected)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// DedupeWebhook drops Twilio retries of a callback that was already processed,
// keyed by the I-Twilio-Idempotency-Token header. Redis faults fail open.
// A claim is released when the handler answers 5xx so the retry runs.
func DedupeWebhook(rdb *redis.Client, ttl time.Duration, name string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(headerTwilioIdempotency)
		if token == "" || rdb == nil {
			c.Next()
			return
		}
		log := logger.FromGin(c)

		first, err := utils.ClaimWebhookDelivery(c.Request.Context(), rdb, token, ttl)
		if err != nil {
			log.Warn("webhook dedupe unavailable", "webhook", name, "err", err)
			c.Next()
			return
		}
		if !first {
			log.Info("duplicate twilio webhook dropped", "webhook", name)
			m.Webhook(name, metrics.OutcomeDuplicate)
			c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(telephony.EmptyResponse()))
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := utils.ReleaseWebhookDelivery(c.Request.Context(), rdb, token); err != nil {
				log.Warn("webhook dedupe release failed", "webhook", name, "err", err)
			}
		}
	}
}
