package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"twilio-integration/internal/auth"
	"twilio-integration/internal/events"
	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voicesettings"
	"twilio-integration/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Admin endpoints edit persisted configuration. RBAC: admin (system_manager bypasses).
// Every write is audited; audit failures are logged, not surfaced.

const redactedSecret = "********"

func (h Handlers) auditChange(c *gin.Context, target string, after any) {
	actor, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	if err := h.Audit.LogSettingsChange(c.Request.Context(), actor, role, target, after); err != nil {
		logger.FromGin(c).Warn("audit settings change failed", "target", target, "err", err)
	}
}

// --- Voice Call Settings ---

func (h Handlers) GetVoiceSettings(c *gin.Context) {
	st, err := h.VoiceSettings.Get(c.Request.Context(), c.Param("user"))
	if errors.Is(err, voicesettings.ErrNotFound) {
		fail(c, http.StatusNotFound, "not_found", "Voice call settings not found")
		return
	}
	if err != nil {
		logger.FromGin(c).Error("load voice settings failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not load voice call settings")
		return
	}
	c.JSON(http.StatusOK, st)
}

type voiceSettingsRequest struct {
	TwilioNumber        string `json:"twilio_number"`
	CallReceivingDevice string `json:"call_receiving_device"`
	MobileNo            string `json:"mobile_no"`
}

func (h Handlers) PutVoiceSettings(c *gin.Context) {
	var req voiceSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	st := voicesettings.Settings{
		User:                c.Param("user"),
		TwilioNumber:        req.TwilioNumber,
		CallReceivingDevice: voicesettings.Device(req.CallReceivingDevice),
		MobileNo:            req.MobileNo,
	}
	err := h.VoiceSettings.Save(c.Request.Context(), st)
	if errors.Is(err, voicesettings.ErrInvalidArgument) {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err != nil {
		logger.FromGin(c).Error("save voice settings failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not save voice call settings")
		return
	}
	saved, err := h.VoiceSettings.Get(c.Request.Context(), st.User)
	if err != nil {
		saved = st
	}
	h.auditChange(c, "voice_call_settings:"+saved.User, saved)
	c.JSON(http.StatusOK, saved)
}

// --- Twilio Settings ---

func (h Handlers) GetTwilioSettings(c *gin.Context) {
	st, err := h.TwilioSettings.Load(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("load twilio settings failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not load Twilio settings")
		return
	}
	c.JSON(http.StatusOK, st.Redacted())
}

// PutTwilioSettings replaces the settings. Secrets sent back redacted (or
// empty) keep their stored value.
func (h Handlers) PutTwilioSettings(c *gin.Context) {
	var req telephony.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	ctx := c.Request.Context()
	current, err := h.TwilioSettings.Load(ctx)
	if err != nil {
		logger.FromGin(c).Error("load twilio settings failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not load Twilio settings")
		return
	}
	req.AuthToken = keepSecret(req.AuthToken, current.AuthToken)
	req.APISecret = keepSecret(req.APISecret, current.APISecret)

	if req.Enabled && !req.Complete() {
		fail(c, http.StatusBadRequest, "invalid_request", "account_sid, auth_token, api_key, api_secret and twiml_sid are required when enabled")
		return
	}
	if err := h.TwilioSettings.Save(ctx, req); err != nil {
		logger.FromGin(c).Error("save twilio settings failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not save Twilio settings")
		return
	}
	h.auditChange(c, "twilio_settings", req.Redacted())
	c.JSON(http.StatusOK, req.Redacted())
}

func keepSecret(sent, stored string) string {
	sent = strings.TrimSpace(sent)
	if sent == "" || sent == redactedSecret {
		return stored
	}
	return sent
}

// --- Selling Steps ---

func (h Handlers) GetSellingStep(c *gin.Context) {
	st, err := h.Events.SellingStep(c.Request.Context(), c.Param("name"))
	if errors.Is(err, events.ErrSellingStepNotFound) {
		fail(c, http.StatusNotFound, "not_found", "Selling step not found")
		return
	}
	if err != nil {
		logger.FromGin(c).Error("load selling step failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not load selling step")
		return
	}
	c.JSON(http.StatusOK, st)
}

type sellingStepRequest struct {
	CreateEvent bool `json:"create_event"`
}

func (h Handlers) PutSellingStep(c *gin.Context) {
	var req sellingStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	st := events.SellingStep{Name: strings.TrimSpace(c.Param("name")), CreateEvent: req.CreateEvent}
	err := h.Events.SaveSellingStep(c.Request.Context(), st)
	if errors.Is(err, events.ErrInvalidArgument) {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err != nil {
		logger.FromGin(c).Error("save selling step failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not save selling step")
		return
	}
	h.auditChange(c, "selling_step:"+st.Name, st)
	c.JSON(http.StatusOK, st)
}
