package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"twilio-integration/internal/auth"
	"twilio-integration/internal/calls"
	"twilio-integration/internal/events"
	"twilio-integration/internal/reporting"
	"twilio-integration/internal/voip"
	"twilio-integration/internal/whatsapp"
	"twilio-integration/pkg/logger"

	"github.com/gin-gonic/gin"
)

// --- Twilio ---

func (h Handlers) PhoneNumbers(c *gin.Context) {
	nums, err := h.VoIP.PhoneNumbers(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list twilio phone numbers failed", "err", err)
		fail(c, http.StatusBadGateway, "provider_error", "Could not list Twilio phone numbers")
		return
	}
	c.JSON(http.StatusOK, nums)
}

// AccessToken mints a Voice SDK token for the signed-in user.
func (h Handlers) AccessToken(c *gin.Context) {
	user, err := auth.UserID(c.Request.Context())
	if err != nil || user == "" {
		fail(c, http.StatusUnauthorized, "unauthorized", "user required")
		return
	}
	token, ok, err := h.VoIP.AccessToken(c.Request.Context(), user)
	switch {
	case errors.Is(err, voip.ErrCallerIdentityMissing):
		fail(c, http.StatusUnprocessableEntity, "caller_phone_identity_missing", "Phone number is not mapped to the caller")
		return
	case err != nil:
		logger.FromGin(c).Error("mint voice access token failed", "user", user, "err", err)
		fail(c, http.StatusInternalServerError, "token_failed", "Could not create access token")
		return
	case !ok:
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// --- Call logs ---

type createCallLogRequest struct {
	CallSid  string       `json:"call_sid" binding:"required"`
	Type     string       `json:"type" binding:"required,oneof=Incoming Outgoing"`
	From     string       `json:"from"`
	To       string       `json:"to"`
	Status   string       `json:"status"`
	VoIPUser string       `json:"voip_user"`
	Links    []calls.Link `json:"links" binding:"omitempty,dive"`
}

func (h Handlers) CreateCallLog(c *gin.Context) {
	var req createCallLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.VoIPUser == "" {
		req.VoIPUser, _ = auth.UserID(c.Request.Context())
	}

	id, created, err := h.VoIP.CreateCallLog(c.Request.Context(), voip.CreateCallLogInput{
		CallSid: req.CallSid,
		Type:    calls.CallType(req.Type),
		From:    req.From,
		To:      req.To,
		Status:  calls.Status(req.Status),
		User:    req.VoIPUser,
		Links:   req.Links,
	})
	if errors.Is(err, calls.ErrInvalidArgument) {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err != nil {
		logger.FromGin(c).Error("create call log failed", "call_sid", req.CallSid, "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not create call log")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"ok": true, "id": id, "created": created})
}

type syncCallLogRequest struct {
	Status string `json:"status"`
}

// SyncCallLog refreshes a call log from Twilio. An explicit status wins.
func (h Handlers) SyncCallLog(c *gin.Context) {
	var req syncCallLogRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}
	sid := c.Param("call_sid")
	applied, err := h.VoIP.UpdateCallLog(c.Request.Context(), sid, calls.Status(req.Status))
	if err != nil {
		logger.FromGin(c).Error("sync call log failed", "call_sid", sid, "err", err)
		fail(c, http.StatusBadGateway, "provider_error", "Could not update call log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "applied": applied})
}

type callDetailsRequest struct {
	SellType          string `json:"sell_type"`
	Ratings           string `json:"ratings"`
	RequestCallReview string `json:"request_call_review"`
	Reviewer          string `json:"reviewer"`
	CallNotes         string `json:"call_notes"`
}

func (h Handlers) SetCallDetails(c *gin.Context) {
	var req callDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sid := c.Param("call_sid")
	applied, err := h.VoIP.SetCallDetails(c.Request.Context(), sid, req.SellType, calls.Details{
		Ratings:           req.Ratings,
		RequestCallReview: req.RequestCallReview,
		Reviewer:          req.Reviewer,
		CallNotes:         req.CallNotes,
	})
	if err != nil {
		logger.FromGin(c).Error("set call details failed", "call_sid", sid, "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not save call details")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "applied": applied})
}

type createEventRequest struct {
	SellType string         `json:"sell_type"`
	Values   map[string]any `json:"values"`
}

func (h Handlers) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sid := c.Param("call_sid")
	ev, created, err := h.VoIP.CreateEvent(c.Request.Context(), sid, req.SellType, events.Values(req.Values))
	switch {
	case errors.Is(err, calls.ErrNotFound):
		fail(c, http.StatusNotFound, "call_log_not_found", "Call log does not exist")
		return
	case errors.Is(err, events.ErrSellingStepNotFound):
		fail(c, http.StatusNotFound, "selling_step_not_found", "Selling step does not exist")
		return
	case errors.Is(err, events.ErrInvalidArgument):
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case err != nil:
		logger.FromGin(c).Error("create call event failed", "call_sid", sid, "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not create event")
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"ok": true, "created": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "created": true, "event": ev})
}

// --- Contacts ---

func (h Handlers) LookupContact(c *gin.Context) {
	phone := strings.TrimSpace(c.Query("phone"))
	if phone == "" {
		fail(c, http.StatusBadRequest, "invalid_request", "phone required")
		return
	}
	contact, err := h.VoIP.LookupContact(c.Request.Context(), phone)
	if err != nil {
		logger.FromGin(c).Error("contact lookup failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not look up contact")
		return
	}
	if contact == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// --- WhatsApp ---

type sendWhatsAppRequest struct {
	To   string `json:"to" binding:"required"`
	Body string `json:"body" binding:"required"`
}

func (h Handlers) SendWhatsApp(c *gin.Context) {
	var req sendWhatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	m, err := h.VoIP.SendWhatsApp(c.Request.Context(), req.To, req.Body)
	switch {
	case errors.Is(err, whatsapp.ErrInvalidArgument):
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case errors.Is(err, voip.ErrProviderUnavailable):
		fail(c, http.StatusServiceUnavailable, "twilio_disabled", "Twilio is not enabled")
		return
	case err != nil:
		logger.FromGin(c).Error("send whatsapp failed", "err", err)
		fail(c, http.StatusBadGateway, "provider_error", "Could not send WhatsApp message")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GetWhatsAppMessage reads one message; from and to are query parameters.
func (h Handlers) GetWhatsAppMessage(c *gin.Context) {
	m, err := h.VoIP.WhatsAppMessage(c.Request.Context(), c.Param("id"), c.Query("from"), c.Query("to"))
	if errors.Is(err, whatsapp.ErrNotFound) {
		fail(c, http.StatusNotFound, "not_found", "WhatsApp message not found")
		return
	}
	if err != nil {
		logger.FromGin(c).Error("load whatsapp message failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not load WhatsApp message")
		return
	}
	c.JSON(http.StatusOK, m)
}

// --- Reports ---

// CallsReport summarises call logs created in [from, to). Both are RFC3339.
func (h Handlers) CallsReport(c *gin.Context) {
	from, errFrom := time.Parse(time.RFC3339, c.Query("from"))
	to, errTo := time.Parse(time.RFC3339, c.Query("to"))
	if errFrom != nil || errTo != nil {
		fail(c, http.StatusBadRequest, "invalid_request", "from and to must be RFC3339 timestamps")
		return
	}
	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		Range:    reporting.TimeRange{From: from, To: to},
		VoIPUser: c.Query("voip_user"),
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		fail(c, http.StatusBadRequest, "invalid_request", "to must be after from")
		return
	}
	if err != nil {
		logger.FromGin(c).Error("calls report failed", "err", err)
		fail(c, http.StatusInternalServerError, "internal_error", "Could not build report")
		return
	}
	c.JSON(http.StatusOK, out)
}
