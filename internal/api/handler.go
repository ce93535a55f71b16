package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/config"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/i18n"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/mailer"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/match"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/middleware"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/ratelimit"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/rsvp"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/token"
)

// Handler serves the public guest API: the access workflow (login, code
// recovery, magic links) and the RSVP endpoints behind bearer auth.
type Handler struct {
	store   store.GuestStore
	tokens  *token.Service
	limiter *ratelimit.Limiter
	mail    mailer.Mailer
	machine rsvp.Machine
	cfg     *config.Config

	// now is swappable in tests.
	now func() time.Time
}

func NewHandler(s store.GuestStore, tokens *token.Service, limiter *ratelimit.Limiter, mail mailer.Mailer, cfg *config.Config) *Handler {
	return &Handler{
		store:   s,
		tokens:  tokens,
		limiter: limiter,
		mail:    mail,
		machine: rsvp.Machine{Deadline: cfg.RSVPDeadline},
		cfg:     cfg,
		now:     time.Now,
	}
}

func RegisterHandlers(r *gin.Engine, h *Handler) {
	r.GET("/health", h.GetHealth)

	api := r.Group("/api")
	api.POST("/login", h.Login)
	api.POST("/recover-code", h.RecoverCode)
	api.POST("/request-access", h.RequestAccess)
	api.POST("/magic-login", h.MagicLogin)

	guest := api.Group("/guest", h.requireGuest)
	guest.GET("/me", h.GetMyProfile)
	guest.POST("/me/rsvp", h.UpdateMyRSVP)
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Login exchanges guest_code plus a matching contact field for a session
// token. Failures are a uniform 401 that never says which field was wrong.
func (h *Handler) Login(c *gin.Context) {
	clientIP := middleware.ClientIP(c.Request)
	if !h.allow(c, "login", clientIP, h.cfg.LoginRL) {
		return
	}

	var body LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Error{Message: "invalid request body"})
		return
	}

	logger := log.WithFields(log.Fields{"guest_code": body.GuestCode, "ip": clientIP})

	guest, err := h.store.GetGuest(c.Request.Context(), strings.TrimSpace(body.GuestCode))
	if err != nil {
		logger.WithError(err).Error("login: guest lookup failed")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	if guest == nil || !contactMatches(guest, body.Email, body.Phone) {
		logger.Info("login failed")
		lang := i18n.Resolve("", "", c.GetHeader("Accept-Language"), "", h.cfg.DefaultLang)
		c.JSON(http.StatusUnauthorized, Error{Message: i18n.T("login.failed", lang)})
		return
	}

	h.issueToken(c, guest.GuestCode, logger)
}

// RecoverCode emails the guest code to a guest who forgot it. The response
// body is generic whether or not the contact matched anyone.
func (h *Handler) RecoverCode(c *gin.Context) {
	clientIP := middleware.ClientIP(c.Request)
	if !h.allow(c, "recover", clientIP, h.cfg.RecoverRL) {
		return
	}

	var body RecoveryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Error{Message: "invalid request body"})
		return
	}

	if strings.TrimSpace(body.Email) == "" && strings.TrimSpace(body.Phone) == "" {
		c.JSON(http.StatusBadRequest, Error{Message: "you must provide at least an email or a phone"})
		return
	}

	logger := log.WithFields(log.Fields{"ip": clientIP, "email": match.MaskEmail(body.Email)})

	guest, err := h.store.FindByEmail(c.Request.Context(), body.Email)
	if err == nil && guest == nil && strings.TrimSpace(body.Phone) != "" {
		guest, err = h.store.FindByPhone(c.Request.Context(), body.Phone)
	}
	if err != nil {
		logger.WithError(err).Error("recover: guest lookup failed")
		// The generic body hides storage trouble as well as non-existence.
	}

	if guest != nil && guest.Email != "" {
		lang := i18n.Resolve(body.Lang, string(guest.Language), c.GetHeader("Accept-Language"), guest.Email, h.cfg.DefaultLang)
		to, name, code := guest.Email, guest.FullName, guest.GuestCode
		h.sendAsync(logger.WithField("kind", "guest_code"), func(ctx context.Context) mailer.Result {
			return h.mail.SendGuestCode(ctx, to, name, code, lang)
		})
	} else {
		logger.Info("recover requested, no match or no email")
	}

	lang := i18n.Resolve(body.Lang, "", c.GetHeader("Accept-Language"), body.Email, h.cfg.DefaultLang)
	c.JSON(http.StatusOK, gin.H{"message": i18n.T("recover.generic", lang)})
}

// RequestAccess runs the guest matcher and, on a match, dispatches either the
// guest code or a freshly minted magic link. The response body and status are
// identical whether or not anything matched.
func (h *Handler) RequestAccess(c *gin.Context) {
	clientIP := middleware.ClientIP(c.Request)
	if !h.allow(c, "request_access", clientIP, h.cfg.RequestRL) {
		return
	}

	var body RequestAccessPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Error{Message: "invalid request body"})
		return
	}

	logger := log.WithFields(log.Fields{"ip": clientIP, "email": match.MaskEmail(body.Email)})

	guest, err := match.FindGuestForMagic(c.Request.Context(), h.store, body.FullName, body.PhoneLast4, body.Email)
	if err != nil {
		logger.WithError(err).Error("request-access: matcher failed")
	}

	if guest != nil {
		h.refreshContact(c.Request.Context(), guest, body, logger)
		h.dispatchAccess(c, guest, body, logger)
	}

	lang := i18n.Resolve(body.Lang, "", c.GetHeader("Accept-Language"), body.Email, h.cfg.DefaultLang)
	c.JSON(http.StatusOK, AccessAck{
		OK:           true,
		Message:      i18n.T("access.generic", lang),
		ExpiresInSec: int(h.cfg.MagicExpire.Seconds()),
	})
}

// refreshContact persists a changed email or consent flag on a matched guest
// before anything is sent to the supplied address.
func (h *Handler) refreshContact(ctx context.Context, guest *store.GuestRecord, body RequestAccessPayload, logger *log.Entry) {
	emailIn := strings.ToLower(strings.TrimSpace(body.Email))
	storedEmail := strings.ToLower(strings.TrimSpace(guest.Email))
	if emailIn == storedEmail && guest.Consent == body.Consent {
		return
	}

	updated, err := h.store.UpdateGuest(ctx, guest.GuestCode, func(g *store.GuestRecord) error {
		if emailIn != "" {
			g.Email = emailIn
		}
		g.Consent = body.Consent
		return nil
	})
	if err != nil || updated == nil {
		logger.WithError(err).Error("request-access: failed to update contact details")
		return
	}
	*guest = *updated
	logger.Info("request-access: contact details updated")
}

func (h *Handler) dispatchAccess(c *gin.Context, guest *store.GuestRecord, body RequestAccessPayload, logger *log.Entry) {
	to := strings.TrimSpace(body.Email)
	if to == "" {
		logger.Info("request-access: match without email, nothing sent")
		return
	}

	lang := i18n.Resolve(body.Lang, string(guest.Language), c.GetHeader("Accept-Language"), to, h.cfg.DefaultLang)

	if h.cfg.SendMode == config.AccessModeMagic {
		magicToken, err := h.tokens.CreateMagic(guest.GuestCode, to)
		if err != nil {
			logger.WithError(err).Error("request-access: failed to create magic token")
			return
		}
		expiresAt := h.now().UTC().Add(h.cfg.MagicExpire)
		if err := h.store.SetMagicLink(c.Request.Context(), guest.GuestCode, magicToken, expiresAt); err != nil {
			logger.WithError(err).Error("request-access: failed to persist magic link")
			return
		}

		magicURL := fmt.Sprintf("%s?token=%s", h.cfg.RSVPURL, magicToken)
		h.sendAsync(logger.WithField("kind", "magic_link"), func(ctx context.Context) mailer.Result {
			return h.mail.SendMagicLink(ctx, to, magicURL, lang)
		})
		return
	}

	name, code := guest.FullName, guest.GuestCode
	h.sendAsync(logger.WithField("kind", "guest_code"), func(ctx context.Context) mailer.Result {
		return h.mail.SendGuestCode(ctx, to, name, code, lang)
	})
}

// MagicLogin redeems a magic token for a session token. The token must both
// decode and still be present on a guest row; redemption clears it so a
// second attempt fails.
func (h *Handler) MagicLogin(c *gin.Context) {
	var body MagicLoginPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Error{Message: "invalid request body"})
		return
	}

	if _, err := h.tokens.DecodeMagic(body.Token); err != nil {
		log.WithError(err).Info("magic-login: token rejected by decoder")
		c.JSON(http.StatusUnauthorized, MagicLoginError{OK: false, Error: "invalid_token"})
		return
	}

	guest, err := h.store.ConsumeMagicLink(c.Request.Context(), body.Token)
	if err != nil {
		log.WithError(err).Error("magic-login: consume failed")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}
	if guest == nil {
		log.Info("magic-login: token already used, expired or unknown")
		c.JSON(http.StatusUnauthorized, MagicLoginError{OK: false, Error: "invalid_or_used_token"})
		return
	}

	h.issueToken(c, guest.GuestCode, log.WithField("guest_code", guest.GuestCode))
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	c.JSON(http.StatusOK, guestToResponse(currentGuest(c)))
}

// UpdateMyRSVP applies an attendance decision for the authenticated guest.
// The state change commits atomically; the confirmation email afterwards is
// best-effort and never rolls the decision back.
func (h *Handler) UpdateMyRSVP(c *gin.Context) {
	guest := currentGuest(c)
	logger := log.WithField("guest_code", guest.GuestCode)

	var body rsvp.Request
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Error{Message: "invalid request body"})
		return
	}

	now := h.now().UTC()
	updated, err := h.store.UpdateGuest(c.Request.Context(), guest.GuestCode, func(g *store.GuestRecord) error {
		return h.machine.Apply(g, body, now)
	})

	var vErr *rsvp.ValidationError
	if errors.As(err, &vErr) {
		lang := i18n.Resolve("", string(guest.Language), c.GetHeader("Accept-Language"), guest.Email, h.cfg.DefaultLang)
		c.JSON(http.StatusBadRequest, Error{Message: i18n.T(vErr.Key, lang)})
		return
	}
	if err != nil {
		logger.WithError(err).Error("rsvp: update failed")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}
	if updated == nil {
		unauthorized(c)
		return
	}

	logger.WithFields(log.Fields{
		"attending":    updated.Confirmed != nil && *updated.Confirmed,
		"num_adults":   updated.NumAdults,
		"num_children": updated.NumChildren,
		"email":        match.MaskEmail(updated.Email),
	}).Info("rsvp decision recorded")

	if updated.Email != "" {
		lang := i18n.Resolve("", string(updated.Language), c.GetHeader("Accept-Language"), updated.Email, h.cfg.DefaultLang)
		to := updated.Email
		summary := rsvp.ConfirmationSummary(updated)
		h.sendAsync(logger.WithField("kind", "confirmation"), func(ctx context.Context) mailer.Result {
			return h.mail.SendConfirmation(ctx, to, lang, summary)
		})
	}

	c.JSON(http.StatusOK, guestToResponse(updated))
}

// allow applies one endpoint's sliding-window budget, answering 429 with a
// Retry-After hint on breach.
func (h *Handler) allow(c *gin.Context, endpoint, clientIP string, rl config.RateLimit) bool {
	key := endpoint + ":" + clientIP
	if h.limiter.Allow(key, rl.Max, rl.Window) {
		return true
	}

	c.Header("Retry-After", strconv.Itoa(int(rl.Window.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Error{Message: "too many attempts, please try again later"})
	return false
}

func (h *Handler) issueToken(c *gin.Context, guestCode string, logger *log.Entry) {
	accessToken, err := h.tokens.CreateAccess(guestCode)
	if err != nil {
		logger.WithError(err).Error("failed to sign access token")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	logger.Info("access token issued")
	c.JSON(http.StatusOK, TokenResponse{AccessToken: accessToken, TokenType: "bearer"})
}

// sendAsync dispatches mail in the background with a bounded timeout; the
// HTTP response never waits for, or fails on, delivery.
func (h *Handler) sendAsync(logger *log.Entry, send func(ctx context.Context) mailer.Result) {
	timeout := h.cfg.MailTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if res := send(ctx); !res.OK {
			logger.WithError(res.Err).Error("mail delivery failed")
			return
		}
		logger.Info("mail sent")
	}()
}

func contactMatches(guest *store.GuestRecord, email, phone string) bool {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	if email != "" && guest.Email != "" && strings.EqualFold(strings.TrimSpace(guest.Email), email) {
		return true
	}
	if phone != "" && guest.Phone != "" && store.OnlyDigits(guest.Phone) == store.OnlyDigits(phone) {
		return true
	}
	return false
}
