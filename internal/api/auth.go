package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
)

const ctxGuestKey = "authenticated_guest"

// requireGuest resolves the bearer token to a guest record and aborts with a
// generic 401 otherwise. The response never says whether the token was
// malformed, expired or simply unknown.
func (h *Handler) requireGuest(c *gin.Context) {
	scheme, tokenString, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
		unauthorized(c)
		return
	}

	claims := h.tokens.VerifyAccess(strings.TrimSpace(tokenString))
	if claims == nil || claims.Subject == "" {
		unauthorized(c)
		return
	}

	guest, err := h.store.GetGuest(c.Request.Context(), claims.Subject)
	if err != nil {
		log.WithError(err).Error("failed to load guest for bearer token")
		c.AbortWithStatusJSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}
	if guest == nil {
		unauthorized(c)
		return
	}

	c.Set(ctxGuestKey, guest)
	c.Next()
}

func currentGuest(c *gin.Context) *store.GuestRecord {
	return c.MustGet(ctxGuestKey).(*store.GuestRecord)
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, Error{Message: "could not validate credentials"})
}
