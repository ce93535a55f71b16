package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
)

// AdminStore defines the store operations needed by the admin handler.
type AdminStore interface {
	GetAllGuests(ctx context.Context) (map[string]store.GuestRecord, error)
	ReplaceAllGuests(ctx context.Context, guests map[string]store.GuestRecord) error
}

type Error struct {
	Message string `json:"message"`
}

// Summary aggregates RSVP state for the organizers' dashboard.
type Summary struct {
	TotalInvites       int `json:"total_invites"`
	Pending            int `json:"pending"`
	Confirmed          int `json:"confirmed"`
	Declined           int `json:"declined"`
	TotalAdults        int `json:"total_adults"`
	TotalChildren      int `json:"total_children"`
	NeedsAccommodation int `json:"needs_accommodation"`
	NeedsTransport     int `json:"needs_transport"`
}

type Handler struct {
	store AdminStore
}

func NewHandler(s AdminStore) *Handler {
	return &Handler{store: s}
}

func RegisterHandlers(r *gin.Engine, h *Handler) {
	r.GET("/admin/guests", h.GetAdminGuests)
	r.PUT("/admin/guests", h.PutAdminGuests)
	r.GET("/admin/summary", h.GetAdminSummary)
}

func (h *Handler) GetAdminGuests(c *gin.Context) {
	guests, err := h.store.GetAllGuests(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to get all guests")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	c.JSON(http.StatusOK, guests)
}

// PutAdminGuests is the bulk import path: the incoming list replaces the
// whole guest table.
func (h *Handler) PutAdminGuests(c *gin.Context) {
	var guests map[string]store.GuestRecord
	if err := c.ShouldBindJSON(&guests); err != nil {
		c.JSON(http.StatusBadRequest, Error{Message: "invalid request body"})
		return
	}

	if err := h.store.ReplaceAllGuests(c.Request.Context(), guests); err != nil {
		log.WithError(err).Error("failed to replace guests")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	log.WithField("count", len(guests)).Info("guest list replaced")
	c.JSON(http.StatusOK, guests)
}

func (h *Handler) GetAdminSummary(c *gin.Context) {
	guests, err := h.store.GetAllGuests(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to get all guests")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	var s Summary
	s.TotalInvites = len(guests)
	for _, g := range guests {
		switch {
		case g.Confirmed == nil:
			s.Pending++
		case *g.Confirmed:
			s.Confirmed++
			s.TotalAdults += g.NumAdults
			s.TotalChildren += g.NumChildren
			if g.NeedsAccommodation {
				s.NeedsAccommodation++
			}
			if g.NeedsTransport {
				s.NeedsTransport++
			}
		default:
			s.Declined++
		}
	}

	c.JSON(http.StatusOK, s)
}
