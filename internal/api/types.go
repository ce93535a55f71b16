package api

import (
	"time"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/rsvp"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type Error struct {
	Message string `json:"message"`
}

type LoginRequest struct {
	GuestCode string `json:"guest_code" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RecoveryRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Lang  string `json:"lang"`
}

type RequestAccessPayload struct {
	FullName   string `json:"full_name" binding:"required"`
	PhoneLast4 string `json:"phone_last4" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Consent    bool   `json:"consent"`
	Lang       string `json:"lang"`
}

type AccessAck struct {
	OK           bool   `json:"ok"`
	Message      string `json:"message"`
	ExpiresInSec int    `json:"expires_in_sec"`
}

type MagicLoginPayload struct {
	Token string `json:"token" binding:"required"`
}

type MagicLoginError struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type CompanionResponse struct {
	Name       string `json:"name"`
	IsChild    bool   `json:"is_child"`
	MenuChoice string `json:"menu_choice,omitempty"`
	Allergies  string `json:"allergies,omitempty"`
}

// GuestResponse is the guest profile shape shared by /guest/me and the RSVP
// endpoint. InvitedToCeremony and InviteScope are derived from the invite
// type.
type GuestResponse struct {
	GuestCode          string              `json:"guest_code"`
	FullName           string              `json:"full_name"`
	Email              string              `json:"email,omitempty"`
	Phone              string              `json:"phone,omitempty"`
	Language           string              `json:"language"`
	InviteType         string              `json:"invite_type"`
	MaxAccomp          int                 `json:"max_accomp"`
	Confirmed          *bool               `json:"confirmed"`
	ConfirmedAt        *time.Time          `json:"confirmed_at,omitempty"`
	MenuChoice         string              `json:"menu_choice,omitempty"`
	Allergies          string              `json:"allergies,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	NeedsAccommodation bool                `json:"needs_accommodation"`
	NeedsTransport     bool                `json:"needs_transport"`
	NumAdults          int                 `json:"num_adults"`
	NumChildren        int                 `json:"num_children"`
	Companions         []CompanionResponse `json:"companions"`
	InvitedToCeremony  bool                `json:"invited_to_ceremony"`
	InviteScope        string              `json:"invite_scope"`
}

func guestToResponse(g *store.GuestRecord) GuestResponse {
	companions := make([]CompanionResponse, 0, len(g.Companions))
	for _, c := range g.Companions {
		companions = append(companions, CompanionResponse{
			Name:       c.Name,
			IsChild:    c.IsChild,
			MenuChoice: c.MenuChoice,
			Allergies:  c.Allergies,
		})
	}

	return GuestResponse{
		GuestCode:          g.GuestCode,
		FullName:           g.FullName,
		Email:              g.Email,
		Phone:              g.Phone,
		Language:           string(g.Language),
		InviteType:         string(g.InviteType),
		MaxAccomp:          g.MaxAccomp,
		Confirmed:          g.Confirmed,
		ConfirmedAt:        g.ConfirmedAt,
		MenuChoice:         g.MenuChoice,
		Allergies:          g.Allergies,
		Notes:              g.Notes,
		NeedsAccommodation: g.NeedsAccommodation,
		NeedsTransport:     g.NeedsTransport,
		NumAdults:          g.NumAdults,
		NumChildren:        g.NumChildren,
		Companions:         companions,
		InvitedToCeremony:  g.InviteType == store.InviteFull,
		InviteScope:        rsvp.InviteScope(g.InviteType),
	}
}
