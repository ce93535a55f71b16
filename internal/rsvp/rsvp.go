// Package rsvp implements the attendance state machine: pending guests move
// to confirmed or declined, with the companion list and occupancy counters
// recomputed on every submission.
package rsvp

import (
	"strings"
	"time"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/mailer"
	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
)

// CompanionInput is one companion as submitted by the titular guest.
type CompanionInput struct {
	Name       string `json:"name" binding:"required"`
	IsChild    bool   `json:"is_child"`
	MenuChoice string `json:"menu_choice"`
	Allergies  string `json:"allergies"`
}

// Request is an RSVP submission. Companions, menu and allergies only apply
// when attending.
type Request struct {
	Attending          *bool            `json:"attending" binding:"required"`
	Companions         []CompanionInput `json:"companions"`
	MenuChoice         string           `json:"menu_choice"`
	Allergies          string           `json:"allergies"`
	Notes              string           `json:"notes"`
	NeedsAccommodation bool             `json:"needs_accommodation"`
	NeedsTransport     bool             `json:"needs_transport"`
}

// ValidationError is a business-rule rejection. Key is an i18n message key
// so the handler can answer in the guest's language.
type ValidationError struct {
	Key string
}

func (e *ValidationError) Error() string { return e.Key }

var (
	ErrDeadlinePassed    = &ValidationError{Key: "rsvp.deadline"}
	ErrTooManyCompanions = &ValidationError{Key: "rsvp.too_many_companions"}
	ErrMenuRequired      = &ValidationError{Key: "rsvp.menu_required"}
)

// Machine validates and applies RSVP submissions against a fixed deadline.
type Machine struct {
	Deadline time.Time
}

// Apply mutates g according to req. It is meant to run inside the store's
// write transaction so a rejection leaves the persisted record untouched.
func (m Machine) Apply(g *store.GuestRecord, req Request, now time.Time) error {
	if now.After(m.Deadline) {
		return ErrDeadlinePassed
	}

	attending := req.Attending != nil && *req.Attending
	if !attending {
		return m.applyDecline(g, req, now)
	}
	return m.applyConfirm(g, req, now)
}

func (m Machine) applyDecline(g *store.GuestRecord, req Request, now time.Time) error {
	decided := false
	at := now.UTC()

	g.Confirmed = &decided
	g.ConfirmedAt = &at
	g.MenuChoice = ""
	g.Allergies = ""
	g.Companions = []store.Companion{}
	g.NumAdults = 0
	g.NumChildren = 0
	g.Notes = strings.TrimSpace(req.Notes)
	g.NeedsAccommodation = req.NeedsAccommodation
	g.NeedsTransport = req.NeedsTransport
	return nil
}

func (m Machine) applyConfirm(g *store.GuestRecord, req Request, now time.Time) error {
	if len(req.Companions) > g.MaxAccomp {
		return ErrTooManyCompanions
	}

	requiresMenu := g.InviteType == store.InviteFull
	menu := strings.TrimSpace(req.MenuChoice)
	if requiresMenu && menu == "" {
		return ErrMenuRequired
	}

	// The titular guest always counts as one adult.
	adults, children := 1, 0
	companions := make([]store.Companion, 0, len(req.Companions))
	for _, c := range req.Companions {
		if c.IsChild {
			children++
		} else {
			adults++
		}
		companionMenu := ""
		if requiresMenu {
			companionMenu = strings.TrimSpace(c.MenuChoice)
		}
		companions = append(companions, store.Companion{
			Name:       strings.TrimSpace(c.Name),
			IsChild:    c.IsChild,
			MenuChoice: companionMenu,
			Allergies:  strings.TrimSpace(c.Allergies),
		})
	}

	decided := true
	at := now.UTC()

	g.Confirmed = &decided
	g.ConfirmedAt = &at
	if requiresMenu {
		g.MenuChoice = menu
	} else {
		g.MenuChoice = ""
	}
	g.Allergies = strings.TrimSpace(req.Allergies)
	g.Notes = strings.TrimSpace(req.Notes)
	g.NeedsAccommodation = req.NeedsAccommodation
	g.NeedsTransport = req.NeedsTransport
	g.Companions = companions
	g.NumAdults = adults
	g.NumChildren = children
	return nil
}

// InviteScope is the outward label for what the invitation covers.
func InviteScope(t store.InviteType) string {
	if t == store.InviteFull {
		return "ceremony+reception"
	}
	return "reception-only"
}

// ConfirmationSummary builds the mail content for a decided RSVP.
func ConfirmationSummary(g *store.GuestRecord) mailer.Summary {
	attending := g.Confirmed != nil && *g.Confirmed

	var companions []mailer.CompanionLine
	if attending {
		for _, c := range g.Companions {
			companions = append(companions, mailer.CompanionLine{
				Name:      c.Name,
				IsChild:   c.IsChild,
				Allergies: c.Allergies,
			})
		}
	}

	return mailer.Summary{
		GuestName:   g.FullName,
		InviteScope: InviteScope(g.InviteType),
		Attending:   attending,
		Companions:  companions,
		Allergies:   g.Allergies,
		Notes:       g.Notes,
	}
}
