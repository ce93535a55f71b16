package store

import (
	"context"
	"time"
)

// Language is a guest's preferred language for outward-facing messages.
type Language string

const (
	LangEN Language = "en"
	LangES Language = "es"
	LangRO Language = "ro"
)

// InviteType segments what the invitation covers.
type InviteType string

const (
	// InviteFull covers ceremony and reception.
	InviteFull InviteType = "full"
	// InviteCeremony covers the reception only.
	InviteCeremony InviteType = "ceremony"
)

// Companion is owned by exactly one guest. The whole set is replaced on every
// RSVP submission, so companions carry no identity of their own.
type Companion struct {
	Name       string `json:"name"`
	IsChild    bool   `json:"is_child"`
	MenuChoice string `json:"menu_choice,omitempty"`
	Allergies  string `json:"allergies,omitempty"`
}

// GuestRecord is one invited party: the titular guest plus their companions.
// Confirmed is tri-state: nil means no decision yet.
type GuestRecord struct {
	GuestCode string   `json:"guest_code"`
	FullName  string   `json:"full_name"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Language  Language `json:"language"`
	Consent   bool     `json:"consent"`

	InviteType InviteType `json:"invite_type"`
	MaxAccomp  int        `json:"max_accomp"`

	Confirmed          *bool       `json:"confirmed"`
	ConfirmedAt        *time.Time  `json:"confirmed_at,omitempty"`
	MenuChoice         string      `json:"menu_choice,omitempty"`
	Allergies          string      `json:"allergies,omitempty"`
	Notes              string      `json:"notes,omitempty"`
	NeedsAccommodation bool        `json:"needs_accommodation"`
	NeedsTransport     bool        `json:"needs_transport"`
	NumAdults          int         `json:"num_adults"`
	NumChildren        int         `json:"num_children"`
	Companions         []Companion `json:"companions"`

	MagicLinkToken     string     `json:"magic_link_token,omitempty"`
	MagicLinkExpiresAt *time.Time `json:"magic_link_expires_at,omitempty"`

	// LastReminderAt is owned by the external reminder job; the core only
	// round-trips it.
	LastReminderAt *time.Time `json:"last_reminder_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GuestStore is the persistence capability the core depends on. Lookups
// return (nil, nil) when no guest matches.
type GuestStore interface {
	GetGuest(ctx context.Context, code string) (*GuestRecord, error)
	FindByEmail(ctx context.Context, email string) (*GuestRecord, error)
	FindByPhone(ctx context.Context, phone string) (*GuestRecord, error)
	// FindByPhoneLast4 returns every guest whose stored phone, reduced to
	// digits, ends in the given four digits.
	FindByPhoneLast4(ctx context.Context, last4 string) ([]GuestRecord, error)

	// UpdateGuest runs mutate on the stored record inside a single write
	// transaction. If mutate returns an error nothing is persisted and the
	// error is propagated.
	UpdateGuest(ctx context.Context, code string, mutate func(*GuestRecord) error) (*GuestRecord, error)

	// SetMagicLink persists the magic token and its expiry on the guest row,
	// replacing any previously issued token.
	SetMagicLink(ctx context.Context, code, token string, expiresAt time.Time) error
	// ConsumeMagicLink redeems a magic token exactly once: if a guest holds
	// the token and it has not expired, both magic link fields are cleared in
	// the same transaction and the guest is returned. Otherwise (nil, nil).
	ConsumeMagicLink(ctx context.Context, token string) (*GuestRecord, error)

	Close() error
}
