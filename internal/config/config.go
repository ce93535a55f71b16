package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// RateLimit is one endpoint's sliding-window budget. Max <= 0 disables the
// limit for that endpoint.
type RateLimit struct {
	Max    int
	Window time.Duration
}

// AccessMode selects what request-access emails to a matched guest.
type AccessMode string

const (
	// AccessModeCode emails the guest their long-lived guest code.
	AccessModeCode AccessMode = "code"
	// AccessModeMagic emails a short-lived single-use magic link.
	AccessModeMagic AccessMode = "magic"
)

type rawConfig struct {
	Port      string `env:"PORT" envDefault:"8080"`
	AdminPort string `env:"ADMIN_PORT" envDefault:"9090"`
	DBPath    string `env:"DB_PATH" envDefault:"/data/rsvp.db"`
	SeedFile  string `env:"SEED_FILE"`
	GinMode   string `env:"GIN_MODE" envDefault:"release"`

	SecretKey       string `env:"SECRET_KEY" envDefault:"dev_secret"`
	AccessExpireMin int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"1440"`
	MagicExpireMin  int    `env:"MAGIC_LINK_EXPIRE_MINUTES" envDefault:"15"`

	RSVPDeadline string `env:"RSVP_DEADLINE"`
	RSVPURL      string `env:"RSVP_URL" envDefault:"https://rsvp.suarezsiicawedding.com"`
	SendMode     string `env:"SEND_ACCESS_MODE" envDefault:"code"`
	DefaultLang  string `env:"DEFAULT_LANG" envDefault:"es"`

	LoginMax      int `env:"LOGIN_RL_MAX" envDefault:"5"`
	LoginWindow   int `env:"LOGIN_RL_WINDOW" envDefault:"60"`
	RecoverMax    int `env:"RECOVER_RL_MAX" envDefault:"3"`
	RecoverWindow int `env:"RECOVER_RL_WINDOW" envDefault:"120"`
	RequestMax    int `env:"REQUEST_RL_MAX" envDefault:"-1"`
	RequestWindow int `env:"REQUEST_RL_WINDOW" envDefault:"-1"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	DryRun          bool   `env:"DRY_RUN" envDefault:"true"`
	FromEmail       string `env:"EMAIL_FROM"`
	EmailSenderName string `env:"EMAIL_SENDER_NAME" envDefault:"Jenny & Cristian"`
	BrevoAPIKey     string `env:"BREVO_API_KEY"`
	MailTimeoutSec  int    `env:"MAIL_TIMEOUT_SECONDS" envDefault:"10"`
}

type Config struct {
	Port      string
	AdminPort string
	DBPath    string
	SeedFile  string
	GinMode   string

	SecretKey    string
	AccessExpire time.Duration
	MagicExpire  time.Duration

	RSVPDeadline time.Time
	RSVPURL      string
	SendMode     AccessMode
	DefaultLang  string

	LoginRL   RateLimit
	RecoverRL RateLimit
	RequestRL RateLimit

	RateLimitRPS   float64
	RateLimitBurst int

	DryRun          bool
	FromEmail       string
	EmailSenderName string
	BrevoAPIKey     string
	MailTimeout     time.Duration
}

// Load reads configuration from the environment. Missing or malformed
// required values fail here, at process start, not per-request.
func Load() (*Config, error) {
	var raw rawConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if strings.TrimSpace(raw.SecretKey) == "" {
		return nil, fmt.Errorf("SECRET_KEY must not be empty")
	}

	if strings.TrimSpace(raw.RSVPDeadline) == "" {
		return nil, fmt.Errorf("RSVP_DEADLINE is required (ISO date, e.g. 2026-01-20)")
	}
	deadline, err := parseDeadline(raw.RSVPDeadline)
	if err != nil {
		return nil, fmt.Errorf("parsing RSVP_DEADLINE: %w", err)
	}

	mode := AccessMode(strings.ToLower(strings.TrimSpace(raw.SendMode)))
	if mode != AccessModeCode && mode != AccessModeMagic {
		return nil, fmt.Errorf("SEND_ACCESS_MODE must be %q or %q, got %q", AccessModeCode, AccessModeMagic, raw.SendMode)
	}

	if !raw.DryRun && raw.BrevoAPIKey == "" {
		return nil, fmt.Errorf("BREVO_API_KEY is required when DRY_RUN is disabled")
	}
	if !raw.DryRun && raw.FromEmail == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required when DRY_RUN is disabled")
	}

	// Request-access inherits the recover-code budget unless overridden.
	requestMax, requestWindow := raw.RequestMax, raw.RequestWindow
	if requestMax < 0 {
		requestMax = raw.RecoverMax
	}
	if requestWindow < 0 {
		requestWindow = raw.RecoverWindow
	}

	return &Config{
		Port:      raw.Port,
		AdminPort: raw.AdminPort,
		DBPath:    raw.DBPath,
		SeedFile:  raw.SeedFile,
		GinMode:   raw.GinMode,

		SecretKey:    raw.SecretKey,
		AccessExpire: time.Duration(raw.AccessExpireMin) * time.Minute,
		MagicExpire:  time.Duration(raw.MagicExpireMin) * time.Minute,

		RSVPDeadline: deadline,
		RSVPURL:      strings.TrimRight(raw.RSVPURL, "/"),
		SendMode:     mode,
		DefaultLang:  raw.DefaultLang,

		LoginRL:   RateLimit{Max: raw.LoginMax, Window: time.Duration(raw.LoginWindow) * time.Second},
		RecoverRL: RateLimit{Max: raw.RecoverMax, Window: time.Duration(raw.RecoverWindow) * time.Second},
		RequestRL: RateLimit{Max: requestMax, Window: time.Duration(requestWindow) * time.Second},

		RateLimitRPS:   raw.RateLimitRPS,
		RateLimitBurst: raw.RateLimitBurst,

		DryRun:          raw.DryRun,
		FromEmail:       raw.FromEmail,
		EmailSenderName: raw.EmailSenderName,
		BrevoAPIKey:     raw.BrevoAPIKey,
		MailTimeout:     time.Duration(raw.MailTimeoutSec) * time.Second,
	}, nil
}

func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
