// Package match resolves a self-reported identity against the stored guest
// list for the request-access flow.
package match

import (
	"context"
	"strings"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
)

var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FindGuestForMagic resolves (full name, phone last-4, email) to a guest.
// The phone suffix and a case-insensitive email match are authoritative; the
// name is compared accent-insensitively and a divergence is logged at warning
// level but does not reject the match. That tolerance is a deliberate product
// choice pending sign-off, not a bug.
func FindGuestForMagic(ctx context.Context, s store.GuestStore, fullName, phoneLast4, email string) (*store.GuestRecord, error) {
	start := time.Now()

	last4 := lastDigits(phoneLast4, 4)
	emailNorm := strings.ToLower(strings.TrimSpace(email))
	logger := log.WithFields(log.Fields{
		"last4": last4,
		"email": MaskEmail(email),
	})

	if len(last4) != 4 {
		logger.Debug("matcher: invalid phone suffix")
		return nil, nil
	}
	if emailNorm == "" {
		logger.Debug("matcher: missing email")
		return nil, nil
	}

	candidates, err := s.FindByPhoneLast4(ctx, last4)
	if err != nil {
		return nil, err
	}
	logger.WithField("candidates", len(candidates)).Debug("matcher: candidates by phone suffix")

	nameNorm := normalizeName(fullName)
	for i := range candidates {
		g := &candidates[i]
		if strings.ToLower(strings.TrimSpace(g.Email)) != emailNorm {
			continue
		}

		gNameNorm := normalizeName(g.FullName)
		if !namesAgree(nameNorm, gNameNorm) {
			logger.WithFields(log.Fields{
				"guest_code": g.GuestCode,
				"elapsed_ms": time.Since(start).Milliseconds(),
			}).Warn("matcher: match with diverging name")
		} else {
			logger.WithFields(log.Fields{
				"guest_code": g.GuestCode,
				"elapsed_ms": time.Since(start).Milliseconds(),
			}).Info("matcher: match")
		}
		return g, nil
	}

	logger.WithField("elapsed_ms", time.Since(start).Milliseconds()).Warn("matcher: no match")
	return nil, nil
}

// MaskEmail truncates the local part to two characters, preserving the
// domain, so addresses can be logged without exposing PII.
func MaskEmail(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "<empty>"
	}
	local, domain, found := strings.Cut(addr, "@")
	if !found {
		return truncate(addr, 2) + "***"
	}
	return truncate(local, 2) + "***@" + domain
}

// normalizeName strips accents, collapses whitespace and lowercases, so
// "José  Pérez" and "jose perez" compare equal.
func normalizeName(s string) string {
	out, _, err := transform.String(deaccent, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

// namesAgree tolerates partial entries such as a missing middle name by
// accepting containment either way.
func namesAgree(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func lastDigits(s string, n int) string {
	var digits []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return string(digits)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
