// Package mailer is the notification collaborator of the RSVP core. Sends
// are best-effort: callers log the Result but never fail or roll back the
// request that triggered the email.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/i18n"
)

// Result reports the outcome of one delivery attempt. Failure is data, not
// an exception: the triggering state change is already committed.
type Result struct {
	OK  bool
	Err error
}

func ok() Result            { return Result{OK: true} }
func failed(err error) Result { return Result{Err: err} }

// Summary is the confirmation email content for a decided RSVP.
type Summary struct {
	GuestName   string
	InviteScope string
	Attending   bool
	Companions  []CompanionLine
	Allergies   string
	Notes       string
}

type CompanionLine struct {
	Name      string
	IsChild   bool
	Allergies string
}

// Mailer is the delivery capability consumed by the access workflow and the
// RSVP state machine.
type Mailer interface {
	// SendGuestCode emails a guest their long-lived login code.
	SendGuestCode(ctx context.Context, to, guestName, guestCode, lang string) Result
	// SendMagicLink emails a single-use login link.
	SendMagicLink(ctx context.Context, to, magicURL, lang string) Result
	// SendConfirmation emails a summary of the guest's RSVP decision.
	SendConfirmation(ctx context.Context, to, lang string, summary Summary) Result
}

func guestCodeBody(guestName, guestCode, lang string) (subject, body string) {
	subject = i18n.T("mail.subject.code", lang)
	greeting := guestName
	if greeting == "" {
		greeting = "Guest"
	}
	body = fmt.Sprintf("%s,\n\n%s: %s\n", greeting, subject, guestCode)
	return subject, body
}

func magicLinkBody(magicURL, lang string) (subject, body string) {
	subject = i18n.T("mail.subject.magic", lang)
	body = fmt.Sprintf("%s:\n\n%s\n", subject, magicURL)
	return subject, body
}

func confirmationBody(lang string, s Summary) (subject, body string) {
	subject = i18n.T("mail.subject.confirmation", lang)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", subject)
	fmt.Fprintf(&b, "Guest: %s (%s)\n", s.GuestName, s.InviteScope)
	if s.Attending {
		fmt.Fprintf(&b, "Attending: yes\n")
		for _, c := range s.Companions {
			label := "adult"
			if c.IsChild {
				label = "child"
			}
			fmt.Fprintf(&b, "Companion: %s (%s)", c.Name, label)
			if c.Allergies != "" {
				fmt.Fprintf(&b, " allergies: %s", c.Allergies)
			}
			b.WriteString("\n")
		}
		if s.Allergies != "" {
			fmt.Fprintf(&b, "Allergies: %s\n", s.Allergies)
		}
	} else {
		fmt.Fprintf(&b, "Attending: no\n")
	}
	if s.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", s.Notes)
	}
	return subject, b.String()
}
