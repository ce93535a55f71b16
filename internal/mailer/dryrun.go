package mailer

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// DryRun logs deliveries instead of sending them. It is the default mailer
// so local runs never need provider credentials.
type DryRun struct{}

func NewDryRun() *DryRun { return &DryRun{} }

func (d *DryRun) SendGuestCode(_ context.Context, to, guestName, guestCode, lang string) Result {
	subject, _ := guestCodeBody(guestName, guestCode, lang)
	log.WithFields(log.Fields{"to": to, "subject": subject, "lang": lang}).Info("dry-run mail: guest code")
	return ok()
}

func (d *DryRun) SendMagicLink(_ context.Context, to, magicURL, lang string) Result {
	subject, _ := magicLinkBody(magicURL, lang)
	log.WithFields(log.Fields{"to": to, "subject": subject, "lang": lang}).Info("dry-run mail: magic link")
	return ok()
}

func (d *DryRun) SendConfirmation(_ context.Context, to, lang string, summary Summary) Result {
	subject, _ := confirmationBody(lang, summary)
	log.WithFields(log.Fields{
		"to":        to,
		"subject":   subject,
		"lang":      lang,
		"attending": summary.Attending,
	}).Info("dry-run mail: rsvp confirmation")
	return ok()
}
