// Package i18n holds the outward-facing message tables for the three guest
// languages. Translations are only ever used for text shown or mailed to
// guests, never for control flow.
package i18n

import "strings"

var supported = map[string]bool{"en": true, "es": true, "ro": true}

var messages = map[string]map[string]string{
	"login.failed": {
		"en": "Incorrect guest code, email or phone",
		"es": "Código de invitado, email o teléfono incorrectos",
		"ro": "Cod de invitat, email sau telefon incorecte",
	},
	"recover.generic": {
		"en": "If your contact is on our guest list, you'll receive a message shortly.",
		"es": "Si tu contacto está en nuestra lista de invitados, recibirás un mensaje en breve.",
		"ro": "Dacă datele tale sunt pe lista noastră de invitați, vei primi un mesaj în curând.",
	},
	"access.generic": {
		"en": "If the data matched, you'll receive an email shortly",
		"es": "Si los datos coinciden, recibirás un correo en breve",
		"ro": "Dacă datele corespund, vei primi un email în curând",
	},
	"rsvp.deadline": {
		"en": "The deadline to confirm attendance has passed.",
		"es": "La fecha límite para confirmar la asistencia ya ha pasado.",
		"ro": "Termenul limită pentru confirmarea prezenței a trecut.",
	},
	"rsvp.too_many_companions": {
		"en": "You have exceeded the maximum number of companions allowed.",
		"es": "Has superado el número máximo de acompañantes permitido.",
		"ro": "Ai depășit numărul maxim de însoțitori permis.",
	},
	"rsvp.menu_required": {
		"en": "You must choose a menu for the main guest.",
		"es": "Debes escoger un menú para el titular.",
		"ro": "Trebuie să alegi un meniu pentru invitatul principal.",
	},
	"mail.subject.code": {
		"en": "Your wedding guest code",
		"es": "Tu código de invitado para la boda",
		"ro": "Codul tău de invitat la nuntă",
	},
	"mail.subject.magic": {
		"en": "Your access link to confirm attendance",
		"es": "Tu enlace de acceso para confirmar asistencia",
		"ro": "Linkul tău de acces pentru confirmare",
	},
	"mail.subject.confirmation": {
		"en": "We received your RSVP",
		"es": "Hemos recibido tu confirmación",
		"ro": "Am primit confirmarea ta",
	},
}

// T returns the message for key in lang, falling back to English, then to
// the key itself so a missing entry is visible rather than blank.
func T(key, lang string) string {
	byLang, ok := messages[key]
	if !ok {
		return key
	}
	if msg, ok := byLang[normalize(lang)]; ok {
		return msg
	}
	return byLang["en"]
}

// Resolve picks the language for an outward-facing message: explicit payload
// choice first, then the guest's stored preference, then the Accept-Language
// header, then an email TLD heuristic, then the configured default.
func Resolve(payloadLang, guestLang, acceptLanguage, email, fallback string) string {
	for _, cand := range []string{payloadLang, guestLang, acceptLanguage} {
		if lang := normalize(cand); lang != "" {
			return lang
		}
	}
	if lang := fromEmail(email); lang != "" {
		return lang
	}
	if lang := normalize(fallback); lang != "" {
		return lang
	}
	return "es"
}

// normalize maps values like "es-ES" or "en-GB,en;q=0.9" to a supported base
// language, or "" when unsupported.
func normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	primary := strings.TrimSpace(strings.SplitN(code, ",", 2)[0])
	primary = strings.SplitN(primary, ";", 2)[0]
	primary = strings.SplitN(primary, "-", 2)[0]
	if supported[primary] {
		return primary
	}
	return ""
}

func fromEmail(email string) string {
	e := strings.ToLower(strings.TrimSpace(email))
	switch {
	case strings.HasSuffix(e, ".ro"):
		return "ro"
	case strings.HasSuffix(e, ".es"):
		return "es"
	}
	return ""
}
