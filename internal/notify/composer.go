package notify

import (
	"fmt"
	"html"

	"eventd/internal/domain"
)

// Message composition. The association writes to a bilingual membership
// (Serbian/Swedish), so subjects carry both languages, mirroring the lines
// members have received for years. Rich HTML templating is deliberately not
// done here; bodies are short plain paragraphs with a minimal HTML variant.

// ReminderMessage composes the day-before reminder for one participant.
func ReminderMessage(to string, contact *domain.Contact, event *domain.Event) Message {
	title := event.Title.Get("en")
	text := fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder that %q takes place tomorrow, %s at %s.\nLocation: %s\n\nSee you there!\n",
		contact.DisplayName, title, event.Date, event.Time, event.Location)
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Podsetnik: %s - Sutra! / Påminnelse: %s - Imorgon!", title, title),
		TextBody: text,
		HTMLBody: htmlParagraphs(text),
	}
}

// CancellationMessage composes the event-cancelled notice for one recipient.
func CancellationMessage(to, displayName string, event *domain.Event, reason string) Message {
	title := event.Title.Get("en")
	if reason == "" {
		reason = "No reason provided"
	}
	text := fmt.Sprintf(
		"Hi %s,\n\nUnfortunately %q on %s has been cancelled.\nReason: %s\n\nWe apologize for the inconvenience.\n",
		displayName, title, event.Date, reason)
	return Message{
		To:       to,
		Subject:  "Otkazivanje treninga / Träningsinställning",
		TextBody: text,
		HTMLBody: htmlParagraphs(text),
	}
}

// AdminParticipationMessage composes the notice the association admin address
// receives when a member confirms or cancels participation. The reason is
// included only for cancellations, and only when the member gave one.
func AdminParticipationMessage(adminAddr string, contact *domain.Contact, event *domain.Event, confirmed bool, reason string) Message {
	title := event.Title.Get("en")

	action := "confirmed"
	subject := fmt.Sprintf("✓ Potvrđeno Učešće / Bekräftat Deltagande - %s", title)
	if !confirmed {
		action = "cancelled"
		subject = fmt.Sprintf("✗ Otkazano Učešće / Avbokad Deltagande - %s", title)
	}

	text := fmt.Sprintf(
		"%s (%s) has %s participation in %q on %s at %s.\n",
		contact.DisplayName, contact.Email, action, title, event.Date, event.Time)
	if !confirmed && reason != "" {
		text += fmt.Sprintf("Reason: %s\n", reason)
	}

	return Message{
		To:       adminAddr,
		Subject:  subject,
		TextBody: text,
		HTMLBody: htmlParagraphs(text),
	}
}

// htmlParagraphs wraps each text line in a <p> tag, escaping interpolated values.
func htmlParagraphs(text string) string {
	out := ""
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			if line := text[start:i]; line != "" {
				out += "<p>" + html.EscapeString(line) + "</p>"
			}
			start = i + 1
		}
	}
	return out
}
