package campaign

import (
	"fmt"
	"strings"
	"time"
)

const (
	clinicSignature = "Best regards,\nBright Smile Clinic Team"
	patientHelpline = "+91 27017 35235"
)

// slotDisplayLayout renders an offered slot the way it reads in an email.
const slotDisplayLayout = "Mon Jan 2 at 3:04 PM"

// reminderDisplayLayout renders a confirmed appointment time in full.
const reminderDisplayLayout = "Mon, 02 Jan 2006 03:04 PM MST"

// replySubjectFallbacks supply a subject when the inbound message had none.
var replySubjectFallbacks = map[ReplyKind]string{
	ReplySlotOffer:        "Schedule your appointment",
	ReplyDeclined:         "Confirmation",
	ReplyDisambiguation:   "Quick clarification",
	ReplyAnswer:           "Your question",
	ReplyHandoff:          "We will get back to you",
	ReplyBookingConfirmed: "Your appointment is confirmed",
}

// ReplySubject keeps mail threading intact: it prefixes the inbound subject
// with Re: unless the chain already carries one, and falls back to a
// kind-specific subject when the inbound had none.
func ReplySubject(kind ReplyKind, inbound string) string {
	inbound = strings.TrimSpace(inbound)
	if inbound == "" {
		return replySubjectFallbacks[kind]
	}
	if strings.HasPrefix(strings.ToLower(inbound), "re:") {
		return inbound
	}
	return "Re: " + inbound
}

// OutreachSubject is the subject line for a scheduled outreach send.
func OutreachSubject(t Type, service string) string {
	if t == TypeAppointmentReminder {
		return "Appointment reminder"
	}
	return "Following up about " + serviceOrDefault(service)
}

// SlotOfferBody proposes numbered appointment times. exact is false when the
// patient asked for a time that was not open, which changes the lead-in.
func SlotOfferBody(patientName, service string, slots []time.Time, exact bool, loc *time.Location) string {
	name := displayName(patientName)
	service = serviceOrDefault(service)
	if loc == nil {
		loc = time.UTC
	}

	if len(slots) == 0 {
		return fmt.Sprintf(
			"Hi %s,\n\nThanks for your reply. I couldn't find any open times for %s in the next few days. Our scheduling team will reach out to find a time that works for you.\n\n%s",
			name, service, clinicSignature)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", name)
	if exact {
		fmt.Fprintf(&sb, "Thanks for your reply. I found these available times for %s:\n\n", service)
	} else {
		fmt.Fprintf(&sb, "I couldn't find an opening at the time you asked for, but here are the closest available times for %s:\n\n", service)
	}
	for i, slot := range slots {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, slot.In(loc).Format(slotDisplayLayout))
	}
	sb.WriteString("\nReply with the number of your preferred time.\n\n")
	sb.WriteString(clinicSignature)
	return sb.String()
}

// BookingConfirmedBody confirms the slot that was just locked in.
func BookingConfirmedBody(patientName string, start time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf(
		"Hi %s,\n\nYou're all set. Your appointment is confirmed for %s.\nIf you need to reschedule, just reply to this email.\n\n%s",
		displayName(patientName), start.In(loc).Format(reminderDisplayLayout), clinicSignature)
}

// DeclinedBody acknowledges an opt-out. It is the last automated message the
// patient receives for this campaign.
func DeclinedBody(patientName string) string {
	return fmt.Sprintf(
		"Hello %s,\n\nWe have received your message. You will not receive any further automated communications from us for this campaign.\nWe wish you all the best.",
		displayName(patientName))
}

// DisambiguationBody asks the patient to clarify and hands them the helpline.
func DisambiguationBody(patientName string) string {
	return fmt.Sprintf(
		"Hello %s,\n\nThank you for your reply. I was unable to understand your message clearly.\nTo ensure you get the help you need, please feel free to call our patient helpline directly at %s.\nOur team there will be happy to assist you.\n\nThank you.",
		displayName(patientName), patientHelpline)
}

// AnswerBody wraps a knowledge-base answer.
func AnswerBody(patientName, answer string) string {
	return fmt.Sprintf(
		"Hello %s,\n\nThank you for your question. Here is the information you requested:\n\n%s\n\nIf anything is unclear, feel free to reply to this email.",
		displayName(patientName), answer)
}

// HandoffBody tells the patient a human will pick the question up.
func HandoffBody(patientName string) string {
	return fmt.Sprintf(
		"Hello %s,\n\nThank you for your question. Our team will review it and get back to you shortly.",
		displayName(patientName))
}

// OutreachFallbackBody is the static outreach copy used when the model
// cannot draft one. appointmentAt names the booked time on reminders; it is
// ignored for the other campaign types.
func OutreachFallbackBody(t Type, patientName, service string, appointmentAt *time.Time, loc *time.Location) string {
	name := displayName(patientName)
	if loc == nil {
		loc = time.UTC
	}

	if t == TypeAppointmentReminder {
		when := ""
		if appointmentAt != nil {
			when = " on " + appointmentAt.In(loc).Format(reminderDisplayLayout)
		}
		return fmt.Sprintf(
			"Hi %s,\n\nThis is a friendly reminder about your upcoming appointment%s. If you need to reschedule, just reply to this email.\n\n%s",
			name, when, clinicSignature)
	}

	return fmt.Sprintf(
		"Hi %s,\n\nWe wanted to follow up about %s. If you'd like to get back on the schedule, just reply to this email and we'll find a time that works for you.\n\n%s",
		name, serviceOrDefault(service), clinicSignature)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return name
}

func serviceOrDefault(service string) string {
	service = strings.TrimSpace(service)
	if service == "" {
		return "your treatment"
	}
	return service
}
