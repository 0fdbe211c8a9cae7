package campaign

import (
	"time"

	"github.com/brightsmile/outreach/internal/intent"
)

// ReplyKind selects the outbound template used to answer a patient reply.
type ReplyKind string

const (
	ReplySlotOffer      ReplyKind = "slot_offer"
	ReplyDeclined       ReplyKind = "declined"
	ReplyDisambiguation ReplyKind = "disambiguation"
	ReplyAnswer         ReplyKind = "answer"
	ReplyHandoff        ReplyKind = "handoff"

	// ReplyBookingConfirmed is produced by the booking path, never by Route.
	ReplyBookingConfirmed ReplyKind = "booking_confirmed"
)

// Disposition is the routing outcome for one inbound reply: the lifecycle
// event to apply and the kind of response to send back.
type Disposition struct {
	Event     Event
	ReplyKind ReplyKind

	// Answer carries the knowledge-base answer when ReplyKind is ReplyAnswer.
	Answer string
	// RequestedTime carries the patient's stated time preference on a
	// booking request, when the reply named one.
	RequestedTime *time.Time
}

// Route maps a classified reply onto a lifecycle event and a response kind.
// Questions the knowledge base could not answer go to staff no matter where
// the campaign stands. Replies the classifier could not make sense of ask
// the patient to clarify and keep the campaign waiting.
func Route(cls intent.Classification, answer string, answerFound bool) Disposition {
	switch cls.Intent {
	case intent.BookingRequest:
		return Disposition{
			Event:         EventBookingRequested,
			ReplyKind:     ReplySlotOffer,
			RequestedTime: cls.RequestedTime,
		}
	case intent.ServiceDenial:
		return Disposition{Event: EventDeclined, ReplyKind: ReplyDeclined}
	case intent.Question:
		if answerFound {
			return Disposition{Event: EventQuestionAnswered, ReplyKind: ReplyAnswer, Answer: answer}
		}
		return Disposition{Event: EventHandoffRequired, ReplyKind: ReplyHandoff}
	}
	return Disposition{Event: EventUnclearReply, ReplyKind: ReplyDisambiguation}
}
