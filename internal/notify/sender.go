package notify

import (
	"context"
	"fmt"

	"github.com/brightsmile/outreach/pkg/logging"
)

// Channel selects the delivery medium for a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelVoice Channel = "voice"
)

// Message is one outbound communication to a patient.
type Message struct {
	Channel Channel
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender delivers messages. Implementations can be swapped (SES, SendGrid,
// voice, stub) without changing callers. A returned error means the message
// was not delivered and the caller must not advance any campaign state.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher routes messages to the sender registered for their channel.
type Dispatcher struct {
	senders map[Channel]Sender
	logger  *logging.Logger
}

// NewDispatcher creates an empty dispatcher; register channels with Register.
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		senders: make(map[Channel]Sender),
		logger:  logger,
	}
}

// Register binds a sender to a channel. Nil senders are ignored so optional
// construction results can be passed straight through.
func (d *Dispatcher) Register(ch Channel, s Sender) *Dispatcher {
	if s != nil {
		d.senders[ch] = s
	}
	return d
}

// Send delivers the message over its channel's sender.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	ch := msg.Channel
	if ch == "" {
		ch = ChannelEmail
	}
	sender, ok := d.senders[ch]
	if !ok {
		return fmt.Errorf("notify: no sender registered for channel %q", ch)
	}
	return sender.Send(ctx, msg)
}

var _ Sender = (*Dispatcher)(nil)

// StubSender logs instead of sending; used in development and tests.
type StubSender struct {
	logger *logging.Logger
}

func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{logger: logger}
}

func (s *StubSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("stub sender: would send message", "channel", msg.Channel, "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ Sender = (*StubSender)(nil)
