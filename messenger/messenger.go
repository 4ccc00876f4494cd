//go:generate go run go.uber.org/mock/mockgen -source=messenger.go -destination=../mocks/mock_messenger.go -package=mocks

// Package messenger is the client API for the DSP relay. Every public
// operation pays a full connect + join round trip: the relay's tokens only
// live as long as one TCP connection, so there is nothing to pool or reuse.
package messenger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"messenger-lab/domain"
	apperrors "messenger-lab/errors"
	"messenger-lab/protocol"
)

type Messenger interface {
	Send(ctx context.Context, text, recipient string) (SendReceipt, error)
	RetrieveNew(ctx context.Context) ([]domain.Message, error)
	RetrieveAll(ctx context.Context) ([]domain.Message, error)
}

// SendReceipt is the discriminated result of a send operation. Accepted is
// true iff the relay acknowledged with the exact success literal; on failure
// the error tells connection, authentication, protocol and rejection apart.
type SendReceipt struct {
	Accepted bool
	Message  domain.Message
}

type DirectMessenger struct {
	endpoint Endpoint
	username string
	password string
	log      *slog.Logger

	mu   sync.Mutex
	sent []domain.Message
}

func New(endpoint Endpoint, username, password string, log *slog.Logger) *DirectMessenger {
	return &DirectMessenger{endpoint: endpoint, username: username, password: password, log: log}
}

func (m *DirectMessenger) Username() string {
	return m.username
}

// Send delivers one direct message. The constructed Message is returned in
// the receipt so the caller can merge it into the profile; persisting it is
// the caller's responsibility, not this component's.
func (m *DirectMessenger) Send(ctx context.Context, text, recipient string) (SendReceipt, error) {
	msg := domain.NewMessage(text, m.username, recipient)

	sess, err := dialSession(ctx, m.endpoint)
	if err != nil {
		return SendReceipt{}, err
	}
	defer sess.Close()

	if err := sess.join(m.username, m.password); err != nil {
		return SendReceipt{}, err
	}

	payload, err := protocol.EncodeSend(sess.token, msg.Text, msg.To, msg.Timestamp)
	if err != nil {
		return SendReceipt{}, err
	}
	line, err := sess.roundTrip(payload)
	if err != nil {
		return SendReceipt{}, err
	}
	ack, err := protocol.DecodeAck(line)
	if err != nil {
		return SendReceipt{}, err
	}
	if ack != protocol.SuccessAck {
		return SendReceipt{Message: msg}, fmt.Errorf("%w: relay said %q", apperrors.ErrRejected, ack)
	}

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.log.Debug("Message accepted by relay", "recipient", recipient)
	return SendReceipt{Accepted: true, Message: msg}, nil
}

// RetrieveNew fetches messages the relay has not handed out before.
func (m *DirectMessenger) RetrieveNew(ctx context.Context) ([]domain.Message, error) {
	return m.retrieve(ctx, protocol.RetrieveNew)
}

// RetrieveAll fetches every message the relay holds for this account.
func (m *DirectMessenger) RetrieveAll(ctx context.Context) ([]domain.Message, error) {
	return m.retrieve(ctx, protocol.RetrieveAll)
}

// retrieve returns messages in whatever order the relay sent them. Sorting
// is the projection's job, not the transport's.
func (m *DirectMessenger) retrieve(ctx context.Context, kind protocol.RetrieveKind) ([]domain.Message, error) {
	sess, err := dialSession(ctx, m.endpoint)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := sess.join(m.username, m.password); err != nil {
		return nil, err
	}

	payload, err := protocol.EncodeRetrieve(sess.token, kind)
	if err != nil {
		return nil, err
	}
	line, err := sess.roundTrip(payload)
	if err != nil {
		return nil, err
	}
	raw, err := protocol.DecodeMessages(line)
	if err != nil {
		return nil, err
	}

	return lo.Map(raw, func(in protocol.Incoming, _ int) domain.Message {
		return domain.Message{
			Text:      in.Text,
			Timestamp: in.Timestamp,
			From:      in.From,
			To:        m.username,
		}
	}), nil
}

// SentLog is a copy of the messages this instance delivered successfully.
func (m *DirectMessenger) SentLog() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.sent...)
}
