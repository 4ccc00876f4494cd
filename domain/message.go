// Package domain contains core concepts of the messenger.
// This file defines the direct message record and its rules.
// Messages are immutable once constructed.
package domain

import (
	"math"
	"time"
)

// Message is a single direct message between two users. There is no server-side
// identifier: two messages are the same record iff all four fields are equal.
type Message struct {
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"` // seconds since epoch, fractional
	From      string  `json:"from"`
	To        string  `json:"to"`
}

// NewMessage stamps an outgoing message with the current time.
func NewMessage(text, from, to string) Message {
	return Message{
		Text:      text,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		From:      from,
		To:        to,
	}
}

// Counterpart returns the other side of the conversation as seen by owner.
func (m Message) Counterpart(owner string) string {
	if m.From == owner {
		return m.To
	}
	return m.From
}

// Involves reports whether user is the sender or the recipient.
func (m Message) Involves(user string) bool {
	return m.From == user || m.To == user
}

// Time converts the wire timestamp into a time.Time for display.
func (m Message) Time() time.Time {
	sec, frac := math.Modf(m.Timestamp)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
