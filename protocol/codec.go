// Package protocol encodes requests for the DSP relay and decodes its
// responses. The wire format is one JSON document per line, CRLF terminated.
// Requests are built with encoding/json so quotes and control characters in
// message text can never produce a malformed payload.
package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"

	apperrors "messenger-lab/errors"
)

// SuccessAck is the only acknowledgement the relay sends for an accepted
// direct message. Anything else means the send was not accepted.
const SuccessAck = "Direct message sent"

// RetrieveKind selects which mailbox slice a retrieve request asks for.
type RetrieveKind string

const (
	RetrieveNew RetrieveKind = "new"
	RetrieveAll RetrieveKind = "all"
)

type joinBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

type joinRequest struct {
	Join joinBody `json:"join"`
}

type directMessageBody struct {
	Entry     string `json:"entry"`
	Recipient string `json:"recipient"`
	Timestamp string `json:"timestamp"`
}

type sendRequest struct {
	Token         string            `json:"token"`
	DirectMessage directMessageBody `json:"directmessage"`
}

type retrieveRequest struct {
	Token         string `json:"token"`
	DirectMessage string `json:"directmessage"`
}

// EncodeJoin builds the authentication handshake. The token field is always
// empty: the relay fills it in on its side of the exchange.
func EncodeJoin(username, password string) ([]byte, error) {
	return json.Marshal(joinRequest{Join: joinBody{Username: username, Password: password}})
}

// EncodeSend builds a direct message request. The relay expects the timestamp
// as a stringified float, not a JSON number.
func EncodeSend(token, text, recipient string, timestamp float64) ([]byte, error) {
	return json.Marshal(sendRequest{
		Token: token,
		DirectMessage: directMessageBody{
			Entry:     text,
			Recipient: recipient,
			Timestamp: strconv.FormatFloat(timestamp, 'f', -1, 64),
		},
	})
}

func EncodeRetrieve(token string, kind RetrieveKind) ([]byte, error) {
	return json.Marshal(retrieveRequest{Token: token, DirectMessage: string(kind)})
}

// Incoming is a raw message record as the relay ships it. The recipient is
// implicit: retrieve responses only ever contain messages addressed to us.
type Incoming struct {
	Text      string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
	From      string  `json:"from"`
}

type responseBody struct {
	Type     string     `json:"type"`
	Token    string     `json:"token"`
	Message  string     `json:"message"`
	Messages []Incoming `json:"messages"`
}

type envelope struct {
	Response *responseBody `json:"response"`
}

func decode(line []byte) (*responseBody, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocol, err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("%w: missing response envelope", apperrors.ErrProtocol)
	}
	return env.Response, nil
}

// DecodeJoin extracts the response type tag and the session token.
func DecodeJoin(line []byte) (typ, token string, err error) {
	body, err := decode(line)
	if err != nil {
		return "", "", err
	}
	if body.Type == "" {
		return "", "", fmt.Errorf("%w: join response without type", apperrors.ErrProtocol)
	}
	return body.Type, body.Token, nil
}

// DecodeAck extracts the literal acknowledgement text of a send response.
// An empty or absent message field is returned as-is: judging it against
// SuccessAck is the caller's business, not a protocol failure.
func DecodeAck(line []byte) (string, error) {
	body, err := decode(line)
	if err != nil {
		return "", err
	}
	return body.Message, nil
}

// DecodeMessages extracts the raw message list of a retrieve response.
// A present-but-empty list is valid; an absent list is a protocol failure.
func DecodeMessages(line []byte) ([]Incoming, error) {
	body, err := decode(line)
	if err != nil {
		return nil, err
	}
	if body.Messages == nil {
		return nil, fmt.Errorf("%w: retrieve response without messages", apperrors.ErrProtocol)
	}
	return body.Messages, nil
}
