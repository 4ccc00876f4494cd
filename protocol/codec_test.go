package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "messenger-lab/errors"
)

func Test_EncodeJoin_Shape(t *testing.T) {
	req := require.New(t)
	payload, err := EncodeJoin("alice", "hunter2")
	req.NoError(err)
	req.JSONEq(`{"join": {"username": "alice", "password": "hunter2", "token": ""}}`, string(payload))
}

func Test_EncodeSend_Shape(t *testing.T) {
	req := require.New(t)
	payload, err := EncodeSend("tok-1", "Hello World!", "ohhimark", 1603167689.3928561)
	req.NoError(err)

	var decoded struct {
		Token         string `json:"token"`
		DirectMessage struct {
			Entry     string `json:"entry"`
			Recipient string `json:"recipient"`
			Timestamp string `json:"timestamp"`
		} `json:"directmessage"`
	}
	req.NoError(json.Unmarshal(payload, &decoded))
	req.Equal("tok-1", decoded.Token)
	req.Equal("Hello World!", decoded.DirectMessage.Entry)
	req.Equal("ohhimark", decoded.DirectMessage.Recipient)
	req.Equal("1603167689.3928561", decoded.DirectMessage.Timestamp)
}

func Test_EncodeSend_Escapes_Hostile_Text(t *testing.T) {
	req := require.New(t)
	hostile := `she said "bye", then {"left"}` + "\r\n"
	payload, err := EncodeSend("tok", hostile, "bob", 1.5)
	req.NoError(err)

	// The payload itself must stay one parseable JSON document with the
	// text intact, whatever the user typed.
	var decoded struct {
		DirectMessage struct {
			Entry string `json:"entry"`
		} `json:"directmessage"`
	}
	req.NoError(json.Unmarshal(payload, &decoded))
	req.Equal(hostile, decoded.DirectMessage.Entry)
}

func Test_EncodeRetrieve_Kinds(t *testing.T) {
	req := require.New(t)
	payload, err := EncodeRetrieve("tok", RetrieveNew)
	req.NoError(err)
	req.JSONEq(`{"token": "tok", "directmessage": "new"}`, string(payload))

	payload, err = EncodeRetrieve("tok", RetrieveAll)
	req.NoError(err)
	req.JSONEq(`{"token": "tok", "directmessage": "all"}`, string(payload))
}

func Test_DecodeJoin(t *testing.T) {
	req := require.New(t)
	typ, token, err := DecodeJoin([]byte(`{"response": {"type": "ok", "token": "abc"}}`))
	req.NoError(err)
	req.Equal("ok", typ)
	req.Equal("abc", token)

	typ, _, err = DecodeJoin([]byte(`{"response": {"type": "error", "message": "Invalid password or username."}}`))
	req.NoError(err)
	req.Equal("error", typ)
}

func Test_DecodeAck(t *testing.T) {
	req := require.New(t)
	ack, err := DecodeAck([]byte(`{"response": {"message": "Direct message sent"}}`))
	req.NoError(err)
	req.Equal(SuccessAck, ack)

	// A response without a message field is still well-formed; judging the
	// ack text is the messenger's job.
	ack, err = DecodeAck([]byte(`{"response": {"type": "error"}}`))
	req.NoError(err)
	req.Empty(ack)
}

func Test_DecodeMessages(t *testing.T) {
	req := require.New(t)
	line := `{"response": {"type": "ok", "messages": [
		{"message": "yo", "timestamp": 1603167689.39, "from": "bob"},
		{"message": "sup", "timestamp": 1603167699.01, "from": "carol"}
	]}}`
	messages, err := DecodeMessages([]byte(line))
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("bob", messages[0].From)
	req.Equal("yo", messages[0].Text)
	req.InDelta(1603167689.39, messages[0].Timestamp, 1e-9)

	messages, err = DecodeMessages([]byte(`{"response": {"type": "ok", "messages": []}}`))
	req.NoError(err)
	req.Empty(messages)
}

func Test_Decode_Failures_Are_Loud(t *testing.T) {
	req := require.New(t)

	_, _, err := DecodeJoin([]byte("not json at all"))
	req.ErrorIs(err, apperrors.ErrProtocol)

	_, _, err = DecodeJoin([]byte(`{"unrelated": true}`))
	req.ErrorIs(err, apperrors.ErrProtocol)

	_, _, err = DecodeJoin([]byte(`{"response": {"token": "abc"}}`))
	req.ErrorIs(err, apperrors.ErrProtocol)

	_, err = DecodeAck([]byte(`{`))
	req.ErrorIs(err, apperrors.ErrProtocol)

	// A retrieve response with no messages list must never be mistaken
	// for an empty mailbox.
	_, err = DecodeMessages([]byte(`{"response": {"type": "ok"}}`))
	req.ErrorIs(err, apperrors.ErrProtocol)
}
