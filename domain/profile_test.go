package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_AddMessage_Deduplicates_On_All_Fields(t *testing.T) {
	req := require.New(t)
	profile := NewProfile("alice", "hunter2")

	msg := Message{Text: "yo", Timestamp: 1603167689.39, From: "bob", To: "alice"}
	req.True(profile.AddMessage(msg))
	req.False(profile.AddMessage(msg))
	req.Len(profile.Messages, 1)

	// One differing field makes it a different record.
	other := msg
	other.Timestamp += 0.001
	req.True(profile.AddMessage(other))
	req.Len(profile.Messages, 2)
}

func Test_AddContact_Idempotent(t *testing.T) {
	req := require.New(t)
	profile := NewProfile("alice", "hunter2")

	req.True(profile.AddContact("bob"))
	req.False(profile.AddContact("bob"))
	req.False(profile.AddContact(""))
	req.False(profile.AddContact("alice")) // never your own contact
	req.Equal([]string{"bob"}, profile.Contacts)
}

func Test_ContactSet_Unions_Explicit_And_Counterparts(t *testing.T) {
	req := require.New(t)
	profile := NewProfile("alice", "hunter2")
	profile.AddContact("zed")

	profile.AddMessage(Message{Text: "hi", Timestamp: 1, From: "alice", To: "bob"})
	profile.AddMessage(Message{Text: "yo", Timestamp: 2, From: "carol", To: "alice"})
	profile.AddMessage(Message{Text: "again", Timestamp: 3, From: "bob", To: "alice"})

	req.Equal([]string{"bob", "carol", "zed"}, profile.ContactSet())
}

func Test_ChatMessages_Filters_By_Counterpart(t *testing.T) {
	req := require.New(t)
	profile := NewProfile("alice", "hunter2")
	sent := Message{Text: "hi", Timestamp: 1, From: "alice", To: "bob"}
	received := Message{Text: "yo", Timestamp: 2, From: "bob", To: "alice"}
	noise := Message{Text: "hm", Timestamp: 3, From: "carol", To: "alice"}
	profile.AddMessage(sent)
	profile.AddMessage(received)
	profile.AddMessage(noise)

	req.Equal([]Message{sent, received}, profile.ChatMessages("bob"))
}

func Test_Message_Counterpart(t *testing.T) {
	req := require.New(t)
	msg := Message{From: "alice", To: "bob"}
	req.Equal("bob", msg.Counterpart("alice"))
	req.Equal("alice", msg.Counterpart("bob"))
}
