package repositories

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"messenger-lab/domain"
	apperrors "messenger-lab/errors"
)

func testMessages() []domain.Message {
	return []domain.Message{
		{Text: "hi bob", Timestamp: 1603167689.39, From: "alice", To: "bob"},
		{Text: "hey alice", Timestamp: 1603167699.01, From: "bob", To: "alice"},
	}
}

func Test_Save_Load_Roundtrip_Plain(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "alice.dsu")

	repo := NewProfileRepository(path, "", slog.Default())
	req.NoError(repo.Create("alice", "hunter2"))
	for _, msg := range testMessages() {
		req.True(repo.AddMessage(msg))
	}
	repo.AddContact("zed")
	req.NoError(repo.Save())

	reloaded := NewProfileRepository(path, "", slog.Default())
	req.NoError(reloaded.Load())
	snapshot := reloaded.Snapshot()
	req.Equal("alice", snapshot.Username)
	req.Equal("hunter2", snapshot.Password)
	req.Equal(testMessages(), snapshot.Messages)
	req.Equal([]string{"zed"}, snapshot.Contacts)
}

func Test_Save_Load_Roundtrip_Sealed(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "alice.dsu")

	repo := NewProfileRepository(path, "correct horse battery", slog.Default())
	req.NoError(repo.Create("alice", "hunter2"))
	for _, msg := range testMessages() {
		req.True(repo.AddMessage(msg))
	}
	req.NoError(repo.Save())

	// Credentials never appear in clear on disk.
	raw, err := os.ReadFile(path)
	req.NoError(err)
	req.NotContains(string(raw), "hunter2")
	req.NotContains(string(raw), "alice")

	reloaded := NewProfileRepository(path, "correct horse battery", slog.Default())
	req.NoError(reloaded.Load())
	snapshot := reloaded.Snapshot()
	req.Equal("alice", snapshot.Username)
	req.Equal("hunter2", snapshot.Password)
	req.Equal(testMessages(), snapshot.Messages)
}

func Test_Load_Sealed_With_Wrong_Passphrase(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "alice.dsu")

	repo := NewProfileRepository(path, "right", slog.Default())
	req.NoError(repo.Create("alice", "hunter2"))

	wrong := NewProfileRepository(path, "wrong", slog.Default())
	req.ErrorIs(wrong.Load(), apperrors.ErrProfileCorrupt)

	missing := NewProfileRepository(path, "", slog.Default())
	req.ErrorIs(missing.Load(), apperrors.ErrProfileCorrupt)
}

func Test_Load_Missing_File(t *testing.T) {
	repo := NewProfileRepository(filepath.Join(t.TempDir(), "nope.dsu"), "", slog.Default())
	require.ErrorIs(t, repo.Load(), apperrors.ErrProfileNotFound)
}

func Test_Load_Corrupt_File(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "broken.dsu")

	req.NoError(os.WriteFile(path, []byte("{ not json"), 0o600))
	repo := NewProfileRepository(path, "", slog.Default())
	req.ErrorIs(repo.Load(), apperrors.ErrProfileCorrupt)

	// Parseable JSON without a profile body is corruption too.
	req.NoError(os.WriteFile(path, []byte(`{"version": 1}`), 0o600))
	req.ErrorIs(repo.Load(), apperrors.ErrProfileCorrupt)

	// So is a profile missing its credentials.
	req.NoError(os.WriteFile(path, []byte(`{"version": 1, "profile": {"username": "alice"}}`), 0o600))
	req.ErrorIs(repo.Load(), apperrors.ErrProfileCorrupt)
}

func Test_Save_Leaves_No_Temp_Files(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "alice.dsu")

	repo := NewProfileRepository(path, "", slog.Default())
	req.NoError(repo.Create("alice", "hunter2"))
	repo.AddMessage(testMessages()[0])
	req.NoError(repo.Save())
	req.NoError(repo.Save())

	entries, err := os.ReadDir(dir)
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal("alice.dsu", entries[0].Name())

	// Whatever is at path parses: the rename is the commit point.
	raw, err := os.ReadFile(path)
	req.NoError(err)
	var file map[string]any
	req.NoError(json.Unmarshal(raw, &file))
}

func Test_AddMessage_Persisted_Dedup(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "alice.dsu")

	repo := NewProfileRepository(path, "", slog.Default())
	req.NoError(repo.Create("alice", "hunter2"))

	msg := testMessages()[0]
	req.True(repo.AddMessage(msg))
	req.False(repo.AddMessage(msg))
	req.NoError(repo.Save())

	reloaded := NewProfileRepository(path, "", slog.Default())
	req.NoError(reloaded.Load())
	req.Len(reloaded.Snapshot().Messages, 1)
	// Polling the same server-side message again after a restart still
	// inserts nothing.
	req.False(reloaded.AddMessage(msg))
}
