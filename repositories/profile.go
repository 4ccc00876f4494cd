//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=../mocks/mock_profile_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"messenger-lab/domain"
	apperrors "messenger-lab/errors"
)

// fileVersion guards the on-disk layout; bump it when the shape changes.
const fileVersion = 1

var validate = validator.New()

type IProfileRepository interface {
	Load() error
	Save() error
	AddMessage(msg domain.Message) bool
	AddContact(username string) bool
	Contacts() []string
	ChatMessages(contact string) []domain.Message
	Snapshot() domain.Profile
}

// ProfileRepository owns the persisted profile aggregate. All mutation goes
// through its mutex, so workers and the interactive loop can share it.
type ProfileRepository struct {
	path       string
	passphrase string
	log        *slog.Logger

	mu      sync.RWMutex
	profile domain.Profile
}

// NewProfileRepository binds a repository to a profile file. An empty
// passphrase keeps the file plain JSON; a non-empty one seals it at rest.
func NewProfileRepository(path, passphrase string, log *slog.Logger) *ProfileRepository {
	return &ProfileRepository{path: path, passphrase: passphrase, log: log}
}

// profileFile is the on-disk envelope. Plain profiles live in the profile
// field; sealed ones carry the encrypted JSON body plus its key material.
type profileFile struct {
	Version int             `json:"version"`
	Sealed  bool            `json:"sealed"`
	Salt    []byte          `json:"salt,omitempty"`
	Nonce   []byte          `json:"nonce,omitempty"`
	Body    []byte          `json:"body,omitempty"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

// Create initializes a fresh profile and persists it immediately.
func (r *ProfileRepository) Create(username, password string) error {
	r.mu.Lock()
	r.profile = domain.NewProfile(username, password)
	r.mu.Unlock()
	return r.Save()
}

// Load reads the profile file back into memory. A missing file and an
// unreadable one are distinct failures, so the caller can offer "create new
// profile" instead of treating every problem as corruption.
func (r *ProfileRepository) Load() error {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", apperrors.ErrProfileNotFound, r.path)
	}
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	var file profileFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrProfileCorrupt, err)
	}

	var profile domain.Profile
	switch {
	case file.Sealed:
		body, err := openSealed(file, r.passphrase)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &profile); err != nil {
			return fmt.Errorf("%w: sealed body: %v", apperrors.ErrProfileCorrupt, err)
		}
	case file.Profile != nil:
		profile = *file.Profile
	default:
		return fmt.Errorf("%w: no profile body", apperrors.ErrProfileCorrupt)
	}

	if err := validate.Struct(profile); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrProfileCorrupt, err)
	}

	r.mu.Lock()
	r.profile = profile
	r.mu.Unlock()
	return nil
}

// Save writes the full profile, atomically enough that a crash mid-write can
// never leave a file at path that fails to parse: the bytes go to a uniquely
// named temp file in the same directory, fsynced, then renamed over path.
func (r *ProfileRepository) Save() error {
	r.mu.RLock()
	profile := r.profile
	r.mu.RUnlock()

	file := profileFile{Version: fileVersion}
	if r.passphrase != "" {
		sealed, err := seal(profile, r.passphrase)
		if err != nil {
			return err
		}
		file.Sealed = true
		file.Salt = sealed.Salt
		file.Nonce = sealed.Nonce
		file.Body = sealed.Body
	} else {
		file.Profile = &profile
	}

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(r.path),
		fmt.Sprintf(".%s.%s", filepath.Base(r.path), uuid.NewString()))
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write profile: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync profile: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close profile: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) AddMessage(msg domain.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile.AddMessage(msg)
}

func (r *ProfileRepository) AddContact(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile.AddContact(username)
}

func (r *ProfileRepository) Contacts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profile.ContactSet()
}

func (r *ProfileRepository) ChatMessages(contact string) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profile.ChatMessages(contact)
}

// Snapshot returns a copy the caller can read without holding the lock.
func (r *ProfileRepository) Snapshot() domain.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	copied := r.profile
	copied.Messages = append([]domain.Message(nil), r.profile.Messages...)
	copied.Contacts = append([]string(nil), r.profile.Contacts...)
	return copied
}
