package repositories

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"messenger-lab/domain"
	apperrors "messenger-lab/errors"
)

// Argon2id parameters per OWASP recommendations.
const (
	sealMemory      = 64 * 1024 // KiB
	sealIterations  = 3
	sealParallelism = 2
	saltLength      = 16
)

type sealedBody struct {
	Salt  []byte
	Nonce []byte
	Body  []byte
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt,
		sealIterations, sealMemory, sealParallelism, chacha20poly1305.KeySize)
}

// seal encrypts the profile JSON under a key derived from the passphrase.
// The salt and nonce are fresh per save and stored next to the ciphertext.
func seal(profile domain.Profile, passphrase string) (sealedBody, error) {
	plain, err := json.Marshal(profile)
	if err != nil {
		return sealedBody{}, fmt.Errorf("encode profile: %w", err)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return sealedBody{}, fmt.Errorf("seal profile: %w", err)
	}
	aead, err := chacha20poly1305.New(deriveKey(passphrase, salt))
	if err != nil {
		return sealedBody{}, fmt.Errorf("seal profile: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return sealedBody{}, fmt.Errorf("seal profile: %w", err)
	}

	return sealedBody{
		Salt:  salt,
		Nonce: nonce,
		Body:  aead.Seal(nil, nonce, plain, nil),
	}, nil
}

// openSealed decrypts a sealed profile body. A wrong passphrase is not
// distinguishable from a damaged file, so both surface as corruption.
func openSealed(file profileFile, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: profile is sealed and no passphrase is configured",
			apperrors.ErrProfileCorrupt)
	}
	if len(file.Salt) != saltLength || len(file.Nonce) == 0 {
		return nil, fmt.Errorf("%w: missing key material", apperrors.ErrProfileCorrupt)
	}
	aead, err := chacha20poly1305.New(deriveKey(passphrase, file.Salt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProfileCorrupt, err)
	}
	if len(file.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce", apperrors.ErrProfileCorrupt)
	}
	plain, err := aead.Open(nil, file.Nonce, file.Body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProfileCorrupt, err)
	}
	return plain, nil
}
