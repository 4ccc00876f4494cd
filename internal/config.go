package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config is the full environment surface of the messenger binary.
type Config struct {
	ServerHost string `env:"DSP_SERVER_HOST,default=168.235.86.101" validate:"required"`
	ServerPort int    `env:"DSP_SERVER_PORT,default=3021" validate:"gt=0,lte=65535"`

	Username string `env:"DSP_USERNAME,required=true" validate:"required"`
	Password string `env:"DSP_PASSWORD,required=true" validate:"required"`

	ProfilePath string `env:"PROFILE_PATH,default=messenger.dsu" validate:"required"`
	// ProfilePassphrase, when set, seals the profile file at rest.
	ProfilePassphrase string `env:"PROFILE_PASSPHRASE"`

	SyncInterval      time.Duration `env:"SYNC_INTERVAL,default=2s" validate:"gt=0"`
	DialTimeout       time.Duration `env:"DIAL_TIMEOUT,default=5s" validate:"gt=0"`
	IOTimeout         time.Duration `env:"IO_TIMEOUT,default=10s" validate:"gt=0"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=30s" validate:"gt=0"`

	// CensoredWords is a comma-separated word list; empty disables moderation.
	CensoredWords     string `env:"CENSORED_WORDS"`
	CensorReplacement string `env:"CENSOR_REPLACEMENT,default=*"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`
}

func (c Config) Validate() error {
	return validate.Struct(c)
}

// CensoredWordList splits the configured word list, dropping empty entries.
func (c Config) CensoredWordList() []string {
	var words []string
	for _, word := range strings.Split(c.CensoredWords, ",") {
		if trimmed := strings.TrimSpace(word); trimmed != "" {
			words = append(words, trimmed)
		}
	}
	return words
}

// CharacterRune enforces that a replacement setting is one single character.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
