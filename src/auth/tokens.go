package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// NewToken returns an opaque bearer token. Dashes are stripped so tokens are
// safe in headers, query strings and logs.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
