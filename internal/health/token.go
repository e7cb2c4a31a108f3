package health

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	// TokenLifetime is how long a provider refresh token stays valid.
	TokenLifetime = 365 * 24 * time.Hour

	// DefaultTokenSoftExpiry marks the token degraded once most of its
	// lifetime has elapsed, leaving time to re-authorize before it dies.
	DefaultTokenSoftExpiry = 300 * 24 * time.Hour
)

// tokenFile is the on-disk shape of the encrypted OAuth token store.
// Plaintext token fields must never appear at the top level.
type tokenFile struct {
	Ciphertext  string    `json:"ciphertext"`
	Nonce       string    `json:"nonce"`
	SavedAt     time.Time `json:"savedAt"`
	AccessToken string    `json:"access_token,omitempty"` // present only in legacy plaintext files
}

// TokenProbeConfig holds configuration for the OAuth token probe.
type TokenProbeConfig struct {
	// Path is the token file location.
	// Default: $HOME/.glassfeed/tokens.json
	Path string

	// SoftExpiry is the token age past which the probe reports degraded.
	SoftExpiry time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// TokenProbe validates the encrypted OAuth token file used to talk to
// the feed provider.
type TokenProbe struct {
	path       string
	softExpiry time.Duration
	now        func() time.Time
}

// NewTokenProbe creates an OAuth token file probe.
func NewTokenProbe(cfg TokenProbeConfig) *TokenProbe {
	path := cfg.Path
	if path == "" {
		path = DefaultTokenPath()
	}
	softExpiry := cfg.SoftExpiry
	if softExpiry == 0 {
		softExpiry = DefaultTokenSoftExpiry
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenProbe{path: path, softExpiry: softExpiry, now: now}
}

// Name implements Probe.
func (p *TokenProbe) Name() string { return "oauth" }

// Check validates presence, encryption, and age of the token file.
func (p *TokenProbe) Check(_ context.Context) Result {
	start := p.now()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{
				Status:   StatusUnhealthy,
				Message:  "token file not found",
				Duration: p.now().Sub(start),
			}
		}
		return Result{
			Status:   StatusUnhealthy,
			Message:  "token file unreadable: " + err.Error(),
			Duration: p.now().Sub(start),
		}
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return Result{
			Status:   StatusUnhealthy,
			Message:  "token file is corrupt",
			Duration: p.now().Sub(start),
		}
	}

	if tf.AccessToken != "" || tf.Ciphertext == "" {
		return Result{
			Status:   StatusUnhealthy,
			Message:  "token file is not encrypted",
			Duration: p.now().Sub(start),
		}
	}

	age := p.now().Sub(tf.SavedAt)
	if tf.SavedAt.IsZero() {
		// Fall back to the file modification time for older files.
		if info, statErr := os.Stat(p.path); statErr == nil {
			age = p.now().Sub(info.ModTime())
		}
	}

	details := map[string]interface{}{
		"tokenAgeDays": int(age.Hours() / 24),
	}

	if age > p.softExpiry {
		remaining := TokenLifetime - age
		return Result{
			Status:   StatusDegraded,
			Message:  fmt.Sprintf("token expires in %d days, re-authorization recommended", int(remaining.Hours()/24)),
			Duration: p.now().Sub(start),
			Details:  details,
		}
	}

	return Result{
		Status:   StatusHealthy,
		Message:  "token valid",
		Duration: p.now().Sub(start),
		Details:  details,
	}
}
