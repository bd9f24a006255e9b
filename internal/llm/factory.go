package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/common"
)

// Config holds configuration for remote classifier clients.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Endpoint    string // Override for tests and proxies
	Timeout     time.Duration
	RateLimit   int // Requests per minute
	Temperature float64
	MaxTokens   int
}

// New creates a remote classifier client for the configured provider,
// wrapped with rate limiting and a circuit breaker.
func New(cfg Config) (Client, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported classifier provider: %s", common.ErrConfiguration, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier client: %w", err)
	}

	return newBreakerClient(newRateLimitedClient(client, cfg.RateLimit)), nil
}
