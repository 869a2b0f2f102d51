package billing

import (
	"errors"
	"strings"
	"time"
)

// StripeConfig contains configuration for Stripe provider.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...)
	APIKey string

	// WebhookSecret is the signing secret (whsec_...) for the storefront
	// webhook endpoint.
	WebhookSecret string

	// MaxRetries is the number of network retries stripe-go performs.
	MaxRetries int

	// Timeout bounds every Stripe HTTP call. A timed out call is a
	// retryable failure, never a partial success.
	Timeout time.Duration
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return ErrInvalidAPIKey
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe: webhook secret is required")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_") || strings.HasPrefix(c.APIKey, "rk_test_")
}

func (c *StripeConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 20 * time.Second
	}
	return c.Timeout
}
