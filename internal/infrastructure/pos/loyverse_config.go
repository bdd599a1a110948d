package pos

import "errors"

// LoyverseProductionAPIURL is the production API endpoint
const LoyverseProductionAPIURL = "https://api.loyverse.com/v1.0"

// Errors for Loyverse configuration
var (
	ErrLoyverseConfigMissingAPIKey = errors.New("loyverse: API key is required")
)

// LoyverseConfig holds configuration for Loyverse API integration
type LoyverseConfig struct {
	// APIKey is the personal access token from the Loyverse back office
	APIKey string
	// APIBaseURL is the base URL for the Loyverse API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// PageSize is the number of receipts requested per page
	PageSize int
}

// NewLoyverseConfig creates a new Loyverse configuration with defaults
func NewLoyverseConfig(apiKey string) *LoyverseConfig {
	return &LoyverseConfig{
		APIKey:         apiKey,
		APIBaseURL:     LoyverseProductionAPIURL,
		TimeoutSeconds: 30,
		PageSize:       100,
	}
}

// Validate validates the Loyverse configuration
func (c *LoyverseConfig) Validate() error {
	if c.APIKey == "" {
		return ErrLoyverseConfigMissingAPIKey
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = LoyverseProductionAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.PageSize <= 0 || c.PageSize > 250 {
		c.PageSize = 100
	}
	return nil
}
