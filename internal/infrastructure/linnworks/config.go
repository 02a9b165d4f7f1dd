package linnworks

import "errors"

// LinnworksConfig holds credentials and endpoints for the Linnworks order
// management API.
type LinnworksConfig struct {
	// ApplicationID is the application id from the developer portal
	ApplicationID string
	// ApplicationSecret is the application secret
	ApplicationSecret string
	// InstallToken is the long-lived token granted on app install
	InstallToken string
	// AuthBaseURL is the base URL of the auth server
	AuthBaseURL string
	// OpenOrdersViewID is the saved open-orders view to page through
	OpenOrdersViewID int
	// LocationID is the fulfilment location to pull open orders for
	LocationID string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// PageSize is the page size for order requests
	PageSize int
	// MaxItems caps how many orders one aggregate fetch may return
	MaxItems int
}

// LinnworksAuthBaseURL is the production auth server.
const LinnworksAuthBaseURL = "https://api.linnworks.net"

// Errors for Linnworks configuration
var (
	ErrConfigMissingApplicationID     = errors.New("linnworks: application id is required")
	ErrConfigMissingApplicationSecret = errors.New("linnworks: application secret is required")
	ErrConfigMissingInstallToken      = errors.New("linnworks: install token is required")
)

// NewLinnworksConfig creates a configuration with defaults.
func NewLinnworksConfig(applicationID, applicationSecret, installToken string) *LinnworksConfig {
	return &LinnworksConfig{
		ApplicationID:     applicationID,
		ApplicationSecret: applicationSecret,
		InstallToken:      installToken,
		AuthBaseURL:       LinnworksAuthBaseURL,
		TimeoutSeconds:    30,
		PageSize:          200,
		MaxItems:          10000,
	}
}

// Validate validates the configuration and fills in defaults.
func (c *LinnworksConfig) Validate() error {
	if c.ApplicationID == "" {
		return ErrConfigMissingApplicationID
	}
	if c.ApplicationSecret == "" {
		return ErrConfigMissingApplicationSecret
	}
	if c.InstallToken == "" {
		return ErrConfigMissingInstallToken
	}
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = LinnworksAuthBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.PageSize <= 0 || c.PageSize > 500 {
		c.PageSize = 200
	}
	if c.MaxItems <= 0 {
		c.MaxItems = 10000
	}
	return nil
}
