// Package env models the deployment environment and the credential
// naming convention derived from it. Each environment maps to a prefix
// (DEV, TEST, STAGING, PROD) used to locate market API credentials in
// the process environment.
package env

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment identifies a deployment environment.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ErrInvalidEnvironment is returned by Parse for unrecognized input.
// Unlike service failures this propagates to the caller: an unknown
// environment name is configuration misuse, not a runtime fault.
var ErrInvalidEnvironment = errors.New("invalid environment")

// Parse converts a string into an Environment. Matching is
// case-insensitive and accepts the common short aliases.
func Parse(text string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "dev", "development":
		return Development, nil
	case "test", "testing":
		return Test, nil
	case "staging", "stage":
		return Staging, nil
	case "prod", "production":
		return Production, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEnvironment, text)
	}
}

// String makes Environment satisfy the fmt.Stringer interface.
func (e Environment) String() string {
	return string(e)
}

// CredentialPrefix returns the environment-variable prefix for this
// environment's market credentials.
func (e Environment) CredentialPrefix() string {
	switch e {
	case Development:
		return "DEV"
	case Test:
		return "TEST"
	case Staging:
		return "STAGING"
	case Production:
		return "PROD"
	default:
		return "DEV"
	}
}

// APIKeyVar returns the name of the API key environment variable.
func (e Environment) APIKeyVar() string {
	return e.CredentialPrefix() + "_API_KEY"
}

// PrivateKeyPathVar returns the name of the private key path variable.
func (e Environment) PrivateKeyPathVar() string {
	return e.CredentialPrefix() + "_PRIVATE_KEY_PATH"
}

// APIKey returns the configured market API key, or "" when unset.
func (e Environment) APIKey() string {
	return os.Getenv(e.APIKeyVar())
}

// HasMarketCredentials reports whether market trading credentials are
// available for this environment: both variables set and the private
// key path pointing at an existing file. Missing credentials are an
// expected condition, so this never returns an error.
func (e Environment) HasMarketCredentials() bool {
	if os.Getenv(e.APIKeyVar()) == "" {
		return false
	}
	keyPath := os.Getenv(e.PrivateKeyPathVar())
	if keyPath == "" {
		return false
	}
	if _, err := os.Stat(keyPath); err != nil {
		return false
	}
	return true
}
