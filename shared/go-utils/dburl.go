package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// IsolatedRoleName is the Postgres role used by a CI run with an isolated schema.
func IsolatedRoleName(runnerID, runNumber string) string {
	return strings.ToLower(runnerID + "-" + runNumber)
}

// WithIsolatedRole swaps the user of baseURL for the isolated CI role,
// keeping the existing password.
func WithIsolatedRole(baseURL, runnerID, runNumber string) (string, error) {
	if runnerID == "" || runNumber == "" {
		return "", fmt.Errorf("runnerID and runNumber must be non-empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DB URL: %w", err)
	}

	password, _ := u.User.Password()
	u.User = url.UserPassword(IsolatedRoleName(runnerID, runNumber), password)

	return u.String(), nil
}
