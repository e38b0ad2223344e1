package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/bitwarden/sdk-go"
)

//--------------------------------------------------------------------
// Constants
//--------------------------------------------------------------------

// bwsOrgID returns the Bitwarden organization that owns all projects and
// secrets, read from BWS_ORGANIZATION_ID.
func bwsOrgID() string {
	return strings.TrimSpace(os.Getenv("BWS_ORGANIZATION_ID"))
}

// Retry parameters for Bitwarden API calls.
const (
	maxRetries     = 5
	initialBackoff = 500 * time.Millisecond
)

//--------------------------------------------------------------------
// Client wrapper
//--------------------------------------------------------------------

// BWSSecretsClient wraps an authenticated Bitwarden SDK client.
type BWSSecretsClient struct {
	bw sdk.BitwardenClientInterface
}

// NewBWSSecretsClient logs in with BWS_ACCESS_TOKEN and returns a ready
// client. Login is retried with exponential backoff on rate-limit responses.
func NewBWSSecretsClient() (*BWSSecretsClient, error) {
	accessToken := os.Getenv("BWS_ACCESS_TOKEN")
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("BWS_ACCESS_TOKEN env var is missing or empty")
	}
	if bwsOrgID() == "" {
		return nil, errors.New("BWS_ORGANIZATION_ID env var is missing or empty")
	}

	// Create Bitwarden client (nil URLs → defaults).
	bw, err := sdk.NewBitwardenClient(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("initialising Bitwarden SDK client: %w", err)
	}

	backoff := initialBackoff
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = bw.AccessTokenLogin(accessToken, nil)
		if err == nil {
			return &BWSSecretsClient{bw: bw}, nil
		}

		// sdk-go has no typed status error; match on the message.
		if !strings.Contains(err.Error(), "429") &&
			!strings.Contains(err.Error(), "Too Many Requests") {
			return nil, fmt.Errorf("Bitwarden access-token login failed: %w", err)
		}

		if attempt == maxRetries {
			return nil, fmt.Errorf("Bitwarden access-token login failed after %d attempts: %w", maxRetries, err)
		}

		time.Sleep(backoff)
		backoff *= 2
	}

	return nil, errors.New("unreachable: bitwarden login loop exited")
}

// Close releases resources held by the underlying SDK client.
func (c *BWSSecretsClient) Close() {
	if c != nil && c.bw != nil {
		c.bw.Close()
	}
}

//--------------------------------------------------------------------
// Public helpers
//--------------------------------------------------------------------

// BWSSecrets is the key/value view of one Bitwarden project.
type BWSSecrets struct {
	Project string
	values  map[string]string
}

// Require returns the value for key or an error naming the project.
func (s BWSSecrets) Require(key string) (string, error) {
	v, ok := s.values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s not found in BWS secrets (%s)", key, s.Project)
	}
	return v, nil
}

// Optional returns the value for key or "" if it is absent.
func (s BWSSecrets) Optional(key string) string {
	return s.values[key]
}

// GetBWSSecrets retrieves all key/value secrets belonging to the specified
// Bitwarden project **name**.
func (c *BWSSecretsClient) GetBWSSecrets(projectName string) (BWSSecrets, error) {
	if strings.TrimSpace(projectName) == "" {
		return BWSSecrets{}, errors.New("projectName must not be empty")
	}

	projectsResp, err := c.bw.Projects().List(bwsOrgID())
	if err != nil {
		Logger.WithError(err).Error("Failed to list Bitwarden projects")
		return BWSSecrets{}, fmt.Errorf("listing Bitwarden projects: %w", err)
	}

	var projectID string
	for _, p := range projectsResp.Data {
		if strings.EqualFold(p.Name, projectName) {
			projectID = p.ID
			break
		}
	}
	if projectID == "" {
		return BWSSecrets{}, fmt.Errorf("project %q not found in organisation %s", projectName, bwsOrgID())
	}

	syncResp, err := c.bw.Secrets().Sync(bwsOrgID(), nil)
	if err != nil {
		Logger.WithError(err).Error("Failed to sync Bitwarden secrets")
		return BWSSecrets{}, fmt.Errorf("syncing Bitwarden secrets: %w", err)
	}

	out := make(map[string]string)
	for _, s := range syncResp.Secrets {
		if s.ProjectID != nil && *s.ProjectID == projectID {
			out[s.Key] = s.Value
		}
	}

	if len(out) == 0 {
		return BWSSecrets{}, fmt.Errorf("no secrets found for project %q", projectName)
	}
	return BWSSecrets{Project: projectName, values: out}, nil
}
