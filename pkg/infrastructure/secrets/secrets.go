// Package secrets provides secret retrieval using Google Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretsAdapter reads secret values from Secret Manager.
type SecretsAdapter struct{}

// GetSecret returns the latest version of a secret. name may be a bare
// secret id (resolved under projectID) or a full resource name.
func (a *SecretsAdapter) GetSecret(ctx context.Context, projectID, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("secretmanager init: %w", err)
	}
	defer client.Close()

	resource := name
	if !strings.Contains(name, "/") {
		resource = fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name)
	}

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resource,
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", resource, err)
	}

	return string(resp.GetPayload().GetData()), nil
}
