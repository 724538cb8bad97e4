// Package taskid encodes provider task handles into the opaque external ids
// handed to the web app. The provider configuration id rides inside the id so
// a later poll can recover which credentials to use without a lookup.
package taskid

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/hardingCheng/waoowaoo/internal/domain"
)

// ProviderOpenAI tags external ids minted by the OpenAI-compatible video
// adapter.
const ProviderOpenAI = "OPENAI"

// Ref is the decoded form of an external task id.
type Ref struct {
	Provider   string
	Kind       domain.TaskKind
	ProviderID string
	TaskID     string
}

// Encode mints an external id of the form
// PROVIDER:KIND:base64url(providerConfigID):taskID. The provider config id is
// base64url-encoded (unpadded) so arbitrary configuration ids survive the
// separator; the provider task id is carried verbatim and therefore must not
// contain the separator itself.
func Encode(provider string, kind domain.TaskKind, providerConfigID, taskID string) (string, error) {
	if provider == "" || kind == "" {
		return "", fmt.Errorf("taskid: provider and kind are required")
	}
	if strings.Contains(provider, ":") || strings.Contains(string(kind), ":") {
		return "", fmt.Errorf("taskid: provider and kind must not contain %q", ":")
	}
	if taskID == "" {
		return "", fmt.Errorf("taskid: task id is required")
	}
	if strings.Contains(taskID, ":") {
		return "", fmt.Errorf("taskid: task id %q must not contain %q", taskID, ":")
	}
	encoded := base64.RawURLEncoding.EncodeToString([]byte(providerConfigID))
	return provider + ":" + string(kind) + ":" + encoded + ":" + taskID, nil
}

// Decode parses an external id back into its parts. The provider config id is
// recovered exactly as it was encoded.
func Decode(external string) (Ref, error) {
	parts := strings.Split(external, ":")
	if len(parts) != 4 {
		return Ref{}, fmt.Errorf("taskid: malformed external id %q", external)
	}
	if parts[0] == "" || parts[1] == "" || parts[3] == "" {
		return Ref{}, fmt.Errorf("taskid: malformed external id %q", external)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Ref{}, fmt.Errorf("taskid: decode provider id: %w", err)
	}
	return Ref{
		Provider:   parts[0],
		Kind:       domain.TaskKind(parts[1]),
		ProviderID: string(decoded),
		TaskID:     parts[3],
	}, nil
}
