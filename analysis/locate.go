// Package analysis runs the external statistics script over an extracted
// ChatGPT export and reshapes its artifacts into the upload response.
package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// ManifestName is the identity file required at the archive root.
const ManifestName = "user.json"

// ConversationFileNames are the accepted export filenames, tried in order.
var ConversationFileNames = []string{
	"conversations.json",
	"conversation.json",
	"chatgpt_conversations.json",
}

type manifest struct {
	Email string `json:"email"`
}

// ValidateManifest checks that user.json exists at the extraction root,
// parses as JSON and carries an email. It returns the email on success.
func ValidateManifest(workDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(workDir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrMissingManifest
		}
		return "", fmt.Errorf("failed to read %s: %w", ManifestName, err)
	}
	var m manifest
	if err := sonic.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if m.Email == "" {
		return "", fmt.Errorf("%w: no email field", ErrInvalidManifest)
	}
	return m.Email, nil
}

// LocateConversations returns the path of the first accepted conversations
// file found at the extraction root.
func LocateConversations(workDir string) (string, error) {
	for _, name := range ConversationFileNames {
		candidate := filepath.Join(workDir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", ErrMissingConversations
}
