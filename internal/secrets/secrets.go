// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed file
// contents are the value.
//
// Recognized keys: portal-token (bearer token sent when fetching sources).
package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/tablemerge/internal/logging"
)

// KeyPortalToken is the secret holding the data portal bearer token.
const KeyPortalToken = "portal-token"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Dotfiles, subdirectories
// and empty files are skipped; unreadable files are logged and skipped.
func Load(ctx context.Context, dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	log := logging.FromContext(ctx)
	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Lookup returns flagValue when set, otherwise the named secret, otherwise "".
func Lookup(secrets map[string]string, key, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return secrets[key]
}
