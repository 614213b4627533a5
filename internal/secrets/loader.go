// Package secrets resolves API keys from files, inline config, or the
// environment without ever logging the value.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where an API key may come from. Resolution order is
// File, then Value, then EnvVar.
type Source struct {
	// Name identifies the key in error messages.
	Name string
	// Value is an inline key provided via configuration or flags.
	Value string
	// File points to a file holding the key. It wins over Value.
	File string
	// EnvVar names an environment variable consulted when neither File
	// nor Value yield a key.
	EnvVar string
}

// Load resolves the key from the source. The result is always trimmed; an
// empty result from every location is an error.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		key := strings.TrimSpace(string(data))
		if key == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return key, nil
	}

	if key := strings.TrimSpace(src.Value); key != "" {
		return key, nil
	}

	if src.EnvVar != "" {
		if key := strings.TrimSpace(os.Getenv(src.EnvVar)); key != "" {
			return key, nil
		}
	}

	return "", fmt.Errorf("%s is not configured", name)
}
