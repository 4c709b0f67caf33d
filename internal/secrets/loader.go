package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/spigell/job-matcher/internal/errs"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// Env names an environment variable holding the secret.
	Env string
	// File points to a file containing the secret value. When set it takes
	// precedence over Env and Value.
	File string
}

// Load resolves the secret from File, then Env, then Value. The returned
// secret is always trimmed. A config error is returned when none of them
// holds a usable secret.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", errs.Config(fmt.Sprintf("reading %s from file %q", name, file), err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", errs.Config(fmt.Sprintf("%s file %q is empty", name, file), nil)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if src.Env != "" {
			return "", errs.Config(fmt.Sprintf("%s is not configured (set %s)", name, src.Env), nil)
		}
		return "", errs.Config(fmt.Sprintf("%s is not configured", name), nil)
	}

	return secret, nil
}
