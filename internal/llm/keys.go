// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"os"
	"strings"
)

// minAPIKeyLength rejects obviously truncated keys. Not a real validity
// check; the API is the only authority on that.
const minAPIKeyLength = 20

// ResolveAPIKey returns the credential to use: the session-entered value
// when present, otherwise the OPENAI_API_KEY environment variable. An empty
// result means the UI must prompt for a key.
func ResolveAPIKey(sessionKey string) string {
	if sessionKey != "" {
		return sessionKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// ValidateAPIKey performs a superficial format check: "sk-" prefix and a
// plausible minimum length.
func ValidateAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	return strings.HasPrefix(key, "sk-") && len(key) >= minAPIKeyLength
}
