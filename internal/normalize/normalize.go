// Package normalize canonicalizes raw search strings into the dedup key used
// by the entity profile store. It performs no type detection; that judgement
// belongs to the classifier.
package normalize

import (
	"fmt"
	"strings"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

// Identifier canonicalizes a raw identifier: leading/trailing whitespace is
// trimmed, internal whitespace runs collapse to a single space, and the
// result is lowercased (emails, domains, IPs and handles are matched
// case-insensitively throughout the system). The transformation is
// idempotent: Identifier(Identifier(x)) == Identifier(x).
func Identifier(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: identifier is empty", schemas.ErrValidation)
	}
	return strings.ToLower(strings.Join(strings.Fields(trimmed), " ")), nil
}
