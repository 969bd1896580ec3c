package handlers

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// sanitizeFilename keeps only the base name of the client-supplied filename
// and flattens whitespace, so upload names are filesystem- and URL-safe.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	return strings.Join(strings.Fields(base), "_")
}
