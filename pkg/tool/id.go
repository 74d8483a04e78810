package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateFilename returns "<uuid>.<ext>" for a lower-cased extension without
// its leading dot.
func GenerateFilename(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return uuid.NewString() + "." + ext
}
