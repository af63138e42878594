package store

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateMediaID returns a new time-ordered media record id.
func GenerateMediaID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate media id: %w", err)
	}
	return id.String(), nil
}
