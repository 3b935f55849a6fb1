package app

import (
	"strings"

	"github.com/google/uuid"
)

// generateID produces a time-ordered UUIDv7 identifier.
// Isolated here so the ID strategy can evolve independently.
func generateID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// shortCode builds a human-readable code from the random tail of id.
func shortCode(prefix, id string, n int) string {
	hex := strings.ReplaceAll(id, "-", "")
	return prefix + strings.ToUpper(hex[len(hex)-n:])
}

func requestNumber(id, day string) string {
	return shortCode("DEC-"+day+"-", id, 6)
}

func sparePartCode(id string) string {
	return shortCode("SP-", id, 8)
}

func assetCode(id string) string {
	return shortCode("AST-", id, 8)
}
