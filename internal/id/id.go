// Package id generates the opaque identifiers used for build runs.
// Item ids are never generated; they are folder names.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// runAlphabet is lowercase alphanumeric so run ids are safe in file names
// and object keys on case-insensitive stores.
const runAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const runLength = 12

// RunID creates a prefixed NanoID such as "build-0k3m9x2q7a1z".
func RunID(prefix string) (string, error) {
	id, err := gonanoid.Generate(runAlphabet, runLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustRunID is like RunID but panics if ID generation fails.
// Use this only when failure should crash the program.
func MustRunID(prefix string) string {
	id, err := RunID(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
