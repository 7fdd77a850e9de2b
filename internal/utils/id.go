package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const pidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewPid generates the short public identifier exposed in URLs, keeping the
// numeric primary keys internal.
func NewPid() string {
	id, err := gonanoid.Generate(pidAlphabet, 12)
	if err != nil {
		// gonanoid only errors on a broken random source
		panic(err)
	}
	return id
}
