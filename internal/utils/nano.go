package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

var (
	NanoidSize     = 21
	nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NanoID returns a collision-resistant identifier safe for use in URLs
// and on-disk file names.
func NanoID() string {
	return NanoIDSize(NanoidSize)
}

func NanoIDSize(size int) string {
	if size == 0 {
		size = NanoidSize
	}

	return gonanoid.MustGenerate(nanoidAlphabet, size)
}
