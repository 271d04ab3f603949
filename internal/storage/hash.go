package storage

import (
	"fmt"
	"os"

	"github.com/zeebo/xxh3"
)

// HashSource returns the hex xxh3 digest recorded in the manifest for a source file.
func HashSource(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// HashFile hashes the file at path.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashSource(data), nil
}
