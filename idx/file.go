package idx

import (
	"fmt"

	"github.com/b0tShaman/idxreduce/storage"
)

// ReadFile loads and decodes the container at path. Compressed files are
// decompressed transparently.
func ReadFile(path string) (*Container, error) {
	b, err := storage.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return c, nil
}

// WriteFile encodes c and writes it to path, compressing by extension.
func WriteFile(path string, c *Container) error {
	b, err := Encode(c)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return storage.Commit(storage.File{Path: path, Data: b})
}
