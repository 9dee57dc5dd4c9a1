package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SchemaVersion is written into every collection file.
const SchemaVersion = 1

type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// decodeItems reads the current envelope as well as the two legacy layouts:
// a bare JSON array and an unversioned {"items": [...]} object.
func decodeItems[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
	case '{':
		var env envelope[T]
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		if env.Version > SchemaVersion {
			return nil, fmt.Errorf("unsupported schema version %d", env.Version)
		}
		items = env.Items
	default:
		return nil, fmt.Errorf("unexpected document start %q", data[0])
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}

func encodeItems[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(envelope[T]{Version: SchemaVersion, Items: items}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory, so readers never observe a partially written document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
