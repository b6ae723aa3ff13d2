package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
)

// PutBytes stores data at path.
func PutBytes(ctx context.Context, s Storage, path string, data []byte) error {
	return s.Upload(ctx, path, bytes.NewReader(data))
}

// GetBytes reads the whole object at path.
func GetBytes(ctx context.Context, s Storage, path string) ([]byte, error) {
	rc, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	if cerr := rc.Close(); err == nil {
		err = cerr
	}
	return data, err
}

// PutJSON stores v as indented JSON at path.
func PutJSON(ctx context.Context, s Storage, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return PutBytes(ctx, s, path, append(data, '\n'))
}

// GetJSON decodes the JSON object at path into v.
func GetJSON(ctx context.Context, s Storage, path string, v any) error {
	data, err := GetBytes(ctx, s, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
