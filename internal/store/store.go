// Package store persists style snapshots as opaque JSON documents, keyed by strings
// like "chatStyles/<channel>".
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("no value stored for key")
var ErrInvalidKey = errors.New("invalid storage key")

// Store is a simple key-value store for snapshot documents. Save replaces any existing
// value atomically: a concurrent Load sees either the old value or the new one.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Kind identifies a Store implementation, as selected by SNAPSHOT_STORE
type Kind string

const (
	KindFile     Kind = "file"
	KindSqlite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindS3       Kind = "s3"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFile, KindSqlite, KindPostgres, KindS3:
		return k, nil
	case "":
		return KindFile, nil
	}
	return "", fmt.Errorf("unsupported snapshot store '%s'", s)
}

// validateKey requires a key to be a '/'-separated path of non-empty segments, none of
// which may be '.' or '..'
func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." || strings.ContainsAny(segment, "\\\x00") {
			return fmt.Errorf("%w: '%s'", ErrInvalidKey, key)
		}
	}
	return nil
}
