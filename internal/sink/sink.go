// Package sink provides the storage backends a run writes to: S3-compatible
// object stores, a local bbolt file, and an in-memory simulator.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"surge/internal/controller"
)

var (
	ErrNotFound           = errors.New("sink: object not found")
	ErrUnsupportedBackend = errors.New("sink: unsupported backend")
	ErrEmptyPrefix        = errors.New("sink: refusing to operate on an empty prefix")
)

const (
	TypeFile   = "file"
	TypeFolder = "folder"
)

// Item is one listing entry. Folders carry only Key.
type Item struct {
	Key          string     `json:"key"`
	Size         int64      `json:"size,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	Type         string     `json:"type"`
}

// Sink is a write target. Implementations must be safe for concurrent Put.
type Sink interface {
	Name() string
	Put(ctx context.Context, key string, body []byte) error
	// List returns the folders (next "/" segment) under prefix followed by
	// the files directly under it.
	List(ctx context.Context, prefix string) ([]Item, error)
	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// OpError carries the backend, operation and key of a failed call.
type OpError struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *OpError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s.%s %s: %v", e.Backend, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Backend, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// WriteFunc adapts s to the controller, timing each Put of body.
func WriteFunc(s Sink, body []byte) controller.WriteFunc {
	return func(ctx context.Context, key string) (time.Duration, error) {
		start := time.Now()
		if err := s.Put(ctx, key, body); err != nil {
			return 0, err
		}
		return time.Since(start), nil
	}
}

// Payload returns size bytes of 'A'.
func Payload(size int) []byte {
	return bytes.Repeat([]byte{'A'}, size)
}
