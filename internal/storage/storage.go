// Package storage defines the Storage interface, the contract every
// backing key-value store must satisfy to hold the persisted record list.
//
// WHY AN INTERFACE?
// ─────────────────
// The record store only ever reads and overwrites one value under one key.
// By depending on this interface it does not know or care whether that
// value lives in a file, SQLite, PostgreSQL, Redis or an S3 bucket:
//
//   - Switching backends = change storage.backend in the config.
//     Zero record-store changes.
//
//   - Writing tests = use the memory backend or a failing fake.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Storage is the backing key-value store contract.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, fully replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the backend's resources.
	Close() error
}
