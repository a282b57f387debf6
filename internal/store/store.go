// Package store provides durable keyed storage of company version histories, one whole record
// per company id. Every backend offers full-record replace semantics: a reader never observes a
// partially written record.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/jonathan/resume-versions/internal/types"
)

// VersionStore is the persistence seam used by the history manager
type VersionStore interface {
	// Put writes the full record for companyID, replacing any prior content
	Put(ctx context.Context, companyID string, history *types.CompanyVersionHistory) error
	// Get returns the record, or nil with a nil error when no record exists
	Get(ctx context.Context, companyID string) (*types.CompanyVersionHistory, error)
	// Delete removes the record and reports whether one existed
	Delete(ctx context.Context, companyID string) (bool, error)
	// ListAll returns every readable record. Unreadable records are skipped and logged.
	ListAll(ctx context.Context) ([]*types.CompanyVersionHistory, error)
}

// StorageError represents an I/O failure or an unreadable stored record
type StorageError struct {
	Op      string // "put", "get", "delete", "list"
	Key     string
	Message string
	Corrupt bool // stored content exists but does not decode into a valid history
	Cause   error
}

func (e *StorageError) Error() string {
	target := e.Op
	if e.Key != "" {
		target = fmt.Sprintf("%s %s", e.Op, e.Key)
	}
	if e.Cause != nil {
		return fmt.Sprintf("storage error: %s: %s: %v", target, e.Message, e.Cause)
	}
	return fmt.Sprintf("storage error: %s: %s", target, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// IsCorrupt reports whether err is a StorageError for an unreadable record
func IsCorrupt(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr) && sErr.Corrupt
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidKey reports whether companyID is usable as a storage key. Keys that fail this check
// can never have been written, so lookups treat them as absent.
func ValidKey(companyID string) bool {
	return keyPattern.MatchString(companyID)
}

// EncodeHistory serializes a record for storage. The record must belong to companyID.
func EncodeHistory(companyID string, history *types.CompanyVersionHistory) ([]byte, error) {
	if history == nil {
		return nil, &StorageError{Op: "put", Key: companyID, Message: "history is nil"}
	}
	if !ValidKey(companyID) {
		return nil, &StorageError{Op: "put", Key: companyID, Message: "invalid key"}
	}
	if history.CompanyID != companyID {
		return nil, &StorageError{
			Op:      "put",
			Key:     companyID,
			Message: fmt.Sprintf("record belongs to company %q", history.CompanyID),
		}
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return nil, &StorageError{Op: "put", Key: companyID, Message: "failed to marshal history", Cause: err}
	}
	return data, nil
}

// DecodeHistory parses a stored record and checks its structural invariants. Any failure is
// reported as a corrupt StorageError for that one record.
func DecodeHistory(op, companyID string, data []byte) (*types.CompanyVersionHistory, error) {
	var history types.CompanyVersionHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, &StorageError{Op: op, Key: companyID, Message: "failed to parse stored history", Corrupt: true, Cause: err}
	}
	if err := history.CheckInvariants(); err != nil {
		return nil, &StorageError{Op: op, Key: companyID, Message: "stored history is malformed", Corrupt: true, Cause: err}
	}
	if history.CompanyID != companyID {
		return nil, &StorageError{
			Op:      op,
			Key:     companyID,
			Message: fmt.Sprintf("stored history has companyId %q", history.CompanyID),
			Corrupt: true,
		}
	}
	return &history, nil
}
