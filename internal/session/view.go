// Package session tracks which company and version a client is looking at. The state lives in
// memory only and is separate from each company's durable current pointer, so browsing old
// versions never changes what is canonical.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonathan/resume-versions/internal/types"
)

// ErrNoActiveCompany is returned when an operation needs a loaded company and none is
var ErrNoActiveCompany = errors.New("no active company")

// Source is the history manager surface the view reads and switches through
type Source interface {
	GetHistory(ctx context.Context, companyID string) (*types.CompanyVersionHistory, error)
	SwitchVersion(ctx context.Context, companyID, versionID string) (bool, error)
}

// State is a point-in-time copy of the view
type State struct {
	Active           bool   `json:"active"`
	CompanyID        string `json:"companyId,omitempty"`
	CompanyName      string `json:"companyName,omitempty"`
	VersionID        string `json:"versionId,omitempty"`
	Version          int    `json:"version,omitempty"`
	CurrentVersionID string `json:"currentVersionId,omitempty"`
	// IsCurrent reports whether the viewed version is the company's durable current version
	IsCurrent bool `json:"isCurrent"`
}

// View is an injectable, per-client view state. It is safe for concurrent use.
type View struct {
	source Source

	mu        sync.RWMutex
	history   *types.CompanyVersionHistory
	versionID string
}

// NewView creates an empty view over source
func NewView(source Source) *View {
	return &View{source: source}
}

// Load fetches a company's history and shows its durable current version
func (v *View) Load(ctx context.Context, companyID string) (*types.CompanyVersion, error) {
	h, err := v.fetch(ctx, companyID)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = h
	v.versionID = h.CurrentVersionID
	return v.viewedLocked(), nil
}

// Open shows another version of the loaded company without touching durable state
func (v *View) Open(versionID string) (*types.CompanyVersion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.history == nil {
		return nil, ErrNoActiveCompany
	}
	if v.history.FindVersion(versionID) == nil {
		return nil, &types.NotFoundError{Resource: "version", ID: versionID}
	}
	v.versionID = versionID
	return v.viewedLocked(), nil
}

// Switch makes versionID the company's durable current version, then reloads the history so the
// view and the stored pointer agree again
func (v *View) Switch(ctx context.Context, versionID string) (*types.CompanyVersion, error) {
	v.mu.RLock()
	if v.history == nil {
		v.mu.RUnlock()
		return nil, ErrNoActiveCompany
	}
	companyID := v.history.CompanyID
	v.mu.RUnlock()

	ok, err := v.source.SwitchVersion(ctx, companyID, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to switch version: %w", err)
	}
	if !ok {
		return nil, &types.NotFoundError{Resource: "version", ID: versionID}
	}
	return v.Load(ctx, companyID)
}

// Refresh reloads the active company. The viewed version is kept when it still exists;
// otherwise the view falls back to the current version.
func (v *View) Refresh(ctx context.Context) (*types.CompanyVersion, error) {
	v.mu.RLock()
	if v.history == nil {
		v.mu.RUnlock()
		return nil, ErrNoActiveCompany
	}
	companyID := v.history.CompanyID
	viewed := v.versionID
	v.mu.RUnlock()

	h, err := v.fetch(ctx, companyID)
	if err != nil {
		var nfErr *types.NotFoundError
		if errors.As(err, &nfErr) {
			v.Clear()
		}
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = h
	v.versionID = h.CurrentVersionID
	if h.FindVersion(viewed) != nil {
		v.versionID = viewed
	}
	return v.viewedLocked(), nil
}

// Clear forgets the active company. Durable storage is never touched.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = nil
	v.versionID = ""
}

// Viewing returns a copy of the version on screen, or nil when nothing is loaded
func (v *View) Viewing() *types.CompanyVersion {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.history == nil {
		return nil
	}
	return v.viewedLocked()
}

// History returns a copy of the loaded history, or nil
func (v *View) History() *types.CompanyVersionHistory {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.history == nil {
		return nil
	}
	return v.history.Clone()
}

// Snapshot returns the current view state
func (v *View) Snapshot() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.history == nil {
		return State{}
	}

	s := State{
		Active:           true,
		CompanyID:        v.history.CompanyID,
		CompanyName:      v.history.CompanyName,
		VersionID:        v.versionID,
		CurrentVersionID: v.history.CurrentVersionID,
		IsCurrent:        v.versionID == v.history.CurrentVersionID,
	}
	if viewed := v.history.FindVersion(v.versionID); viewed != nil {
		s.Version = viewed.Version
	}
	return s
}

func (v *View) fetch(ctx context.Context, companyID string) (*types.CompanyVersionHistory, error) {
	h, err := v.source.GetHistory(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	if h == nil {
		return nil, &types.NotFoundError{Resource: "company", ID: companyID}
	}
	return h, nil
}

func (v *View) viewedLocked() *types.CompanyVersion {
	found := v.history.FindVersion(v.versionID)
	if found == nil {
		return nil
	}
	out := found.Clone()
	return &out
}
