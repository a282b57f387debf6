// Package history implements the company version state machine: creating companies, appending
// versions, moving the current pointer, editing metadata and deleting whole records. Every
// mutation is a read-modify-write of one full record through a store.VersionStore.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-versions/internal/logger"
	"github.com/jonathan/resume-versions/internal/store"
	"github.com/jonathan/resume-versions/internal/types"
)

// Default change summaries used when the caller supplies none
const (
	DefaultCreateSummary = "Initial version tailored for position"
	DefaultAppendSummary = "Version updated"
)

// Manager is the authoritative owner of company version histories. It holds no history state
// between calls; the store is the only source of truth.
type Manager struct {
	store store.VersionStore
	log   *logger.Logger
	now   func() time.Time
	newID func() string
	locks *keyedMutex
}

// Option configures a Manager
type Option func(*Manager)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator overrides company and version id allocation
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		m.newID = newID
	}
}

// NewManager creates a Manager over the given store
func NewManager(s store.VersionStore, log *logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	m := &Manager{
		store: s,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) timestamp() time.Time {
	return m.now().UTC()
}

// CreateCompany allocates a new company with exactly one version and makes it current
func (m *Manager) CreateCompany(ctx context.Context, req types.CreateCompanyRequest) (*types.CompanyVersion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := m.timestamp()
	companyID := m.newID()
	baseVersionID := req.BaseVersionID
	if baseVersionID == "" {
		baseVersionID = types.BaseVersionCustom
	}
	changeSummary := req.ChangeSummary
	if changeSummary == "" {
		changeSummary = DefaultCreateSummary
	}

	version := types.CompanyVersion{
		ID:             m.newID(),
		CompanyID:      companyID,
		CompanyName:    strings.TrimSpace(req.CompanyName),
		JobTitle:       strings.TrimSpace(req.JobTitle),
		JobDescription: req.JobDescription,
		Notes:          req.Notes,
		BaseVersionID:  baseVersionID,
		ResumeData:     req.ResumeData.Clone(),
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
		LLMPromptUsed:  req.LLMPromptUsed,
		ChangeSummary:  changeSummary,
		Changes:        append([]types.ChangeDetail{}, req.Changes...),
	}
	h := &types.CompanyVersionHistory{
		CompanyID:        companyID,
		CompanyName:      version.CompanyName,
		Versions:         []types.CompanyVersion{version},
		CurrentVersionID: version.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	unlock := m.locks.Lock(companyID)
	defer unlock()

	if err := m.store.Put(ctx, companyID, h); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	m.log.Info("company created",
		"company_id", companyID,
		"version_id", version.ID,
		"version", version.Version,
	)
	out := version.Clone()
	return &out, nil
}

// AddVersion appends a version and makes it current. Fields left unset on req inherit from the
// version that is current when the append is applied. Returns nil with a nil error when the
// company does not exist.
func (m *Manager) AddVersion(ctx context.Context, companyID string, req types.AddVersionRequest) (*types.CompanyVersion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(companyID)
	defer unlock()

	h, err := m.store.Get(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company history: %w", err)
	}
	if h == nil {
		return nil, nil
	}

	current := h.CurrentVersion()
	if current == nil {
		return nil, fmt.Errorf("company %s has no current version", companyID)
	}

	jobTitle := strings.TrimSpace(req.JobTitle)
	if jobTitle == "" {
		jobTitle = current.JobTitle
	}
	jobDescription := current.JobDescription
	if req.JobDescription != nil {
		jobDescription = *req.JobDescription
	}
	notes := current.Notes
	if req.Notes != nil {
		notes = *req.Notes
	}
	baseVersionID := req.BaseVersionID
	if baseVersionID == "" {
		baseVersionID = current.ID
	}
	changeSummary := req.ChangeSummary
	if changeSummary == "" {
		changeSummary = DefaultAppendSummary
	}

	now := m.timestamp()
	version := types.CompanyVersion{
		ID:             m.newID(),
		CompanyID:      companyID,
		CompanyName:    h.CompanyName,
		JobTitle:       jobTitle,
		JobDescription: jobDescription,
		Notes:          notes,
		BaseVersionID:  baseVersionID,
		ResumeData:     req.ResumeData.Clone(),
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        h.MaxVersion() + 1,
		LLMPromptUsed:  req.LLMPromptUsed,
		ChangeSummary:  changeSummary,
		Changes:        append([]types.ChangeDetail{}, req.Changes...),
	}

	h.Versions = append(h.Versions, version)
	h.CurrentVersionID = version.ID
	h.UpdatedAt = now

	if err := m.store.Put(ctx, companyID, h); err != nil {
		return nil, fmt.Errorf("failed to save new version: %w", err)
	}

	m.log.Info("version added",
		"company_id", companyID,
		"version_id", version.ID,
		"version", version.Version,
		"base_version_id", baseVersionID,
	)
	out := version.Clone()
	return &out, nil
}

// SwitchVersion moves the current pointer. It reports false without mutating anything when the
// company or the version does not exist.
func (m *Manager) SwitchVersion(ctx context.Context, companyID, versionID string) (bool, error) {
	unlock := m.locks.Lock(companyID)
	defer unlock()

	h, err := m.store.Get(ctx, companyID)
	if err != nil {
		return false, fmt.Errorf("failed to load company history: %w", err)
	}
	if h == nil || h.FindVersion(versionID) == nil {
		return false, nil
	}
	if h.CurrentVersionID == versionID {
		return true, nil
	}

	previous := h.CurrentVersionID
	h.CurrentVersionID = versionID
	h.UpdatedAt = m.timestamp()

	if err := m.store.Put(ctx, companyID, h); err != nil {
		return false, fmt.Errorf("failed to save version switch: %w", err)
	}

	m.log.Info("current version switched",
		"company_id", companyID,
		"from_version_id", previous,
		"version_id", versionID,
	)
	return true, nil
}

// UpdateMeta edits company metadata. A new company name is copied onto every version; job title
// and notes only change the current version. Returns nil with a nil error when the company does
// not exist.
func (m *Manager) UpdateMeta(ctx context.Context, companyID string, update types.MetaUpdate) (*types.CompanyVersionHistory, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(companyID)
	defer unlock()

	h, err := m.store.Get(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company history: %w", err)
	}
	if h == nil {
		return nil, nil
	}
	if update.IsEmpty() {
		return h, nil
	}

	now := m.timestamp()
	if update.CompanyName != nil {
		name := strings.TrimSpace(*update.CompanyName)
		h.CompanyName = name
		for i := range h.Versions {
			h.Versions[i].CompanyName = name
		}
	}

	current := h.CurrentVersion()
	if current == nil {
		return nil, fmt.Errorf("company %s has no current version", companyID)
	}
	if update.JobTitle != nil {
		current.JobTitle = strings.TrimSpace(*update.JobTitle)
	}
	if update.Notes != nil {
		current.Notes = *update.Notes
	}
	current.UpdatedAt = now
	h.UpdatedAt = now

	if err := m.store.Put(ctx, companyID, h); err != nil {
		return nil, fmt.Errorf("failed to save company metadata: %w", err)
	}

	m.log.Info("company metadata updated",
		"company_id", companyID,
		"version_id", current.ID,
		"renamed", update.CompanyName != nil,
	)
	return h, nil
}

// DeleteCompany removes the whole record and reports whether one existed
func (m *Manager) DeleteCompany(ctx context.Context, companyID string) (bool, error) {
	unlock := m.locks.Lock(companyID)
	defer unlock()

	deleted, err := m.store.Delete(ctx, companyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete company: %w", err)
	}
	if deleted {
		m.log.Info("company deleted", "company_id", companyID)
	}
	return deleted, nil
}

// GetHistory returns the full record, or nil when the company does not exist
func (m *Manager) GetHistory(ctx context.Context, companyID string) (*types.CompanyVersionHistory, error) {
	h, err := m.store.Get(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company history: %w", err)
	}
	return h, nil
}

// GetVersion returns one version of a company, or nil when either does not exist
func (m *Manager) GetVersion(ctx context.Context, companyID, versionID string) (*types.CompanyVersion, error) {
	h, err := m.GetHistory(ctx, companyID)
	if err != nil || h == nil {
		return nil, err
	}
	v := h.FindVersion(versionID)
	if v == nil {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

// CurrentVersion returns the version the company's pointer references, or nil
func (m *Manager) CurrentVersion(ctx context.Context, companyID string) (*types.CompanyVersion, error) {
	h, err := m.GetHistory(ctx, companyID)
	if err != nil || h == nil {
		return nil, err
	}
	v := h.CurrentVersion()
	if v == nil {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

// ListMetas derives the listing projection of every readable company, most recently updated
// first
func (m *Manager) ListMetas(ctx context.Context) ([]types.CompanyVersionMeta, error) {
	histories, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	metas := make([]types.CompanyVersionMeta, 0, len(histories))
	for _, h := range histories {
		metas = append(metas, h.Meta())
	}
	sort.SliceStable(metas, func(i, j int) bool {
		if metas[i].UpdatedAt.Equal(metas[j].UpdatedAt) {
			return metas[i].CompanyID < metas[j].CompanyID
		}
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}
