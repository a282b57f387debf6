package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// BaseVersionCustom marks a company version derived from the general/custom base resume
// rather than from another company version.
const BaseVersionCustom = "custom"

// ChangeDetail is one entry of a reported change log. It is what the generation collaborator
// (or the user) says changed, not a computed diff.
type ChangeDetail struct {
	Section       string `json:"section"`
	Field         string `json:"field"`
	Description   string `json:"description"`
	OriginalValue string `json:"originalValue,omitempty"`
	NewValue      string `json:"newValue,omitempty"`
}

// CompanyVersion is one point-in-time resume tailored for one company
type CompanyVersion struct {
	ID             string         `json:"id"`
	CompanyID      string         `json:"companyId"`
	CompanyName    string         `json:"companyName"`
	JobTitle       string         `json:"jobTitle"`
	JobDescription string         `json:"jobDescription,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	BaseVersionID  string         `json:"baseVersionId"`
	ResumeData     ResumeData     `json:"resumeData"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	Version        int            `json:"version"`
	LLMPromptUsed  string         `json:"llmPromptUsed,omitempty"`
	ChangeSummary  string         `json:"changeSummary,omitempty"`
	Changes        []ChangeDetail `json:"changes"`
}

// MarshalJSON writes a missing change log as an empty array
func (v CompanyVersion) MarshalJSON() ([]byte, error) {
	type wire CompanyVersion
	w := wire(v)
	if w.Changes == nil {
		w.Changes = []ChangeDetail{}
	}
	return json.Marshal(w)
}

// Clone returns a deep copy of the version
func (v CompanyVersion) Clone() CompanyVersion {
	out := v
	out.ResumeData = v.ResumeData.Clone()
	out.Changes = cloneSlice(v.Changes)
	return out
}

// CompanyVersionHistory is the unit of storage: every version ever created for one company plus
// the pointer to the live one.
type CompanyVersionHistory struct {
	CompanyID        string           `json:"companyId"`
	CompanyName      string           `json:"companyName"`
	Versions         []CompanyVersion `json:"versions"`
	CurrentVersionID string           `json:"currentVersionId"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// CompanyVersionMeta is the listing projection of a history. It is always derived, never stored.
type CompanyVersionMeta struct {
	ID               string    `json:"id"`
	CompanyID        string    `json:"companyId"`
	CompanyName      string    `json:"companyName"`
	JobTitle         string    `json:"jobTitle"`
	CurrentVersionID string    `json:"currentVersionId"`
	VersionCount     int       `json:"versionCount"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// FindVersion returns the version with the given id, or nil
func (h *CompanyVersionHistory) FindVersion(versionID string) *CompanyVersion {
	for i := range h.Versions {
		if h.Versions[i].ID == versionID {
			return &h.Versions[i]
		}
	}
	return nil
}

// CurrentVersion returns the version the current pointer references, or nil if it dangles
func (h *CompanyVersionHistory) CurrentVersion() *CompanyVersion {
	return h.FindVersion(h.CurrentVersionID)
}

// MaxVersion returns the highest version number present. It scans every entry instead of
// trusting slice order, so out-of-order persisted data still yields the right answer.
func (h *CompanyVersionHistory) MaxVersion() int {
	maxVersion := 0
	for _, v := range h.Versions {
		if v.Version > maxVersion {
			maxVersion = v.Version
		}
	}
	return maxVersion
}

// Meta derives the listing projection
func (h *CompanyVersionHistory) Meta() CompanyVersionMeta {
	jobTitle := ""
	if current := h.CurrentVersion(); current != nil {
		jobTitle = current.JobTitle
	}
	return CompanyVersionMeta{
		ID:               h.CompanyID,
		CompanyID:        h.CompanyID,
		CompanyName:      h.CompanyName,
		JobTitle:         jobTitle,
		CurrentVersionID: h.CurrentVersionID,
		VersionCount:     len(h.Versions),
		UpdatedAt:        h.UpdatedAt,
	}
}

// Clone returns a deep copy of the history
func (h *CompanyVersionHistory) Clone() *CompanyVersionHistory {
	out := *h
	if h.Versions != nil {
		out.Versions = make([]CompanyVersion, len(h.Versions))
		for i, v := range h.Versions {
			out.Versions[i] = v.Clone()
		}
	}
	return &out
}

// CheckInvariants reports the first structural problem with a history record: missing key,
// no versions, duplicate ids or version numbers, versions owned by another company, or a
// current pointer that references no version.
func (h *CompanyVersionHistory) CheckInvariants() error {
	if h.CompanyID == "" {
		return fmt.Errorf("history has empty companyId")
	}
	if len(h.Versions) == 0 {
		return fmt.Errorf("history %s has no versions", h.CompanyID)
	}

	ids := make(map[string]bool, len(h.Versions))
	numbers := make(map[int]bool, len(h.Versions))
	for _, v := range h.Versions {
		if v.ID == "" {
			return fmt.Errorf("history %s has a version with empty id", h.CompanyID)
		}
		if ids[v.ID] {
			return fmt.Errorf("history %s has duplicate version id %s", h.CompanyID, v.ID)
		}
		ids[v.ID] = true

		if v.Version < 1 {
			return fmt.Errorf("history %s version %s has non-positive number %d", h.CompanyID, v.ID, v.Version)
		}
		if numbers[v.Version] {
			return fmt.Errorf("history %s has duplicate version number %d", h.CompanyID, v.Version)
		}
		numbers[v.Version] = true

		if v.CompanyID != h.CompanyID {
			return fmt.Errorf("history %s contains version %s owned by %s", h.CompanyID, v.ID, v.CompanyID)
		}
	}

	if !ids[h.CurrentVersionID] {
		return fmt.Errorf("history %s current version %q does not exist", h.CompanyID, h.CurrentVersionID)
	}
	return nil
}
