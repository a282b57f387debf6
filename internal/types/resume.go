// Package types provides the data model shared by the version store, the history manager and the
// generation orchestrator.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// PersonalDetails holds the candidate's contact block
type PersonalDetails struct {
	FullName string `json:"fullName"`
	Title    string `json:"title"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	LinkedIn string `json:"linkedin"`
	Location string `json:"location"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Language is a spoken language and proficiency level
type Language struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Education is one education entry
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Year        string `json:"year,omitempty"`
	Description string `json:"description,omitempty"`
}

// Membership is a professional membership
type Membership struct {
	Organization string `json:"organization"`
	Role         string `json:"role,omitempty"`
	Since        string `json:"since,omitempty"`
}

// Interest is a personal interest
type Interest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Skill is a named category of skill items
type Skill struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Experience is one employment entry. Company, Position and Duration are facts the
// generation collaborator must not change.
type Experience struct {
	Company      string   `json:"company"`
	Industry     string   `json:"industry,omitempty"`
	Position     string   `json:"position"`
	Duration     string   `json:"duration"`
	Location     string   `json:"location"`
	Technologies []string `json:"technologies"`
	Achievements []string `json:"achievements"`
}

// Project is a side or portfolio project
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty"`
	Highlights   []string `json:"highlights,omitempty"`
}

// ResumeData is a full resume snapshot. The history engine stores and returns whole snapshots
// and never edits their content.
type ResumeData struct {
	PersonalDetails PersonalDetails `json:"personalDetails"`
	Summary         string          `json:"summary"`
	Languages       []Language      `json:"languages"`
	Education       []Education     `json:"education"`
	Memberships     []Membership    `json:"memberships"`
	Interests       []Interest      `json:"interests"`
	Skills          []Skill         `json:"skills"`
	Experience      []Experience    `json:"experience"`
	Projects        []Project       `json:"projects"`
}

// IsEmpty reports whether the snapshot carries no content at all, as when a request omits it
func (r ResumeData) IsEmpty() bool {
	return r.PersonalDetails == (PersonalDetails{}) &&
		strings.TrimSpace(r.Summary) == "" &&
		len(r.Languages) == 0 &&
		len(r.Education) == 0 &&
		len(r.Memberships) == 0 &&
		len(r.Interests) == 0 &&
		len(r.Skills) == 0 &&
		len(r.Experience) == 0 &&
		len(r.Projects) == 0
}

// Clone returns a deep copy so a stored snapshot never aliases caller-owned slices.
func (r ResumeData) Clone() ResumeData {
	out := r
	out.Languages = cloneSlice(r.Languages)
	out.Education = cloneSlice(r.Education)
	out.Memberships = cloneSlice(r.Memberships)
	out.Interests = cloneSlice(r.Interests)

	if r.Skills != nil {
		out.Skills = make([]Skill, len(r.Skills))
		for i, s := range r.Skills {
			out.Skills[i] = Skill{Category: s.Category, Items: cloneSlice(s.Items)}
		}
	}
	if r.Experience != nil {
		out.Experience = make([]Experience, len(r.Experience))
		for i, e := range r.Experience {
			e.Technologies = cloneSlice(e.Technologies)
			e.Achievements = cloneSlice(e.Achievements)
			out.Experience[i] = e
		}
	}
	if r.Projects != nil {
		out.Projects = make([]Project, len(r.Projects))
		for i, p := range r.Projects {
			p.Technologies = cloneSlice(p.Technologies)
			p.Highlights = cloneSlice(p.Highlights)
			out.Projects[i] = p
		}
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
