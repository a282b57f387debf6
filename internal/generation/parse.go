package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-versions/internal/llm"
	"github.com/jonathan/resume-versions/internal/schemas"
	"github.com/jonathan/resume-versions/internal/types"
)

// DefaultChangeSummary is recorded when the collaborator reports no summary
const DefaultChangeSummary = "CV tailored for the position"

// Response is a validated collaborator response
type Response struct {
	ResumeData    types.ResumeData     `json:"resumeData"`
	ChangeSummary string               `json:"changeSummary,omitempty"`
	Changes       []types.ChangeDetail `json:"changes,omitempty"`
}

// ParseResponse strips surrounding code fences, requires exactly one JSON value, validates it
// against the response schema and decodes it. Any failure is an unparseable GenerationError;
// there is no best-effort result.
func ParseResponse(raw string) (*Response, error) {
	text := llm.CleanJSONBlock(raw)
	if text == "" {
		return nil, &GenerationError{Kind: KindUnparseable, Message: "empty response"}
	}
	if err := requireSingleValue(text); err != nil {
		return nil, &GenerationError{Kind: KindUnparseable, Message: "response is not a single JSON value", Cause: err}
	}

	if err := schemas.ValidateGenerationResponse(text); err != nil {
		return nil, &GenerationError{Kind: KindUnparseable, Message: "response does not match the expected shape", Cause: err}
	}

	var resp Response
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, &GenerationError{Kind: KindUnparseable, Message: "failed to decode response", Cause: err}
	}
	if resp.ResumeData.IsEmpty() {
		return nil, &GenerationError{Kind: KindUnparseable, Message: "response carries an empty resume"}
	}

	resp.ChangeSummary = strings.TrimSpace(resp.ChangeSummary)
	if resp.ChangeSummary == "" {
		resp.ChangeSummary = DefaultChangeSummary
	}
	if resp.Changes == nil {
		resp.Changes = []types.ChangeDetail{}
	}
	return &resp, nil
}

// requireSingleValue fails unless text holds one JSON value and nothing after it
func requireSingleValue(text string) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	var v json.RawMessage
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected content after JSON value at offset %d", dec.InputOffset())
	}
	return nil
}

// CheckFabrication compares a generated resume with its source. Every generated experience entry
// must match a source entry on company, position and duration, every education institution must
// appear in the source, and every skill item must be listed somewhere in the source skills.
// Entries may be dropped or reordered, and skill items may move between categories.
func CheckFabrication(source, generated types.ResumeData) error {
	experiences := make(map[string]bool, len(source.Experience))
	for _, e := range source.Experience {
		experiences[experienceKey(e)] = true
	}
	institutions := make(map[string]bool, len(source.Education))
	for _, e := range source.Education {
		institutions[normalizeFact(e.Institution)] = true
	}

	skills := make(map[string]bool)
	for _, group := range source.Skills {
		for _, item := range group.Items {
			skills[normalizeFact(item)] = true
		}
	}

	var violations []string
	for _, e := range generated.Experience {
		if !experiences[experienceKey(e)] {
			violations = append(violations, fmt.Sprintf("experience %q at %q (%s) is not in the source resume", e.Position, e.Company, e.Duration))
		}
	}
	for _, e := range generated.Education {
		if !institutions[normalizeFact(e.Institution)] {
			violations = append(violations, fmt.Sprintf("education at %q is not in the source resume", e.Institution))
		}
	}
	for _, group := range generated.Skills {
		for _, item := range group.Items {
			if !skills[normalizeFact(item)] {
				violations = append(violations, fmt.Sprintf("skill %q is not in the source resume", item))
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &GenerationError{Kind: KindFabricated, Message: strings.Join(violations, "; ")}
}

func experienceKey(e types.Experience) string {
	return normalizeFact(e.Company) + "|" + normalizeFact(e.Position) + "|" + normalizeFact(e.Duration)
}

// normalizeFact folds case and whitespace so cosmetic edits are not flagged
func normalizeFact(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
