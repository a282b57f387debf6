package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-versions/internal/types"
)

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse("```json\n{\"resumeData\": {\"personalDetails\": {\"fullName\": \"Jane\"}, \"summary\": \"s\"}, \"changeSummary\": \"  Trimmed.  \", \"changes\": [{\"section\": \"summary\", \"field\": \"summary\", \"description\": \"shorter\", \"originalValue\": \"long\", \"newValue\": \"s\"}]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Jane", resp.ResumeData.PersonalDetails.FullName)
	assert.Equal(t, "Trimmed.", resp.ChangeSummary)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, "long", resp.Changes[0].OriginalValue)
}

func TestParseResponse_Defaults(t *testing.T) {
	resp, err := ParseResponse(`{"resumeData": {"personalDetails": {}, "summary": "Engineer"}, "changeSummary": null, "changes": null}`)
	require.NoError(t, err)
	assert.Equal(t, DefaultChangeSummary, resp.ChangeSummary)
	assert.NotNil(t, resp.Changes)
	assert.Empty(t, resp.Changes)
}

func TestParseResponse_Failures(t *testing.T) {
	valid := `{"resumeData": {"personalDetails": {"fullName": "Ada"}}}`
	other := `{"resumeData": {"personalDetails": {"fullName": "Grace"}}}`
	for _, raw := range []string{
		"", "   ", "```json\n```", "nope", `{"resumeData": []}`, `{"resumeData": {"personalDetails": {}, "skills": "Go"}}`,
		"I cannot fully do this, but here is a draft: " + valid + " Let me know!",
		valid + " " + other,
		"```json\n" + valid + "\n```\ntrailing prose",
		valid + " trailing prose",
		`{"resumeData": {"personalDetails": {}}}`,
	} {
		_, err := ParseResponse(raw)
		assert.True(t, IsKind(err, KindUnparseable), "input %q: %v", raw, err)
	}
}

func TestCheckFabrication(t *testing.T) {
	source := sourceResume()

	tests := []struct {
		name    string
		mutate  func(r *types.ResumeData)
		wantErr string
	}{
		{name: "unchanged", mutate: func(r *types.ResumeData) {}},
		{name: "reordered and rephrased", mutate: func(r *types.ResumeData) {
			r.Experience[0], r.Experience[1] = r.Experience[1], r.Experience[0]
			r.Experience[0].Achievements = []string{"Owned billing reliability, cutting incidents by [ADD METRIC]"}
		}},
		{name: "entry dropped", mutate: func(r *types.ResumeData) { r.Experience = r.Experience[:1] }},
		{name: "cosmetic whitespace and case", mutate: func(r *types.ResumeData) {
			r.Experience[0].Company = "  initech "
			r.Experience[0].Duration = "2021  -  Present"
		}},
		{name: "title inflated", mutate: func(r *types.ResumeData) { r.Experience[1].Position = "Staff Engineer" }, wantErr: `experience "Staff Engineer" at "Globex"`},
		{name: "dates changed", mutate: func(r *types.ResumeData) { r.Experience[1].Duration = "2016 - 2021" }, wantErr: "(2016 - 2021)"},
		{name: "new employer", mutate: func(r *types.ResumeData) {
			r.Experience = append(r.Experience, types.Experience{Company: "Hooli", Position: "Engineer", Duration: "2015"})
		}, wantErr: `"Hooli"`},
		{name: "new school", mutate: func(r *types.ResumeData) {
			r.Education = append(r.Education, types.Education{Institution: "MIT"})
		}, wantErr: `education at "MIT"`},
		{name: "skills regrouped", mutate: func(r *types.ResumeData) {
			r.Skills = []types.Skill{{Category: "Backend", Items: []string{"python"}}, {Category: "Systems", Items: []string{" Go "}}}
		}},
		{name: "new skill", mutate: func(r *types.ResumeData) {
			r.Skills[0].Items = append(r.Skills[0].Items, "Kubernetes")
		}, wantErr: `skill "Kubernetes"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generated := source.Clone()
			tt.mutate(&generated)

			err := CheckFabrication(source, generated)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsKind(err, KindFabricated))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildTailorPrompt_Deterministic(t *testing.T) {
	a, err := BuildTailorPrompt(sourceResume(), "Acme", "SRE", "Keep prod up", "Mention Go")
	require.NoError(t, err)
	b, err := BuildTailorPrompt(sourceResume(), "Acme", "SRE", "Keep prod up", "Mention Go")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Contains(t, a, "Tailor this resume for a SRE position at Acme.")
	assert.Contains(t, a, "## JOB DESCRIPTION:\n```\nKeep prod up\n```")
	assert.Contains(t, a, "## ADDITIONAL INSTRUCTIONS FROM USER:\nMention Go")
	assert.Contains(t, a, `"company": "Initech"`)
	assert.NotContains(t, a, "{{.")
}

func TestBuildTailorPrompt_OmitsBlankSections(t *testing.T) {
	p, err := BuildTailorPrompt(sourceResume(), "Acme", "SRE", "  ", "")
	require.NoError(t, err)
	assert.NotContains(t, p, "## JOB DESCRIPTION:")
	assert.NotContains(t, p, "## ADDITIONAL INSTRUCTIONS FROM USER:")
	assert.NotContains(t, p, "{{.")
}

func TestBuildModifyPrompt(t *testing.T) {
	p, err := BuildModifyPrompt(sourceResume(), "  Drop the Python skill  ", "")
	require.NoError(t, err)
	assert.Contains(t, p, "## USER INSTRUCTIONS:\nDrop the Python skill\n")
	assert.NotContains(t, p, "## TARGET JOB DESCRIPTION:")

	withJD, err := BuildModifyPrompt(sourceResume(), "Drop the Python skill", "Go only shop")
	require.NoError(t, err)
	assert.Contains(t, withJD, "## TARGET JOB DESCRIPTION:\n```\nGo only shop\n```")
}
