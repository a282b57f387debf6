package generation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-versions/internal/history"
	"github.com/jonathan/resume-versions/internal/llm"
	"github.com/jonathan/resume-versions/internal/store"
	"github.com/jonathan/resume-versions/internal/types"
)

func sourceResume() types.ResumeData {
	return types.ResumeData{
		PersonalDetails: types.PersonalDetails{FullName: "Jane Doe", Title: "Software Engineer"},
		Summary:         "Engineer with payments background",
		Skills:          []types.Skill{{Category: "Languages", Items: []string{"Go", "Python"}}},
		Experience: []types.Experience{
			{Company: "Initech", Position: "Senior Engineer", Duration: "2021 - Present", Achievements: []string{"Built ledger service"}},
			{Company: "Globex", Position: "Engineer", Duration: "2018 - 2021", Achievements: []string{"Maintained billing"}},
		},
		Education: []types.Education{{Institution: "State University", Degree: "BSc Computer Science"}},
	}
}

func tailoredResponse(t *testing.T, summary string, changeSummary string) string {
	t.Helper()
	resume := sourceResume()
	resume.Summary = summary
	resume.Experience[0], resume.Experience[1] = resume.Experience[1], resume.Experience[0]
	body := map[string]any{
		"resumeData": resume,
		"changes": []types.ChangeDetail{
			{Section: "summary", Field: "summary", Description: "Focused on platform work"},
		},
	}
	if changeSummary != "" {
		body["changeSummary"] = changeSummary
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return "```json\n" + string(data) + "\n```"
}

type fixture struct {
	client  *scriptedClient
	store   *store.MemoryStore
	manager *history.Manager
	orch    *Orchestrator
}

func newFixture(t *testing.T, client *scriptedClient, opts ...Option) *fixture {
	t.Helper()
	s := store.NewMemoryStore(nil)
	m := history.NewManager(s, nil)
	return &fixture{client: client, store: s, manager: m, orch: NewOrchestrator(client, m, nil, opts...)}
}

func (f *fixture) seed(t *testing.T) *types.CompanyVersion {
	t.Helper()
	v, err := f.manager.CreateCompany(context.Background(), types.CreateCompanyRequest{
		CompanyName:    "Acme",
		JobTitle:       "Platform Engineer",
		JobDescription: "Run Kubernetes at scale",
		Notes:          "recruiter: Pat",
		ResumeData:     sourceResume(),
	})
	require.NoError(t, err)
	return v
}

func TestTailorNew(t *testing.T) {
	client := &scriptedClient{responses: []string{tailoredResponse(t, "Platform engineer", "Reframed for platform roles.")}}
	f := newFixture(t, client)

	result, err := f.orch.TailorNew(context.Background(), types.TailorRequest{
		CompanyName:    "Acme",
		JobTitle:       "Platform Engineer",
		ResumeData:     sourceResume(),
		JobDescription: "Run Kubernetes at scale",
		Instructions:   "Emphasize on-call experience",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Version)

	v := result.Version
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, types.BaseVersionCustom, v.BaseVersionID)
	assert.Equal(t, "Emphasize on-call experience", v.Notes)
	assert.Equal(t, "Run Kubernetes at scale", v.JobDescription)
	assert.Equal(t, "Reframed for platform roles.", v.ChangeSummary)
	require.Len(t, v.Changes, 1)
	assert.Equal(t, "Platform engineer", result.ResumeData.Summary)
	assert.Equal(t, "Globex", result.ResumeData.Experience[0].Company)

	call := client.lastCall()
	assert.Equal(t, llm.TierAdvanced, call.Tier)
	assert.Contains(t, call.System, "Never invent employers")
	assert.Equal(t, call.Prompt, v.LLMPromptUsed)
	assert.Contains(t, call.Prompt, "Platform Engineer position at Acme")
	assert.Contains(t, call.Prompt, "## JOB DESCRIPTION:")
	assert.Contains(t, call.Prompt, "Emphasize on-call experience")

	h, err := f.manager.GetHistory(context.Background(), v.CompanyID)
	require.NoError(t, err)
	assert.Len(t, h.Versions, 1)
}

func TestTailorNew_DefaultsChangeSummary(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"resumeData": {"personalDetails": {"fullName": "Jane Doe"}}}`}}
	f := newFixture(t, client)

	result, err := f.orch.TailorNew(context.Background(), types.TailorRequest{CompanyName: "Acme", JobTitle: "SRE", ResumeData: sourceResume()})
	require.NoError(t, err)
	assert.Equal(t, DefaultChangeSummary, result.Version.ChangeSummary)
	assert.Empty(t, result.Version.Changes)
	assert.Empty(t, result.Version.Notes)
}

func TestTailorNew_ValidationBeforeCall(t *testing.T) {
	client := &scriptedClient{}
	f := newFixture(t, client)

	_, err := f.orch.TailorNew(context.Background(), types.TailorRequest{JobTitle: "SRE"})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "companyName", vErr.Field)

	_, err = f.orch.TailorNew(context.Background(), types.TailorRequest{CompanyName: "Acme", JobTitle: "SRE"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "resumeData", vErr.Field)
	assert.Zero(t, client.callCount())

	metas, err := f.manager.ListMetas(context.Background())
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestTailorNew_FetchesJobURL(t *testing.T) {
	client := &scriptedClient{responses: []string{tailoredResponse(t, "x", "")}}
	fetcher := &stubFetcher{text: "We need a Go engineer for our payments team"}
	f := newFixture(t, client, WithJobFetcher(fetcher))

	result, err := f.orch.TailorNew(context.Background(), types.TailorRequest{
		CompanyName: "Acme",
		JobTitle:    "Engineer",
		ResumeData:  sourceResume(),
		JobURL:      "https://jobs.example.com/42",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://jobs.example.com/42"}, fetcher.urls)
	assert.Equal(t, fetcher.text, result.Version.JobDescription)
	assert.Contains(t, client.lastCall().Prompt, fetcher.text)
}

func TestTailorNew_JobURLFailures(t *testing.T) {
	client := &scriptedClient{}

	f := newFixture(t, client)
	_, err := f.orch.TailorNew(context.Background(), types.TailorRequest{
		CompanyName: "Acme", JobTitle: "Engineer", JobURL: "https://jobs.example.com/42",
	})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "jobUrl", vErr.Field)

	f = newFixture(t, client, WithJobFetcher(&stubFetcher{err: errors.New("HTTP 404")}))
	_, err = f.orch.TailorNew(context.Background(), types.TailorRequest{
		CompanyName: "Acme", JobTitle: "Engineer", JobURL: "https://jobs.example.com/42",
	})
	assert.True(t, IsKind(err, KindUnavailable))
	assert.Zero(t, client.callCount())
}

func TestModify(t *testing.T) {
	client := &scriptedClient{responses: []string{tailoredResponse(t, "Shorter summary", "Shortened summary.")}}
	f := newFixture(t, client)
	v1 := f.seed(t)

	result, err := f.orch.Modify(context.Background(), types.ModifyRequest{
		CompanyID:    v1.CompanyID,
		Instructions: "Make the summary shorter",
	})
	require.NoError(t, err)

	v2 := result.Version
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, v1.ID, v2.BaseVersionID)
	assert.Equal(t, "Run Kubernetes at scale", v2.JobDescription)
	assert.Equal(t, "recruiter: Pat", v2.Notes)
	assert.Equal(t, "Platform Engineer", v2.JobTitle)
	assert.Equal(t, "Shortened summary.", v2.ChangeSummary)

	prompt := client.lastCall().Prompt
	assert.Contains(t, prompt, "## USER INSTRUCTIONS:\nMake the summary shorter")
	assert.Contains(t, prompt, "## TARGET JOB DESCRIPTION:")
	assert.Equal(t, prompt, v2.LLMPromptUsed)

	h, err := f.manager.GetHistory(context.Background(), v1.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, h.CurrentVersionID)
}

func TestModify_HistoricalVersionAndNewDescription(t *testing.T) {
	client := &scriptedClient{responses: []string{tailoredResponse(t, "a", ""), tailoredResponse(t, "b", "")}}
	f := newFixture(t, client)
	v1 := f.seed(t)
	ctx := context.Background()

	_, err := f.orch.Modify(ctx, types.ModifyRequest{CompanyID: v1.CompanyID, Instructions: "first pass"})
	require.NoError(t, err)

	newJD := "Lead the SRE team"
	result, err := f.orch.Modify(ctx, types.ModifyRequest{
		CompanyID:      v1.CompanyID,
		VersionID:      v1.ID,
		Instructions:   "start over from the original",
		JobDescription: &newJD,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Version.Version)
	assert.Equal(t, v1.ID, result.Version.BaseVersionID)
	assert.Equal(t, newJD, result.Version.JobDescription)
	assert.Contains(t, client.lastCall().Prompt, "Engineer with payments background")
	assert.Contains(t, client.lastCall().Prompt, newJD)
}

func TestModify_BlankInstructionsRejectedBeforeCall(t *testing.T) {
	client := &scriptedClient{responses: []string{tailoredResponse(t, "x", "")}}
	f := newFixture(t, client)
	v1 := f.seed(t)
	before, _ := f.store.Raw(v1.CompanyID)

	_, err := f.orch.Modify(context.Background(), types.ModifyRequest{CompanyID: v1.CompanyID, Instructions: "   "})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "instructions", vErr.Field)
	assert.Zero(t, client.callCount())

	after, _ := f.store.Raw(v1.CompanyID)
	assert.Equal(t, before, after)
}

func TestModify_NotFound(t *testing.T) {
	client := &scriptedClient{}
	f := newFixture(t, client)
	v1 := f.seed(t)

	_, err := f.orch.Modify(context.Background(), types.ModifyRequest{CompanyID: "missing", Instructions: "x"})
	var nfErr *types.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "company", nfErr.Resource)

	_, err = f.orch.Modify(context.Background(), types.ModifyRequest{CompanyID: v1.CompanyID, VersionID: "missing", Instructions: "x"})
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "version", nfErr.Resource)
	assert.Zero(t, client.callCount())
}

func TestModify_CompanyDeletedDuringGeneration(t *testing.T) {
	client := &scriptedClient{responses: []string{tailoredResponse(t, "x", "")}}
	f := newFixture(t, client)
	v1 := f.seed(t)
	client.onCall = func() {
		_, _ = f.manager.DeleteCompany(context.Background(), v1.CompanyID)
	}

	_, err := f.orch.Modify(context.Background(), types.ModifyRequest{CompanyID: v1.CompanyID, Instructions: "x"})
	var nfErr *types.NotFoundError
	require.ErrorAs(t, err, &nfErr)

	_, ok := f.store.Raw(v1.CompanyID)
	assert.False(t, ok)
}

func TestModify_FailuresPersistNothing(t *testing.T) {
	fabricated := sourceResume()
	fabricated.Experience = append(fabricated.Experience, types.Experience{Company: "Google", Position: "Staff Engineer", Duration: "2015 - 2018"})
	fabricatedJSON, err := json.Marshal(map[string]any{"resumeData": fabricated})
	require.NoError(t, err)

	tests := []struct {
		name   string
		client *scriptedClient
		kind   Kind
	}{
		{"prose instead of JSON", &scriptedClient{responses: []string{"I'm sorry, I can't help with that."}}, KindUnparseable},
		{"truncated JSON", &scriptedClient{responses: []string{`{"resumeData": {"personalDetails": {}`}}, KindUnparseable},
		{"wrong shape", &scriptedClient{responses: []string{`{"resume": {}}`}}, KindUnparseable},
		{"chatter around JSON", &scriptedClient{responses: []string{"Here is a draft: " + tailoredResponse(t, "x", "") + " Let me know!"}}, KindUnparseable},
		{"two JSON values", &scriptedClient{responses: []string{tailoredResponse(t, "a", "") + tailoredResponse(t, "b", "")}}, KindUnparseable},
		{"prose after fence", &scriptedClient{responses: []string{tailoredResponse(t, "x", "") + "\nHope this helps"}}, KindUnparseable},
		{"empty response", &scriptedClient{}, KindUnparseable},
		{"fabricated employer", &scriptedClient{responses: []string{string(fabricatedJSON)}}, KindFabricated},
		{"rejected", &scriptedClient{errs: []error{&llm.RejectedError{Provider: llm.ProviderGemini, Reason: "content blocked"}}}, KindRejected},
		{"unavailable", &scriptedClient{errs: []error{errors.New("dial tcp: connection refused")}}, KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.client)
			v1 := f.seed(t)
			ctx := context.Background()
			before, _ := f.store.Raw(v1.CompanyID)
			metasBefore, err := f.manager.ListMetas(ctx)
			require.NoError(t, err)

			result, err := f.orch.Modify(ctx, types.ModifyRequest{CompanyID: v1.CompanyID, Instructions: "tailor it"})
			assert.Nil(t, result)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)

			after, _ := f.store.Raw(v1.CompanyID)
			assert.Equal(t, before, after)
			metasAfter, err := f.manager.ListMetas(ctx)
			require.NoError(t, err)
			assert.Equal(t, metasBefore, metasAfter)
		})
	}
}

func TestTailorNew_MalformedResponseCreatesNoCompany(t *testing.T) {
	client := &scriptedClient{responses: []string{"not json"}}
	f := newFixture(t, client)

	_, err := f.orch.TailorNew(context.Background(), types.TailorRequest{CompanyName: "Acme", JobTitle: "SRE", ResumeData: sourceResume()})
	assert.True(t, IsKind(err, KindUnparseable))

	metas, err := f.manager.ListMetas(context.Background())
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestGenerate_Timeout(t *testing.T) {
	client := &scriptedClient{waitForDeadline: true}
	f := newFixture(t, client, WithTimeout(10*time.Millisecond))
	v1 := f.seed(t)
	before, _ := f.store.Raw(v1.CompanyID)

	_, err := f.orch.Modify(context.Background(), types.ModifyRequest{CompanyID: v1.CompanyID, Instructions: "x"})
	require.True(t, IsKind(err, KindTimeout), "got %v", err)

	var gErr *GenerationError
	require.ErrorAs(t, err, &gErr)
	assert.True(t, gErr.Retryable())

	after, _ := f.store.Raw(v1.CompanyID)
	assert.Equal(t, before, after)
}

func TestGenerate_CancelledBeforeSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &scriptedClient{responses: []string{tailoredResponse(t, "x", "")}}
	f := newFixture(t, client)
	v1 := f.seed(t)
	before, _ := f.store.Raw(v1.CompanyID)

	// the caller walks away after the collaborator has already answered
	client.onCall = cancel

	_, err := f.orch.Modify(ctx, types.ModifyRequest{CompanyID: v1.CompanyID, Instructions: "x"})
	require.True(t, IsKind(err, KindCancelled), "got %v", err)

	var gErr *GenerationError
	require.ErrorAs(t, err, &gErr)
	assert.False(t, gErr.Retryable())

	after, _ := f.store.Raw(v1.CompanyID)
	assert.Equal(t, before, after)
}

func TestGenerationError_Message(t *testing.T) {
	err := &GenerationError{Kind: KindUnparseable, Message: "empty response"}
	assert.Equal(t, "generation unparseable: empty response", err.Error())

	wrapped := &GenerationError{Kind: KindUnavailable, Message: "generation service unavailable", Cause: errors.New("EOF")}
	assert.Equal(t, "generation unavailable: generation service unavailable: EOF", wrapped.Error())
	assert.False(t, IsKind(errors.New("plain"), KindUnavailable))
}
