// Package generation turns user intent into a validated, persisted company version by calling
// the LLM collaborator. A successful call persists exactly one version; a failed call persists
// nothing.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/resume-versions/internal/llm"
	"github.com/jonathan/resume-versions/internal/logger"
	"github.com/jonathan/resume-versions/internal/types"
)

// DefaultTimeout bounds a single collaborator call
const DefaultTimeout = 2 * time.Minute

// VersionWriter is the part of the history manager the orchestrator persists through
type VersionWriter interface {
	CreateCompany(ctx context.Context, req types.CreateCompanyRequest) (*types.CompanyVersion, error)
	AddVersion(ctx context.Context, companyID string, req types.AddVersionRequest) (*types.CompanyVersion, error)
	GetVersion(ctx context.Context, companyID, versionID string) (*types.CompanyVersion, error)
	CurrentVersion(ctx context.Context, companyID string) (*types.CompanyVersion, error)
}

// JobFetcher resolves a job posting URL into plain description text
type JobFetcher interface {
	FetchJobDescription(ctx context.Context, url string) (string, error)
}

// Result is a persisted version and its resume snapshot
type Result struct {
	Version    *types.CompanyVersion `json:"version"`
	ResumeData types.ResumeData      `json:"resumeData"`
}

// Orchestrator coordinates prompt building, the collaborator call and persistence
type Orchestrator struct {
	client   llm.Client
	versions VersionWriter
	fetcher  JobFetcher
	log      *logger.Logger
	timeout  time.Duration
	tier     llm.ModelTier
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTimeout sets the per-call deadline. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithTier selects the model tier used for generation
func WithTier(tier llm.ModelTier) Option {
	return func(o *Orchestrator) {
		o.tier = tier
	}
}

// WithJobFetcher enables jobUrl resolution
func WithJobFetcher(f JobFetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = f
	}
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(client llm.Client, versions VersionWriter, log *logger.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	o := &Orchestrator{
		client:   client,
		versions: versions,
		log:      log,
		timeout:  DefaultTimeout,
		tier:     llm.TierAdvanced,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TailorNew generates a tailored resume for a company that has no history yet and persists it
// as that company's first version. The user instructions are kept as the version's notes.
func (o *Orchestrator) TailorNew(ctx context.Context, req types.TailorRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	jobDescription, err := o.resolveJobDescription(ctx, req.JobDescription, req.JobURL)
	if err != nil {
		return nil, err
	}

	prompt, err := BuildTailorPrompt(req.ResumeData, req.CompanyName, req.JobTitle, jobDescription, req.Instructions)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := o.generate(ctx, "new", prompt, req.ResumeData)
	if err != nil {
		return nil, err
	}

	baseVersionID := req.BaseVersionID
	if baseVersionID == "" {
		baseVersionID = types.BaseVersionCustom
	}
	version, err := o.versions.CreateCompany(ctx, types.CreateCompanyRequest{
		CompanyName:    req.CompanyName,
		JobTitle:       req.JobTitle,
		JobDescription: jobDescription,
		Notes:          strings.TrimSpace(req.Instructions),
		BaseVersionID:  baseVersionID,
		ResumeData:     resp.ResumeData,
		LLMPromptUsed:  prompt,
		ChangeSummary:  resp.ChangeSummary,
		Changes:        resp.Changes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save generated version: %w", err)
	}

	o.log.Info("tailored version created",
		"company_id", version.CompanyID,
		"version_id", version.ID,
		"changes", len(resp.Changes),
	)
	return &Result{Version: version, ResumeData: version.ResumeData}, nil
}

// Modify revises an existing version according to the user's instructions and appends the
// result as the company's new current version. Blank instructions are rejected before the
// collaborator is called.
func (o *Orchestrator) Modify(ctx context.Context, req types.ModifyRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	source, err := o.sourceVersion(ctx, req.CompanyID, req.VersionID)
	if err != nil {
		return nil, err
	}

	var jobDescriptionOverride *string
	jobDescription := source.JobDescription
	if req.JobDescription != nil || req.JobURL != "" {
		override := ""
		if req.JobDescription != nil {
			override = *req.JobDescription
		}
		resolved, err := o.resolveJobDescription(ctx, override, req.JobURL)
		if err != nil {
			return nil, err
		}
		jobDescription = resolved
		jobDescriptionOverride = &resolved
	}

	prompt, err := BuildModifyPrompt(source.ResumeData, req.Instructions, jobDescription)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := o.generate(ctx, "modify", prompt, source.ResumeData)
	if err != nil {
		return nil, err
	}

	version, err := o.versions.AddVersion(ctx, req.CompanyID, types.AddVersionRequest{
		ResumeData:     resp.ResumeData,
		JobDescription: jobDescriptionOverride,
		BaseVersionID:  source.ID,
		LLMPromptUsed:  prompt,
		ChangeSummary:  resp.ChangeSummary,
		Changes:        resp.Changes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save generated version: %w", err)
	}
	if version == nil {
		// company deleted while the collaborator was working
		return nil, &types.NotFoundError{Resource: "company", ID: req.CompanyID}
	}

	o.log.Info("modified version created",
		"company_id", version.CompanyID,
		"version_id", version.ID,
		"version", version.Version,
		"base_version_id", source.ID,
	)
	return &Result{Version: version, ResumeData: version.ResumeData}, nil
}

func (o *Orchestrator) sourceVersion(ctx context.Context, companyID, versionID string) (*types.CompanyVersion, error) {
	if versionID == "" {
		v, err := o.versions.CurrentVersion(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load current version: %w", err)
		}
		if v == nil {
			return nil, &types.NotFoundError{Resource: "company", ID: companyID}
		}
		return v, nil
	}

	v, err := o.versions.GetVersion(ctx, companyID, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load version: %w", err)
	}
	if v == nil {
		return nil, &types.NotFoundError{Resource: "version", ID: versionID}
	}
	return v, nil
}

// resolveJobDescription prefers explicit text and falls back to fetching jobURL
func (o *Orchestrator) resolveJobDescription(ctx context.Context, jobDescription, jobURL string) (string, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription != "" || jobURL == "" {
		return jobDescription, nil
	}
	if o.fetcher == nil {
		return "", &types.ValidationError{Field: "jobUrl", Message: "is not supported"}
	}

	text, err := o.fetcher.FetchJobDescription(ctx, jobURL)
	if err != nil {
		return "", &GenerationError{Kind: KindUnavailable, Message: "failed to fetch job posting", Cause: err}
	}
	return text, nil
}

// generate calls the collaborator once, validates the response and checks it against the
// source resume. The result is discarded if the caller's context ended in the meantime.
func (o *Orchestrator) generate(ctx context.Context, mode, prompt string, source types.ResumeData) (*Response, error) {
	system, err := SystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}

	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := o.client.GenerateJSON(callCtx, llm.Request{System: system, Prompt: prompt, Tier: o.tier})
	if err != nil {
		gErr := classifyCallError(ctx, callCtx, err)
		o.log.Warn("generation failed",
			"mode", mode,
			"kind", gErr.Kind,
			"model", o.client.GetModel(o.tier),
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return nil, gErr
	}

	resp, err := ParseResponse(raw)
	if err == nil {
		err = CheckFabrication(source, resp.ResumeData)
	}
	if err != nil {
		var gErr *GenerationError
		if errors.As(err, &gErr) {
			o.log.Warn("generation response rejected", "mode", mode, "kind", gErr.Kind, "error", err)
		}
		return nil, err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &GenerationError{Kind: KindCancelled, Message: "request ended before the result was saved", Cause: ctxErr}
	}

	o.log.Debug("generation succeeded",
		"mode", mode,
		"model", o.client.GetModel(o.tier),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return resp, nil
}

// classifyCallError maps a collaborator failure to a GenerationError kind
func classifyCallError(parent, call context.Context, err error) *GenerationError {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return &GenerationError{Kind: KindCancelled, Message: "request cancelled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(call.Err(), context.DeadlineExceeded):
		return &GenerationError{Kind: KindTimeout, Message: "generation timed out", Cause: err}
	case llm.IsRejected(err):
		return &GenerationError{Kind: KindRejected, Message: "request rejected by the generation service", Cause: err}
	case errors.Is(err, llm.ErrNoContent):
		return &GenerationError{Kind: KindUnparseable, Message: "empty response", Cause: err}
	default:
		return &GenerationError{Kind: KindUnavailable, Message: "generation service unavailable", Cause: err}
	}
}
