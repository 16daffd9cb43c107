package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/AnTengye/projectbrief/config"
	"github.com/AnTengye/projectbrief/model"
	"github.com/AnTengye/projectbrief/pkg/logger"
	"github.com/AnTengye/projectbrief/pkg/metrics"
)

// State is a step of the submission pipeline.
type State string

const (
	StateEmpty          State = "empty"
	StateDrafting       State = "drafting"
	StateEnriching      State = "enriching"
	StateValidated      State = "validated"
	StateRendering      State = "rendering"
	StateUploading      State = "uploading"
	StatePersisting     State = "persisting"
	StateDone           State = "done"
	StateRejectedInput  State = "rejected_input"
	StatePartialFailure State = "partial_failure"
)

// Enrichment targets
const (
	TargetSummary  = "summary"
	TargetUseCases = "use_cases"
	TargetReport   = "report"
)

// StoragePolicy decides what a failed upload does to the rest of a submission.
type StoragePolicy int

const (
	// ContinueOnStorageFailure persists the row with an empty pdf_url.
	ContinueOnStorageFailure StoragePolicy = iota
	// HaltOnStorageFailure stops the submission in PartialFailure.
	HaltOnStorageFailure
)

// ParseStoragePolicy maps the pipeline.storage_failure setting to a policy.
func ParseStoragePolicy(s string) (StoragePolicy, error) {
	switch s {
	case "", config.StorageFailureContinue:
		return ContinueOnStorageFailure, nil
	case config.StorageFailureHalt:
		return HaltOnStorageFailure, nil
	}
	return ContinueOnStorageFailure, fmt.Errorf("unknown storage failure policy %q", s)
}

func (p StoragePolicy) String() string {
	if p == HaltOnStorageFailure {
		return config.StorageFailureHalt
	}
	return config.StorageFailureContinue
}

const pdfContentType = "application/pdf"

// Result describes one submission attempt. Artifact bytes are kept whatever
// state the attempt ends in, once rendering succeeded.
type Result struct {
	State      State                 `json:"state"`
	Trace      []State               `json:"trace"`
	Input      model.SubmissionInput `json:"-"`
	Row        *model.PersistedRow   `json:"row,omitempty"`
	Artifact   model.Artifact        `json:"artifact"`
	StorageErr error                 `json:"-"`
	Banner     model.Banner          `json:"banner"`
}

func (r *Result) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

// Pipeline turns form input into a rendered, stored and recorded submission.
type Pipeline struct {
	renderer  Renderer
	artifacts ArtifactStore
	records   RecordStore
	enricher  Enricher
	policy    StoragePolicy
	now       func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

func WithStoragePolicy(p StoragePolicy) PipelineOption {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithClock replaces time.Now for file names and submission dates.
func WithClock(now func() time.Time) PipelineOption {
	return func(pl *Pipeline) { pl.now = now }
}

func NewPipeline(renderer Renderer, artifacts ArtifactStore, records RecordStore, enricher Enricher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		renderer:  renderer,
		artifacts: artifacts,
		records:   records,
		enricher:  enricher,
		policy:    ContinueOnStorageFailure,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnrichSummary drafts the summary field. On failure the given draft is
// returned unchanged together with an EnrichmentError.
func (p *Pipeline) EnrichSummary(ctx context.Context, draft model.DraftState, in model.SubmissionInput) (model.DraftState, error) {
	text, err := p.enrich(ctx, TargetSummary, BuildSummaryPrompt(in.Normalize()))
	if err != nil {
		return draft, err
	}
	return draft.WithSummary(text), nil
}

// EnrichUseCases drafts the use-cases field. A drafted summary is used when
// the input has none.
func (p *Pipeline) EnrichUseCases(ctx context.Context, draft model.DraftState, in model.SubmissionInput) (model.DraftState, error) {
	in = draft.Apply(in).Normalize()
	text, err := p.enrich(ctx, TargetUseCases, BuildUseCasesPrompt(in))
	if err != nil {
		return draft, err
	}
	return draft.WithUseCases(text), nil
}

func (p *Pipeline) enrich(ctx context.Context, target, prompt string) (string, error) {
	text, err := p.enricher.Complete(ctx, prompt)
	metrics.EnrichmentsTotal.WithLabelValues(target, metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Warn(ctx, "Enrichment failed", "target", target, "error", err)
		return "", &model.EnrichmentError{Target: target, Err: err}
	}
	logger.Debug(ctx, "Enrichment completed", "target", target, "length", len(text))
	return text, nil
}

// Submit validates, renders, uploads and records one submission. The
// returned error is nil only when the result reached StateDone.
func (p *Pipeline) Submit(ctx context.Context, in model.SubmissionInput, draft model.DraftState) (*Result, error) {
	res := &Result{}
	res.enter(StateEmpty)
	res.enter(StateDrafting)

	in, err := p.prepare(in, draft)
	res.Input = in
	if err != nil {
		return p.finish(ctx, res, StateRejectedInput, model.ErrorBanner(err.Error())), err
	}
	res.enter(StateValidated)
	ctx = logger.WithProject(ctx, in.ProjectName)

	res.enter(StateRendering)
	now := p.now().UTC()
	data, err := p.renderer.Render(BuildBody(in))
	if err != nil {
		err = fmt.Errorf("render: %w", err)
		return p.finish(ctx, res, StatePartialFailure, model.ErrorBanner("Failed to render PDF: "+err.Error())), err
	}
	res.Artifact = model.Artifact{Bytes: data, FileName: FileName(in.ProjectName, now)}

	res.enter(StateUploading)
	ref, err := p.artifacts.Upload(ctx, res.Artifact.FileName, data, pdfContentType)
	metrics.UploadsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Warn(ctx, "PDF upload failed", "file", res.Artifact.FileName, "policy", p.policy.String(), "error", err)
		res.StorageErr = err
		if p.policy == HaltOnStorageFailure {
			return p.finish(ctx, res, StatePartialFailure, model.ErrorBanner("PDF upload failed: "+err.Error())), err
		}
	} else {
		res.Artifact.StorageReference = ref.URL
	}

	res.enter(StatePersisting)
	row := model.NewPersistedRow(in, now.Format(time.RFC3339), res.Artifact.StorageReference)
	id, err := p.records.Insert(ctx, row)
	if err != nil {
		logger.Error(ctx, "Failed to insert submission", "error", err)
		return p.finish(ctx, res, StatePartialFailure, model.ErrorBanner("Failed to save submission: "+err.Error())), err
	}
	row.ID = id
	res.Row = &row

	banner := model.SuccessBanner("Submission saved.")
	if res.StorageErr != nil {
		banner = model.WarningBanner("Submission saved, but the PDF could not be uploaded: " + res.StorageErr.Error())
	}
	return p.finish(ctx, res, StateDone, banner), nil
}

func (p *Pipeline) finish(ctx context.Context, res *Result, s State, banner model.Banner) *Result {
	res.enter(s)
	res.Banner = banner
	metrics.SubmissionsTotal.WithLabelValues(string(s)).Inc()
	logger.Info(ctx, "Submission finished", "state", s, "banner_level", banner.Level, "file", res.Artifact.FileName)
	return res
}

// Preview renders the submission without storing or recording anything.
func (p *Pipeline) Preview(in model.SubmissionInput, draft model.DraftState) (model.Artifact, error) {
	in, err := p.prepare(in, draft)
	if err != nil {
		return model.Artifact{}, err
	}
	data, err := p.renderer.Render(BuildBody(in))
	if err != nil {
		return model.Artifact{}, fmt.Errorf("render: %w", err)
	}
	return model.Artifact{Bytes: data, FileName: FileName(in.ProjectName, p.now().UTC())}, nil
}

// Report asks the enricher for a prose report of the submission and renders
// the returned text. Nothing is stored.
func (p *Pipeline) Report(ctx context.Context, in model.SubmissionInput, draft model.DraftState) (model.Artifact, error) {
	in, err := p.prepare(in, draft)
	if err != nil {
		return model.Artifact{}, err
	}
	ctx = logger.WithProject(ctx, in.ProjectName)

	text, err := p.enrich(ctx, TargetReport, BuildReportPrompt(in))
	if err != nil {
		return model.Artifact{}, err
	}
	data, err := p.renderer.Render(SplitLines(text))
	if err != nil {
		return model.Artifact{}, fmt.Errorf("render: %w", err)
	}
	name := "report_" + FileName(in.ProjectName, p.now().UTC())
	return model.Artifact{Bytes: data, FileName: name}, nil
}

func (p *Pipeline) prepare(in model.SubmissionInput, draft model.DraftState) (model.SubmissionInput, error) {
	in = draft.Apply(in).Normalize()
	if err := in.Validate(); err != nil {
		return in, err
	}
	return in, nil
}

// BuildBody lays out the document text. Every section is present, in a fixed
// order, even when its value is empty.
func BuildBody(in model.SubmissionInput) []string {
	sections := [][2]string{
		{"**Summary**", in.Summary},
		{"**Features**", in.Features},
		{"**Use Cases**", in.UseCases},
		{"**Platforms**", in.PlatformList()},
		{"**Audience**", in.Audience},
		{"**URL**", in.URL},
		{"**Tags**", in.Tags},
	}

	lines := []string{"## " + in.ProjectName, ""}
	for _, s := range sections {
		lines = append(lines, s[0])
		lines = append(lines, SplitLines(s[1])...)
		lines = append(lines, "")
	}
	return lines
}

// FileName derives the artifact name from the project and the submission time.
// Two submissions of the same project within one second collide.
func FileName(project string, t time.Time) string {
	return fmt.Sprintf("%s_%s.pdf", Slug(project), t.UTC().Format("20060102_150405"))
}

// Slug lowercases s and collapses every run of characters that are not
// letters or digits into a single underscore. Non-Latin scripts are kept.
func Slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "submission"
	}
	return b.String()
}

// IsValidation reports whether err was caused by rejected input.
func IsValidation(err error) bool {
	var ve *model.ValidationError
	return errors.As(err, &ve)
}
