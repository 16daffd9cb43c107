package model

import (
	"strings"
)

// Platform values accepted in SubmissionInput.Platforms
const (
	PlatformWeb     = "Web"
	PlatformIOS     = "iOS"
	PlatformAndroid = "Android"
	PlatformDesktop = "Desktop"
	PlatformAPI     = "API"
	PlatformCLI     = "CLI"
	PlatformOther   = "Other"
)

// Platforms lists every accepted platform in display order.
var Platforms = []string{
	PlatformWeb, PlatformIOS, PlatformAndroid, PlatformDesktop, PlatformAPI, PlatformCLI, PlatformOther,
}

// DefaultLanguage is used when a submission leaves the language empty.
const DefaultLanguage = "English"

// Languages lists every accepted submission language.
var Languages = []string{
	"English", "Spanish", "French", "German", "Portuguese", "Chinese", "Japanese", "Other",
}

// SubmissionInput is the user-supplied form for one submission
type SubmissionInput struct {
	ProjectName  string   `json:"project_name"`
	Summary      string   `json:"summary"`
	Features     string   `json:"features"`
	UseCases     string   `json:"use_cases"`
	Platforms    []string `json:"platforms"`
	Audience     string   `json:"audience"`
	URL          string   `json:"url,omitempty"`
	ContactEmail string   `json:"contact_email,omitempty"`
	Tags         string   `json:"tags"`
	Language     string   `json:"language"`
}

// Normalize returns a copy with text fields trimmed, platforms de-duplicated
// in first-seen order and the language defaulted.
func (in SubmissionInput) Normalize() SubmissionInput {
	out := in
	out.ProjectName = strings.TrimSpace(in.ProjectName)
	out.Summary = strings.TrimSpace(in.Summary)
	out.Features = strings.TrimSpace(in.Features)
	out.UseCases = strings.TrimSpace(in.UseCases)
	out.Audience = strings.TrimSpace(in.Audience)
	out.URL = strings.TrimSpace(in.URL)
	out.ContactEmail = strings.TrimSpace(in.ContactEmail)
	out.Tags = strings.TrimSpace(in.Tags)
	out.Language = strings.TrimSpace(in.Language)
	if out.Language == "" {
		out.Language = DefaultLanguage
	}

	out.Platforms = nil
	seen := make(map[string]bool, len(in.Platforms))
	for _, p := range in.Platforms {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out.Platforms = append(out.Platforms, p)
	}
	return out
}

// Validate checks required fields and enum values. It does not normalize.
func (in SubmissionInput) Validate() error {
	if in.ProjectName == "" {
		return &ValidationError{Field: "project_name", Reason: "is required"}
	}
	if in.Summary == "" {
		return &ValidationError{Field: "summary", Reason: "is required"}
	}
	for _, p := range in.Platforms {
		if !contains(Platforms, p) {
			return &ValidationError{Field: "platforms", Reason: "unknown platform " + p}
		}
	}
	if in.Language != "" && !contains(Languages, in.Language) {
		return &ValidationError{Field: "language", Reason: "unknown language " + in.Language}
	}
	return nil
}

// PlatformList joins platforms the way they are rendered and stored.
func (in SubmissionInput) PlatformList() string {
	return strings.Join(in.Platforms, ", ")
}

// TagList splits the comma-separated tags, dropping empty entries.
func (in SubmissionInput) TagList() []string {
	var tags []string
	for _, t := range strings.Split(in.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// DraftState carries machine-drafted text between enrichment calls and the
// final submission. A nil field means no draft exists for it.
type DraftState struct {
	Summary  *string `json:"summary,omitempty"`
	UseCases *string `json:"use_cases,omitempty"`
}

// WithSummary returns a copy whose summary draft is replaced
func (d DraftState) WithSummary(s string) DraftState {
	d.Summary = &s
	return d
}

// WithUseCases returns a copy whose use-cases draft is replaced
func (d DraftState) WithUseCases(s string) DraftState {
	d.UseCases = &s
	return d
}

// IsEmpty reports whether no draft is held.
func (d DraftState) IsEmpty() bool {
	return d.Summary == nil && d.UseCases == nil
}

// Apply fills empty input fields from the draft. Non-empty user values win.
func (d DraftState) Apply(in SubmissionInput) SubmissionInput {
	if strings.TrimSpace(in.Summary) == "" && d.Summary != nil {
		in.Summary = *d.Summary
	}
	if strings.TrimSpace(in.UseCases) == "" && d.UseCases != nil {
		in.UseCases = *d.UseCases
	}
	return in
}

// Artifact is the rendered document of one submission.
type Artifact struct {
	Bytes            []byte `json:"-"`
	FileName         string `json:"file_name"`
	StorageReference string `json:"storage_reference,omitempty"`
}

// PersistedRow is the durable record of a submission
type PersistedRow struct {
	ID             string `json:"id"`
	ProjectName    string `json:"project_name"`
	Summary        string `json:"summary"`
	Features       string `json:"features"`
	UseCases       string `json:"use_cases"`
	Platforms      string `json:"platforms"`
	Audience       string `json:"audience"`
	URL            string `json:"url"`
	ContactEmail   string `json:"contact_email"`
	Tags           string `json:"tags"`
	Language       string `json:"language"`
	SubmissionDate string `json:"submission_date"`
	PDFURL         string `json:"pdf_url"`
}

// NewPersistedRow flattens a validated input into a row.
func NewPersistedRow(in SubmissionInput, submissionDate, pdfURL string) PersistedRow {
	return PersistedRow{
		ProjectName:    in.ProjectName,
		Summary:        in.Summary,
		Features:       in.Features,
		UseCases:       in.UseCases,
		Platforms:      in.PlatformList(),
		Audience:       in.Audience,
		URL:            in.URL,
		ContactEmail:   in.ContactEmail,
		Tags:           in.Tags,
		Language:       in.Language,
		SubmissionDate: submissionDate,
		PDFURL:         pdfURL,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
