package model

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	in := SubmissionInput{
		ProjectName: "  Acme ",
		Summary:     "\tAcme makes widgets\n",
		Platforms:   []string{"Web", " iOS", "Web", ""},
	}

	out := in.Normalize()

	if out.ProjectName != "Acme" {
		t.Errorf("Expected trimmed project name, got %q", out.ProjectName)
	}
	if out.Summary != "Acme makes widgets" {
		t.Errorf("Expected trimmed summary, got %q", out.Summary)
	}
	if out.Language != DefaultLanguage {
		t.Errorf("Expected default language %q, got %q", DefaultLanguage, out.Language)
	}
	if len(out.Platforms) != 2 || out.Platforms[0] != "Web" || out.Platforms[1] != "iOS" {
		t.Errorf("Expected [Web iOS], got %v", out.Platforms)
	}
	// original untouched
	if in.ProjectName != "  Acme " {
		t.Error("Normalize must not mutate the receiver")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		input     SubmissionInput
		wantField string
	}{
		{"valid", SubmissionInput{ProjectName: "Acme", Summary: "s"}, ""},
		{"missing project", SubmissionInput{Summary: "s"}, "project_name"},
		{"missing summary", SubmissionInput{ProjectName: "Acme"}, "summary"},
		{"unknown platform", SubmissionInput{ProjectName: "Acme", Summary: "s", Platforms: []string{"Amiga"}}, "platforms"},
		{"unknown language", SubmissionInput{ProjectName: "Acme", Summary: "s", Language: "Klingon"}, "language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Expected field %s, got %s", tt.wantField, ve.Field)
			}
		})
	}
}

func TestTagList(t *testing.T) {
	in := SubmissionInput{Tags: "b2b, saas,, ai "}
	tags := in.TagList()
	if len(tags) != 3 || tags[0] != "b2b" || tags[2] != "ai" {
		t.Errorf("Expected [b2b saas ai], got %v", tags)
	}
}

func TestDraftStateApply(t *testing.T) {
	draft := DraftState{}.WithSummary("drafted summary").WithUseCases("drafted cases")

	in := draft.Apply(SubmissionInput{ProjectName: "Acme"})
	if in.Summary != "drafted summary" || in.UseCases != "drafted cases" {
		t.Errorf("Expected draft values to fill empty fields, got %+v", in)
	}

	in = draft.Apply(SubmissionInput{ProjectName: "Acme", Summary: "typed"})
	if in.Summary != "typed" {
		t.Errorf("Expected user value to win, got %q", in.Summary)
	}
}

func TestDraftStateWithSummaryOverwrites(t *testing.T) {
	first := DraftState{}.WithSummary("one")
	second := first.WithSummary("two")

	if *first.Summary != "one" {
		t.Error("Expected earlier draft value to be untouched")
	}
	if *second.Summary != "two" {
		t.Errorf("Expected last write to win, got %q", *second.Summary)
	}
	if second.UseCases != nil {
		t.Error("Expected use-cases draft to stay empty")
	}
}

func TestNewPersistedRow(t *testing.T) {
	in := SubmissionInput{
		ProjectName: "Acme",
		Summary:     "Acme makes widgets",
		Platforms:   []string{"Web", "API"},
		Tags:        "b2b",
		Language:    "English",
	}
	row := NewPersistedRow(in, "2026-01-02T03:04:05Z", "")
	if row.Platforms != "Web, API" {
		t.Errorf("Expected platforms 'Web, API', got %q", row.Platforms)
	}
	if row.PDFURL != "" {
		t.Errorf("Expected empty pdf url, got %q", row.PDFURL)
	}
	if row.SubmissionDate != "2026-01-02T03:04:05Z" {
		t.Errorf("Unexpected submission date %q", row.SubmissionDate)
	}
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	errs := []error{
		&EnrichmentError{Target: "summary", Err: base},
		&StorageError{Op: "upload", Path: "a.pdf", Err: base},
		&StoreError{Op: "insert", Err: base},
	}
	for _, err := range errs {
		if !errors.Is(err, base) {
			t.Errorf("Expected %T to unwrap to base error", err)
		}
	}
}
