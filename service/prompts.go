package service

import (
	"fmt"
	"strings"

	"github.com/AnTengye/projectbrief/model"
)

const (
	summaryMarker = "project summary writer"
	useCaseMarker = "use-case writer"
	reportMarker  = "report assistant"
	notProvided   = "(not provided)"
)

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}

// BuildSummaryPrompt asks for a short pitch of the project.
func BuildSummaryPrompt(in model.SubmissionInput) string {
	return fmt.Sprintf(`You are a %s. Write a concise summary (2-4 sentences) of the project below.
Write in %s. Output only the summary text.

Project name: %s
Features: %s
Audience: %s
Platforms: %s
URL: %s`,
		summaryMarker,
		orNotProvided(in.Language),
		in.ProjectName,
		orNotProvided(in.Features),
		orNotProvided(in.Audience),
		orNotProvided(in.PlatformList()),
		orNotProvided(in.URL),
	)
}

// BuildUseCasesPrompt asks for concrete use cases. The summary may itself be
// model output and is inserted as is.
func BuildUseCasesPrompt(in model.SubmissionInput) string {
	return fmt.Sprintf(`You are a %s. List 3 to 5 concrete use cases for the project below,
one per line, each starting with "- ". Write in %s. Output only the list.

Project name: %s
Summary: %s
Features: %s
Audience: %s`,
		useCaseMarker,
		orNotProvided(in.Language),
		in.ProjectName,
		orNotProvided(in.Summary),
		orNotProvided(in.Features),
		orNotProvided(in.Audience),
	)
}

// BuildReportPrompt asks for a full report over every field of the submission.
func BuildReportPrompt(in model.SubmissionInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s. Format the following form response into a professional summary:\n\n", reportMarker)
	for _, f := range reportFields(in) {
		fmt.Fprintf(&b, "%s: %s\n", f[0], f[1])
	}
	b.WriteString("\nWrite it as a report suitable for PDF output. Use plain text, no markdown tables.")
	return b.String()
}

func reportFields(in model.SubmissionInput) [][2]string {
	return [][2]string{
		{"Project name", in.ProjectName},
		{"Summary", in.Summary},
		{"Features", in.Features},
		{"Use cases", in.UseCases},
		{"Platforms", in.PlatformList()},
		{"Audience", in.Audience},
		{"URL", in.URL},
		{"Contact email", in.ContactEmail},
		{"Tags", in.Tags},
		{"Language", in.Language},
	}
}
