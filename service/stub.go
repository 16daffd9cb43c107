package service

import (
	"context"
	"strings"
)

// StubEnricher returns canned text (for development without an API key).
type StubEnricher struct{}

func (StubEnricher) Complete(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, summaryMarker):
		return "[Stub] A focused tool that helps its audience get work done faster.", nil
	case strings.Contains(prompt, useCaseMarker):
		return "- [Stub] Onboard a new team in a day\n- [Stub] Replace a spreadsheet workflow\n- [Stub] Share weekly status with stakeholders", nil
	case strings.Contains(prompt, reportMarker):
		return "Project Report\n\n[Stub] This report summarizes the submitted project.", nil
	}
	return "", nil
}
