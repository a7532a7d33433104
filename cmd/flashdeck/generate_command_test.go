package main

import (
	"testing"

	"flashdeck/internal/generate"
	"flashdeck/internal/pipeline"
)

func TestRenderRunSummary(t *testing.T) {
	result := &pipeline.Result{
		Outcomes: []generate.ConceptOutcome{
			{Index: 0, Title: "Glycolysis", Requested: 3, Accepted: 3},
			{Index: 1, Title: "Krebs Cycle", Requested: 1, Accepted: 1, Truncated: true},
			{Index: 2, Title: "Electron Transport", Requested: 3, Skipped: true},
		},
	}

	out := renderRunSummary(result)
	for _, want := range []string{"Glycolysis", "Krebs Cycle", "Electron Transport", "Truncated", "yes", "skipped", "ok"} {
		requireContains(t, out, want)
	}
}
