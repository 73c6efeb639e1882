package persister

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/calm/pkg/ghap"
)

// renderFull implements spec.md §4.E's full-axis template.
func renderFull(e *ghap.Entry) string {
	status := "?"
	result := ""
	if e.Outcome != nil {
		status = string(e.Outcome.Status)
		result = e.Outcome.Result
	}
	var extra strings.Builder
	if e.Surprise != "" {
		fmt.Fprintf(&extra, " [Surprise: %s]", e.Surprise)
	}
	if e.RootCause != nil {
		fmt.Fprintf(&extra, " [Root: %s: %s]", e.RootCause.Category, e.RootCause.Description)
	}
	if e.Lesson != nil {
		fmt.Fprintf(&extra, " [Lesson: %s]", e.Lesson.Takeaway)
	}
	return fmt.Sprintf(
		"Domain: %s | Strategy: %s | Goal: %s | Hypothesis: %s | Action: %s | Prediction: %s | Outcome: %s — %s%s",
		e.Domain, e.Strategy, e.Goal, e.Current.Hypothesis, e.Current.Action, e.Current.Prediction, status, result, extra.String(),
	)
}

// renderStrategy implements spec.md §4.E's strategy-axis template.
func renderStrategy(e *ghap.Entry) string {
	status := "?"
	if e.Outcome != nil {
		status = string(e.Outcome.Status)
	}
	return fmt.Sprintf(
		"Strategy: %s applied to: %s. Hypothesis: %s. Iterations: %d. Outcome: %s.",
		e.Strategy, e.Goal, e.Current.Hypothesis, e.IterationCount, status,
	)
}

// renderSurprise implements spec.md §4.E's surprise-axis template.
func renderSurprise(e *ghap.Entry) string { return e.Surprise }

// renderRootCause implements spec.md §4.E's root_cause-axis template.
func renderRootCause(e *ghap.Entry) string {
	if e.RootCause == nil {
		return ""
	}
	return fmt.Sprintf(
		"%s: %s. Context: %s. Hypothesis was: %s.",
		e.RootCause.Category, e.RootCause.Description, e.Goal, e.Current.Hypothesis,
	)
}
