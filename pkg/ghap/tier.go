package ghap

import "strings"

// ResolveInput carries the information needed to compute a confidence tier
// at resolve time (spec.md invariant 6).
type ResolveInput struct {
	Status         OutcomeStatus
	AutoCaptured   bool
	AnnotatedSameSession bool // surprise/root_cause/lesson attached in the same session as capture
	Hypothesis     string
	ManualAnnotationsComplete bool // surprise+root_cause+lesson all present for a FALSIFIED resolve
}

// ComputeTier implements spec.md invariant 6:
//   - GOLD iff outcome auto-captured and annotation attached in same session
//   - SILVER iff manually resolved with complete annotations
//   - BRONZE iff vague hypothesis or ambiguous resolution
//   - ABANDONED iff status=ABANDONED
func ComputeTier(in ResolveInput) ConfidenceTier {
	if in.Status == OutcomeAbandoned {
		return TierAbandoned
	}
	if in.AutoCaptured && in.AnnotatedSameSession {
		return TierGold
	}
	if !in.AutoCaptured && in.ManualAnnotationsComplete {
		return TierSilver
	}
	if isVague(in.Hypothesis) || (!in.AutoCaptured && !in.ManualAnnotationsComplete) {
		return TierBronze
	}
	return TierBronze
}

// isVague flags hypotheses too short or generic to carry useful signal.
func isVague(h string) bool {
	trimmed := strings.TrimSpace(h)
	if len(trimmed) < 12 {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, filler := range []string{"not sure", "maybe", "something is wrong", "unclear"} {
		if strings.Contains(lower, filler) {
			return true
		}
	}
	return false
}
