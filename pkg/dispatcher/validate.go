package dispatcher

import (
	"regexp"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/ghap"
)

// tagPattern is the allowed shape of one memory tag (spec.md §6).
var tagPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,50}$`)

var validCategories = map[string]bool{
	"fact": true, "preference": true, "decision": true, "note": true, "learning": true,
}

func validateQuery(q string) error {
	if len(q) == 0 {
		return calmerr.Validationf("query must not be empty")
	}
	if len(q) > ghap.MaxQueryLength {
		return calmerr.Validationf("query exceeds %d characters", ghap.MaxQueryLength)
	}
	return nil
}

func validateContent(content string) error {
	if len(content) == 0 {
		return calmerr.Validationf("content must not be empty")
	}
	if len(content) > ghap.MaxContentLength {
		return calmerr.Validationf("content exceeds %d characters", ghap.MaxContentLength)
	}
	return nil
}

func validateHAPField(name, value string) error {
	if len(value) > ghap.MaxHAPFieldLength {
		return calmerr.Validationf("%s exceeds %d characters", name, ghap.MaxHAPFieldLength)
	}
	return nil
}

func validateNote(name, value string) error {
	if len(value) > ghap.MaxNoteLength {
		return calmerr.Validationf("%s exceeds %d characters", name, ghap.MaxNoteLength)
	}
	return nil
}

func validateImportance(importance float64) error {
	if importance < 0 || importance > 1 {
		return calmerr.Validationf("importance must be within [0,1], got %v", importance)
	}
	return nil
}

func validateCategory(category string) error {
	if !validCategories[category] {
		return calmerr.Validationf("unrecognized category %q", category)
	}
	return nil
}

func validateTags(tags []string) error {
	if len(tags) > ghap.MaxTags {
		return calmerr.Validationf("at most %d tags allowed, got %d", ghap.MaxTags, len(tags))
	}
	for _, tag := range tags {
		if !tagPattern.MatchString(tag) {
			return calmerr.Validationf("tag %q does not match %s", tag, tagPattern.String())
		}
	}
	return nil
}

func validateDomain(domain ghap.Domain) error {
	if !ghap.ValidDomain(domain) {
		return calmerr.Validationf("unrecognized domain %q", domain)
	}
	return nil
}

func validateStrategy(strategy ghap.Strategy) error {
	if !ghap.ValidStrategy(strategy) {
		return calmerr.Validationf("unrecognized strategy %q", strategy)
	}
	return nil
}

func validateAxis(axis ghap.Axis) error {
	if !ghap.ValidAxis(axis) {
		return calmerr.Validationf("unrecognized axis %q", axis)
	}
	return nil
}

func validateOutcomeStatus(status ghap.OutcomeStatus) error {
	if !ghap.ValidOutcomeStatus(status) {
		return calmerr.Validationf("unrecognized outcome status %q", status)
	}
	return nil
}

func requireNonEmpty(name, value string) error {
	if value == "" {
		return calmerr.Validationf("%s must not be empty", name)
	}
	return nil
}
