// Package ghap defines the data model for Goal/Hypothesis/Action/Prediction
// experience records: the unit the state machine, persister, clusterer and
// value store all operate on.
package ghap

import "time"

// Domain enumerates the nine recognized problem domains (spec.md §3).
type Domain string

const (
	DomainDebugging     Domain = "debugging"
	DomainTesting       Domain = "testing"
	DomainRefactoring   Domain = "refactoring"
	DomainPerformance   Domain = "performance"
	DomainArchitecture  Domain = "architecture"
	DomainSecurity      Domain = "security"
	DomainAPIDesign     Domain = "api_design"
	DomainIntegration   Domain = "integration"
	DomainDocumentation Domain = "documentation"
)

var validDomains = map[Domain]bool{
	DomainDebugging: true, DomainTesting: true, DomainRefactoring: true,
	DomainPerformance: true, DomainArchitecture: true, DomainSecurity: true,
	DomainAPIDesign: true, DomainIntegration: true, DomainDocumentation: true,
}

// ValidDomain reports whether d is one of the nine recognized domains.
func ValidDomain(d Domain) bool { return validDomains[d] }

// Strategy enumerates the nine recognized problem-solving strategies.
type Strategy string

const (
	StrategyBisection        Strategy = "bisection"
	StrategyInstrumentation  Strategy = "instrumentation"
	StrategyMinimalRepro     Strategy = "minimal_repro"
	StrategyReadTheSource    Strategy = "read_the_source"
	StrategyAskForHelp       Strategy = "ask_for_help"
	StrategyRewrite          Strategy = "rewrite"
	StrategyIncrementalFix   Strategy = "incremental_fix"
	StrategyRevertAndRetry   Strategy = "revert_and_retry"
	StrategyCompareWorkingCase Strategy = "compare_working_case"
)

var validStrategies = map[Strategy]bool{
	StrategyBisection: true, StrategyInstrumentation: true, StrategyMinimalRepro: true,
	StrategyReadTheSource: true, StrategyAskForHelp: true, StrategyRewrite: true,
	StrategyIncrementalFix: true, StrategyRevertAndRetry: true, StrategyCompareWorkingCase: true,
}

// ValidStrategy reports whether s is one of the nine recognized strategies.
func ValidStrategy(s Strategy) bool { return validStrategies[s] }

// OutcomeStatus is the terminal status of a resolved GHAP entry.
type OutcomeStatus string

const (
	OutcomeConfirmed  OutcomeStatus = "CONFIRMED"
	OutcomeFalsified  OutcomeStatus = "FALSIFIED"
	OutcomeAbandoned  OutcomeStatus = "ABANDONED"
)

// ConfidenceTier grades a resolved GHAP's quality; also used as clustering weight.
type ConfidenceTier string

const (
	TierGold      ConfidenceTier = "GOLD"
	TierSilver    ConfidenceTier = "SILVER"
	TierBronze    ConfidenceTier = "BRONZE"
	TierAbandoned ConfidenceTier = "ABANDONED"
)

// TierWeight returns the clustering weight for a confidence tier (spec.md §4.F).
func TierWeight(t ConfidenceTier) float64 {
	switch t {
	case TierGold:
		return 1.0
	case TierSilver:
		return 0.8
	case TierBronze:
		return 0.5
	case TierAbandoned:
		return 0.2
	default:
		return 0.0
	}
}

// Axis is one of the four GHAP projections.
type Axis string

const (
	AxisFull      Axis = "full"
	AxisStrategy  Axis = "strategy"
	AxisSurprise  Axis = "surprise"
	AxisRootCause Axis = "root_cause"
)

var validAxes = map[Axis]bool{
	AxisFull: true, AxisStrategy: true, AxisSurprise: true, AxisRootCause: true,
}

// ValidAxis reports whether a is one of the four recognized axes.
func ValidAxis(a Axis) bool { return validAxes[a] }

var validOutcomeStatuses = map[OutcomeStatus]bool{
	OutcomeConfirmed: true, OutcomeFalsified: true, OutcomeAbandoned: true,
}

// ValidOutcomeStatus reports whether s is one of the three terminal statuses.
func ValidOutcomeStatus(s OutcomeStatus) bool { return validOutcomeStatuses[s] }

// HAP is the mutable (hypothesis, action, prediction) triple under test.
type HAP struct {
	Hypothesis string `json:"hypothesis"`
	Action     string `json:"action"`
	Prediction string `json:"prediction"`
}

// HistoryEntry records a prior HAP revision before an update overwrote it.
type HistoryEntry struct {
	HAP
	Timestamp time.Time `json:"timestamp"`
}

// Outcome records the resolution of a GHAP entry.
type Outcome struct {
	Status       OutcomeStatus `json:"status"`
	Result       string        `json:"result"`
	AutoCaptured bool          `json:"auto_captured"`
	CapturedAt   time.Time     `json:"captured_at"`
}

// RootCause categorizes why a hypothesis was falsified.
type RootCause struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Lesson records what was learned from a resolved GHAP.
type Lesson struct {
	WhatWorked string `json:"what_worked"`
	Takeaway   string `json:"takeaway"`
}

// Entry is the full on-disk/in-payload GHAP record (spec.md §3).
type Entry struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"session_id"`
	Domain         Domain         `json:"domain"`
	Strategy       Strategy       `json:"strategy"`
	Goal           string         `json:"goal"`
	Current        HAP            `json:"current"`
	History        []HistoryEntry `json:"history"`
	IterationCount int            `json:"iteration_count"`
	Outcome        *Outcome       `json:"outcome,omitempty"`
	Surprise       string         `json:"surprise,omitempty"`
	RootCause      *RootCause     `json:"root_cause,omitempty"`
	Lesson         *Lesson        `json:"lesson,omitempty"`
	ConfidenceTier ConfidenceTier `json:"confidence_tier,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CapturedAt     time.Time      `json:"captured_at,omitempty"`
}

// Field length limits enforced at the dispatcher boundary (spec.md §6).
const (
	MaxHAPFieldLength  = 1000
	MaxSurpriseLength  = 2000
	MaxNoteLength      = 2000
	MaxQueryLength     = 10000
	MaxContentLength   = 10000
	MaxTagLength       = 50
	MaxTags            = 20
)
