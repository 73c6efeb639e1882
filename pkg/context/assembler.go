// Package context implements the Context Assembler (spec.md §4.I): one
// operation, assemble, that fans a query out across the requested sources,
// deduplicates, fits the results into a token budget, and renders markdown.
package context

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/search"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// Source names recognized by assemble (spec.md §4.I).
const (
	SourceMemories    = "memories"
	SourceCode        = "code"
	SourceExperiences = "experiences"
	SourceValues      = "values"
	SourceCommits     = "commits"
)

// Mode selects the assembly profile.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModePremortem Mode = "premortem"
)

const (
	defaultPerSourceLimit   = 20
	premortemExperienceLimit = 60
	defaultSimilarityThreshold = 0.85
	defaultMaxItemFraction  = 0.25
	defaultMaxFuzzyContentLength = 2000
)

// Config carries the tunables spec.md §6 names for the assembler.
type Config struct {
	SourceWeights         map[string]float64
	SimilarityThreshold    float64
	MaxItemFraction        float64
	MaxFuzzyContentLength  int
}

// DefaultConfig returns the assembler's built-in defaults, used whenever a
// caller does not supply its own Config.
func DefaultConfig() Config {
	return Config{
		SourceWeights: map[string]float64{
			SourceMemories: 1, SourceCode: 1, SourceExperiences: 1.5, SourceValues: 0.75, SourceCommits: 0.75,
		},
		SimilarityThreshold:   defaultSimilarityThreshold,
		MaxItemFraction:       defaultMaxItemFraction,
		MaxFuzzyContentLength: defaultMaxFuzzyContentLength,
	}
}

// Result is assemble's return value: the rendered markdown block plus the
// item counts actually included per section.
type Result struct {
	Markdown string
	Counts   map[string]int
}

// item is one candidate gathered from a single source before dedup/budgeting.
type item struct {
	source    string
	stableKey string
	score     float32
	text      string
	createdAt time.Time
	payload   vectorstore.Payload
}

// Assembler wraps a Searcher to implement assemble.
type Assembler struct {
	searcher *search.Searcher
	config   Config
}

// New builds an Assembler over searcher using cfg (pass DefaultConfig() for
// the built-in tunables).
func New(searcher *search.Searcher, cfg Config) *Assembler {
	return &Assembler{searcher: searcher, config: cfg}
}

// Assemble runs spec.md §4.I's four-step algorithm: parallel fetch, dedup,
// per-source token budgeting, markdown render.
func (a *Assembler) Assemble(ctx context.Context, query string, sources []string, tokenBudget int, mode Mode) (Result, error) {
	fetched := a.fetchAll(ctx, query, sources, mode)
	deduped := a.dedup(fetched)
	picked, counts := a.budget(deduped, tokenBudget)
	markdown := a.render(query, picked, mode)
	return Result{Markdown: markdown, Counts: counts}, nil
}

// fetchAll launches one search per requested source concurrently; a
// failing source is logged and swallowed, and the assembler proceeds with
// the survivors rather than aborting the whole batch.
func (a *Assembler) fetchAll(ctx context.Context, query string, sources []string, mode Mode) map[string][]item {
	out := make(map[string][]item, len(sources))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, src := range sources {
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := a.fetchSource(ctx, src, query, mode)
			if err != nil {
				slogWarnFetchFailed(src, err)
				return
			}
			mu.Lock()
			out[src] = items
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

func (a *Assembler) fetchSource(ctx context.Context, source, query string, mode Mode) ([]item, error) {
	switch source {
	case SourceMemories:
		results, err := a.searcher.SearchMemories(ctx, query, defaultPerSourceLimit, search.MemoryFilter{})
		return toItems(source, results, memoryStableKey, memoryText), err

	case SourceCode:
		results, err := a.searcher.SearchCode(ctx, query, defaultPerSourceLimit, search.CodeFilter{})
		return toItems(source, results, codeStableKey, codeText), err

	case SourceExperiences:
		return a.fetchExperiences(ctx, query, mode)

	case SourceValues:
		results, err := a.searcher.SearchValues(ctx, query, defaultPerSourceLimit, "")
		return toItems(source, results, idStableKey, valueText), err

	case SourceCommits:
		results, err := a.searcher.SearchCommits(ctx, query, defaultPerSourceLimit, search.CommitFilter{})
		return toItems(source, results, commitStableKey, commitText), err

	default:
		return nil, fmt.Errorf("unknown context source %q", source)
	}
}

// fetchExperiences searches every GHAP axis; premortem mode restricts to
// FALSIFIED outcomes and uses a larger, experience-heavy per-source limit.
func (a *Assembler) fetchExperiences(ctx context.Context, query string, mode Mode) ([]item, error) {
	limit := defaultPerSourceLimit
	filter := search.ExperienceFilter{}
	if mode == ModePremortem {
		limit = premortemExperienceLimit
		filter.Outcome = ghap.OutcomeFalsified
	}

	var items []item
	for _, axis := range []ghap.Axis{ghap.AxisFull, ghap.AxisStrategy, ghap.AxisSurprise, ghap.AxisRootCause} {
		results, err := a.searcher.SearchExperiences(ctx, axis, query, limit, filter)
		if err != nil {
			return nil, err
		}
		items = append(items, toItems(SourceExperiences, results, experienceStableKey, experienceText)...)
	}
	return items, nil
}

func toItems(source string, results []vectorstore.Result, stableKey func(vectorstore.Result) string, render func(vectorstore.Result) string) []item {
	items := make([]item, len(results))
	for i, r := range results {
		items[i] = item{
			source:    source,
			stableKey: stableKey(r),
			score:     r.Score,
			text:      render(r),
			createdAt: payloadTime(r.Payload),
			payload:   r.Payload,
		}
	}
	return items
}

func payloadTime(p vectorstore.Payload) time.Time {
	for _, key := range []string{"captured_at", "created_at", "timestamp", "validated_at"} {
		if v, ok := p[key]; ok {
			if sec, ok := toInt64(v); ok {
				return time.Unix(sec, 0)
			}
		}
	}
	return time.Time{}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func memoryStableKey(r vectorstore.Result) string { return r.ID }
func idStableKey(r vectorstore.Result) string     { return r.ID }

func codeStableKey(r vectorstore.Result) string {
	return fmt.Sprintf("%v:%v", r.Payload["file_path"], r.Payload["start_line"])
}

func experienceStableKey(r vectorstore.Result) string { return fmt.Sprint(r.Payload["entry_id"]) }
func commitStableKey(r vectorstore.Result) string     { return fmt.Sprint(r.Payload["sha"]) }

func memoryText(r vectorstore.Result) string {
	return fmt.Sprintf("**%v** (importance %v): %v", r.Payload["category"], r.Payload["importance"], r.Payload["content"])
}

func codeText(r vectorstore.Result) string {
	return fmt.Sprintf("`%v:%v-%v` `%v` (%v)\n%v", r.Payload["file_path"], r.Payload["start_line"], r.Payload["end_line"], r.Payload["qualified_name"], r.Payload["language"], r.Payload["signature"])
}

func experienceText(r vectorstore.Result) string { return fmt.Sprint(r.Payload["content"]) }
func valueText(r vectorstore.Result) string {
	return fmt.Sprintf("%v (cluster %v)", r.Payload["text"], r.Payload["cluster_id"])
}

func commitText(r vectorstore.Result) string {
	return fmt.Sprintf("%v by %v (+%v/-%v, %v)", r.Payload["sha"], r.Payload["author"], r.Payload["insertions"], r.Payload["deletions"], r.Payload["files"])
}

// dedup runs the two passes from spec.md §4.I step 2: drop repeated
// (source, stable_key) pairs, then within each source drop near-duplicate
// text via a SequenceMatcher ratio.
func (a *Assembler) dedup(bySource map[string][]item) map[string][]item {
	out := make(map[string][]item, len(bySource))
	for source, items := range bySource {
		seen := make(map[string]bool, len(items))
		var idDeduped []item
		for _, it := range items {
			if seen[it.stableKey] {
				continue
			}
			seen[it.stableKey] = true
			idDeduped = append(idDeduped, it)
		}
		out[source] = a.fuzzyDedup(idDeduped)
	}
	return out
}

func (a *Assembler) fuzzyDedup(items []item) []item {
	var kept []item
	for _, candidate := range items {
		if len(candidate.text) > a.config.MaxFuzzyContentLength {
			kept = append(kept, candidate)
			continue
		}
		duplicate := false
		for _, existing := range kept {
			if len(existing.text) > a.config.MaxFuzzyContentLength {
				continue
			}
			if fuzzyRatio(candidate.text, existing.text) >= a.config.SimilarityThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func fuzzyRatio(a, b string) float64 {
	matcher := difflib.NewMatcher(strings.Fields(a), strings.Fields(b))
	return matcher.Ratio()
}

// budget implements spec.md §4.I step 3: weight sources, derive a per-source
// token budget, greedily pick in descending score, and cap any single item
// at MaxItemFraction of its source's budget.
func (a *Assembler) budget(bySource map[string][]item, totalBudget int) (map[string][]item, map[string]int) {
	var weightSum float64
	for source := range bySource {
		weightSum += a.weightFor(source)
	}
	if weightSum == 0 {
		return nil, map[string]int{}
	}

	picked := make(map[string][]item, len(bySource))
	counts := make(map[string]int, len(bySource))

	for source, items := range bySource {
		sourceBudget := int(math.Round(a.weightFor(source) / weightSum * float64(totalBudget)))
		itemCap := int(float64(sourceBudget) * a.config.MaxItemFraction)

		sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

		var chosen []item
		spent := 0
		for _, it := range items {
			text := it.text
			if itemCap > 0 {
				text = truncateAtSentence(text, itemCap*4)
			}
			cost := estimateTokens(text)
			if spent+cost > sourceBudget && spent > 0 {
				break
			}
			it.text = text
			chosen = append(chosen, it)
			spent += cost
		}
		picked[source] = chosen
		counts[source] = len(chosen)
	}
	return picked, counts
}

func (a *Assembler) weightFor(source string) float64 {
	if w, ok := a.config.SourceWeights[source]; ok {
		return w
	}
	return 1
}

func estimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}

// truncateAtSentence cuts text to at most maxChars, backing up to the last
// sentence terminator within that cut. If the cut holds no terminator, the
// text is hard-cut at maxChars and may end mid-sentence.
func truncateAtSentence(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > 0 {
		return cut[:idx+1]
	}
	return cut
}

// render implements spec.md §4.I step 4.
func (a *Assembler) render(query string, bySource map[string][]item, mode Mode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Context for: %s\n", query)

	for _, source := range []string{SourceMemories, SourceValues, SourceExperiences, SourceCode, SourceCommits} {
		items := bySource[source]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n", title(source))
		if source == SourceExperiences && mode == ModePremortem {
			renderPremortemExperiences(&b, items)
			continue
		}
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it.text)
		}
	}
	return b.String()
}

// renderPremortemExperiences groups by falsification axis and orders by
// recency within each group (spec.md §4.I step 4, premortem mode).
func renderPremortemExperiences(b *strings.Builder, items []item) {
	byAxis := make(map[string][]item)
	for _, it := range items {
		axis := fmt.Sprint(it.payload["axis"])
		byAxis[axis] = append(byAxis[axis], it)
	}

	axes := make([]string, 0, len(byAxis))
	for axis := range byAxis {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	for _, axis := range axes {
		group := byAxis[axis]
		sort.SliceStable(group, func(i, j int) bool { return group[i].createdAt.After(group[j].createdAt) })
		fmt.Fprintf(b, "\n### %s\n", axis)
		for _, it := range group {
			fmt.Fprintf(b, "- %s\n", it.text)
		}
	}
}

func title(source string) string {
	return strings.ToUpper(source[:1]) + source[1:]
}
