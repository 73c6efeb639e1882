// Package journal implements the GHAP file journal (spec.md §4.D): the
// per-session "current" experience record, the append-only resolved-entry
// log, the session id and tool-count files, and archival of prior sessions.
//
// All mutation is funneled through a single in-process mutex guarding an
// in-memory map, the same shape used elsewhere in this codebase for
// session state — here the "map" is the on-disk journal directory, and
// the lock is held only around synchronous file operations (spec.md §9:
// never hold a lock across a suspension point).
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/ghap"
)

const (
	currentFileName   = "current_ghap.json"
	sessionLogName    = "session_entries.jsonl"
	sessionIDFileName = ".session_id"
	toolCountFileName = ".tool_count"
	archiveDirName    = "archive"

	filePerm = 0o600
	dirPerm  = 0o700
)

// Journal owns one CALM journal directory. Cross-process safety is out of
// scope (spec.md §5): one CALM server per user home.
type Journal struct {
	mu  sync.Mutex
	dir string
}

// Open ensures dir and dir/archive exist and returns a Journal rooted there.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Join(dir, archiveDirName), dirPerm); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "failed to create journal directory", err)
	}
	return &Journal{dir: dir}, nil
}

func (j *Journal) path(name string) string { return filepath.Join(j.dir, name) }

// ---- session id / tool count -------------------------------------------------

func (j *Journal) readSessionID() (string, error) {
	b, err := os.ReadFile(j.path(sessionIDFileName))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", calmerr.Wrap(calmerr.KindStoreError, "failed to read session id", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (j *Journal) writeSessionID(id string) error {
	if err := writeFileAtomic(j.path(sessionIDFileName), []byte(id), filePerm); err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to write session id", err)
	}
	return nil
}

func (j *Journal) readToolCount() (int, error) {
	b, err := os.ReadFile(j.path(toolCountFileName))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, calmerr.Wrap(calmerr.KindStoreError, "failed to read tool count", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, calmerr.Wrap(calmerr.KindCorruptState, "tool count file is not an integer", err)
	}
	return n, nil
}

func (j *Journal) writeToolCount(n int) error {
	if err := writeFileAtomic(j.path(toolCountFileName), []byte(strconv.Itoa(n)), filePerm); err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to write tool count", err)
	}
	return nil
}

// SessionID returns the current session id, or "" if no session has
// started yet.
func (j *Journal) SessionID() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.readSessionID()
}

// IncrementToolCount increments the file-backed tool counter and returns
// its new value.
func (j *Journal) IncrementToolCount() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	n, err := j.readToolCount()
	if err != nil {
		return 0, err
	}
	n++
	return n, j.writeToolCount(n)
}

// ShouldCheckIn reports whether the tool counter has reached freq.
func (j *Journal) ShouldCheckIn(freq int) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	n, err := j.readToolCount()
	if err != nil {
		return false, err
	}
	return n >= freq, nil
}

// ResetToolCount resets the counter to zero.
func (j *Journal) ResetToolCount() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.writeToolCount(0)
}

// ---- current_ghap.json --------------------------------------------------

// readCurrent returns the active entry, or (nil, nil) if none is active.
// A malformed current_ghap.json halts the caller with CorruptState rather
// than being silently discarded (spec.md §9 open question i: the source
// is silent, so CALM treats corruption as a condition that must be
// surfaced, not auto-abandoned).
func (j *Journal) readCurrent() (*ghap.Entry, error) {
	b, err := os.ReadFile(j.path(currentFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "failed to read current ghap", err)
	}
	var e ghap.Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, calmerr.Wrap(calmerr.KindCorruptState, "current_ghap.json is not valid JSON", err)
	}
	return &e, nil
}

func (j *Journal) writeCurrent(e *ghap.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to encode ghap entry", err)
	}
	if err := writeFileAtomic(j.path(currentFileName), b, filePerm); err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to write current ghap", err)
	}
	return nil
}

func (j *Journal) clearCurrent() error {
	err := os.Remove(j.path(currentFileName))
	if err != nil && !os.IsNotExist(err) {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to clear current ghap", err)
	}
	return nil
}

func (j *Journal) appendResolved(e *ghap.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to encode resolved ghap", err)
	}
	b = append(b, '\n')
	if err := appendFileAtomic(j.path(sessionLogName), b, filePerm); err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to append resolved ghap", err)
	}
	return nil
}

// ---- session lifecycle ---------------------------------------------------

// StartSession rotates the session id to a fresh UUID, archives the prior
// session's resolved-entry log (if any), and resets the tool counter. It
// deliberately does not touch current_ghap.json: an active entry from a
// prior session becomes an orphan, surfaced via GetOrphanedGHAP.
func (j *Journal) StartSession() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	oldID, err := j.readSessionID()
	if err != nil {
		return "", err
	}
	if err := j.archiveSessionLog(oldID); err != nil {
		return "", err
	}

	newID := uuid.NewString()
	if err := j.writeSessionID(newID); err != nil {
		return "", err
	}
	if err := j.writeToolCount(0); err != nil {
		return "", err
	}
	return newID, nil
}

// archiveSessionLog moves any existing session_entries.jsonl to
// archive/{date}_{sessionID}.jsonl, leaving a fresh (absent) log for the
// incoming session. An absent log needs nothing, an empty log is removed,
// and a non-empty log with no prior session id is archived as "unknown".
func (j *Journal) archiveSessionLog(oldSessionID string) error {
	logPath := j.path(sessionLogName)
	info, err := os.Stat(logPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to stat session log", err)
	}
	if info.Size() == 0 {
		return os.Remove(logPath)
	}
	if oldSessionID == "" {
		oldSessionID = "unknown"
	}
	archiveName := fmt.Sprintf("%s_%s.jsonl", time.Now().UTC().Format("2006-01-02"), oldSessionID)
	if err := os.Rename(logPath, j.path(filepath.Join(archiveDirName, archiveName))); err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to archive session log", err)
	}
	return nil
}

// GetOrphanedGHAP returns the active entry iff its session id differs from
// the current session id. Idempotent: it never mutates state.
func (j *Journal) GetOrphanedGHAP() (*ghap.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	current, err := j.readCurrent()
	if err != nil || current == nil {
		return nil, err
	}
	sessionID, err := j.readSessionID()
	if err != nil {
		return nil, err
	}
	if current.SessionID == sessionID {
		return nil, nil
	}
	return current, nil
}

// AdoptOrphan rewrites the orphan's session id to the current session.
func (j *Journal) AdoptOrphan() (*ghap.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	current, err := j.readCurrent()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, calmerr.InvalidStatef("no active ghap to adopt")
	}
	sessionID, err := j.readSessionID()
	if err != nil {
		return nil, err
	}
	if current.SessionID == sessionID {
		return nil, calmerr.InvalidStatef("active ghap is not an orphan")
	}
	current.SessionID = sessionID
	if err := j.writeCurrent(current); err != nil {
		return nil, err
	}
	return current, nil
}

// AbandonOrphan resolves the active orphan with status=ABANDONED and the
// given reason, then clears current_ghap.json.
func (j *Journal) AbandonOrphan(reason string) (*ghap.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	current, err := j.readCurrent()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, calmerr.InvalidStatef("no active ghap to abandon")
	}
	now := time.Now().UTC()
	current.Outcome = &ghap.Outcome{Status: ghap.OutcomeAbandoned, Result: reason, AutoCaptured: false, CapturedAt: now}
	current.CapturedAt = now
	current.ConfidenceTier = ghap.ComputeTier(ghap.ResolveInput{Status: ghap.OutcomeAbandoned})

	if err := j.appendResolved(current); err != nil {
		return nil, err
	}
	if err := j.clearCurrent(); err != nil {
		return nil, err
	}
	return current, nil
}

// ---- GHAP state machine ---------------------------------------------------

// CreateGHAP starts a new active entry. Fails with InvalidState
// (ActiveGhapExists) if one is already active.
func (j *Journal) CreateGHAP(domain ghap.Domain, strategy ghap.Strategy, goal, hypothesis, action, prediction string) (*ghap.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	current, err := j.readCurrent()
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, calmerr.InvalidStatef("ActiveGhapExists: a GHAP entry is already active for this session")
	}
	if !ghap.ValidDomain(domain) {
		return nil, calmerr.Validationf("unrecognized domain %q", domain)
	}
	if !ghap.ValidStrategy(strategy) {
		return nil, calmerr.Validationf("unrecognized strategy %q", strategy)
	}

	sessionID, err := j.readSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	entry := &ghap.Entry{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		Domain:         domain,
		Strategy:       strategy,
		Goal:           goal,
		Current:        ghap.HAP{Hypothesis: hypothesis, Action: action, Prediction: prediction},
		History:        []ghap.HistoryEntry{},
		IterationCount: 0,
		CreatedAt:      now,
	}
	if err := j.writeCurrent(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateInput carries the optional fields update_ghap accepts; a nil
// pointer means "leave unchanged".
type UpdateInput struct {
	Hypothesis *string
	Action     *string
	Prediction *string
	Strategy   *ghap.Strategy
	// Note is logged but has no dedicated field in the GHAP schema
	// (spec.md §3 lists no notes field on the entry itself); it exists so
	// callers can attach a free-text annotation to the journal's log
	// trail without inventing a schema field the rest of the system
	// never reads.
	Note *string
}

// UpdateGHAP pushes the prior (H, A, P) to history and increments
// iteration_count iff any of H, A, P actually changed.
func (j *Journal) UpdateGHAP(in UpdateInput) (*ghap.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	current, err := j.readCurrent()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, calmerr.InvalidStatef("no active ghap to update")
	}

	changed := (in.Hypothesis != nil && *in.Hypothesis != current.Current.Hypothesis) ||
		(in.Action != nil && *in.Action != current.Current.Action) ||
		(in.Prediction != nil && *in.Prediction != current.Current.Prediction)

	if changed {
		current.History = append(current.History, ghap.HistoryEntry{HAP: current.Current, Timestamp: time.Now().UTC()})
		if in.Hypothesis != nil {
			current.Current.Hypothesis = *in.Hypothesis
		}
		if in.Action != nil {
			current.Current.Action = *in.Action
		}
		if in.Prediction != nil {
			current.Current.Prediction = *in.Prediction
		}
		current.IterationCount++
	}
	if in.Strategy != nil {
		if !ghap.ValidStrategy(*in.Strategy) {
			return nil, calmerr.Validationf("unrecognized strategy %q", *in.Strategy)
		}
		current.Strategy = *in.Strategy
	}

	if err := j.writeCurrent(current); err != nil {
		return nil, err
	}
	return current, nil
}

// ResolveInput carries the fields resolve_ghap accepts.
type ResolveInput struct {
	Status               ghap.OutcomeStatus
	Result               string
	AutoCaptured         bool
	AnnotatedSameSession bool
	Surprise             string
	RootCause            *ghap.RootCause
	Lesson               *ghap.Lesson
}

// ResolveGHAP computes the confidence tier, appends the resolved entry to
// session_entries.jsonl, and atomically clears current_ghap.json.
func (j *Journal) ResolveGHAP(in ResolveInput) (*ghap.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	current, err := j.readCurrent()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, calmerr.InvalidStatef("no active ghap to resolve")
	}

	now := time.Now().UTC()
	current.Outcome = &ghap.Outcome{Status: in.Status, Result: in.Result, AutoCaptured: in.AutoCaptured, CapturedAt: now}
	current.CapturedAt = now
	if in.Surprise != "" {
		current.Surprise = in.Surprise
	}
	if in.RootCause != nil {
		current.RootCause = in.RootCause
	}
	if in.Lesson != nil {
		current.Lesson = in.Lesson
	}

	manualComplete := in.Surprise != "" && in.RootCause != nil && in.Lesson != nil
	current.ConfidenceTier = ghap.ComputeTier(ghap.ResolveInput{
		Status:                    in.Status,
		AutoCaptured:              in.AutoCaptured,
		AnnotatedSameSession:      in.AnnotatedSameSession,
		Hypothesis:                current.Current.Hypothesis,
		ManualAnnotationsComplete: manualComplete,
	})

	if err := j.appendResolved(current); err != nil {
		return nil, err
	}
	if err := j.clearCurrent(); err != nil {
		return nil, err
	}
	return current, nil
}
