// Package metadata provides CALM's durable structured store (spec.md §4.C):
// memory shadow records, the GHAP metadata index, per-file indexing
// checkpoints, and the last-indexed commit sha per project. It is backed by
// a single bbolt database, one bucket per record kind, opened once and
// shared process-wide — bbolt's own single-writer/multi-reader guarantee
// matches "single-writer; readers may see committed state only" directly.
package metadata

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
)

var (
	bucketMemories      = []byte("memories")
	bucketGHAPIndex     = []byte("ghap_index")
	bucketCheckpoints   = []byte("checkpoints")
	bucketCommitCursors = []byte("commit_cursor")
)

// MemoryRecord is the shadow of a `memories` vector payload (spec.md §3),
// kept here so listing/pagination never touches the vector store.
type MemoryRecord struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	Importance float64  `json:"importance"`
	Tags       []string `json:"tags"`
	CreatedAt  int64    `json:"created_at"`
	Project    string   `json:"project"`
}

// GHAPIndexRecord is a listing-oriented summary of a resolved GHAP entry,
// mirroring the shared fields every ghap_* vector point carries (spec.md
// §3).
type GHAPIndexRecord struct {
	EntryID        string `json:"entry_id"`
	SessionID      string `json:"session_id"`
	Domain         string `json:"domain"`
	Strategy       string `json:"strategy"`
	OutcomeStatus  string `json:"outcome_status"`
	ConfidenceTier string `json:"confidence_tier"`
	IterationCount int    `json:"iteration_count"`
	CreatedAt      int64  `json:"created_at"`
	CapturedAt     int64  `json:"captured_at"`
}

// Checkpoint records the last-indexed state of one project file.
type Checkpoint struct {
	Project   string `json:"project"`
	FilePath  string `json:"file_path"`
	Hash      string `json:"hash"`
	MTime     int64  `json:"mtime"`
	UnitCount int    `json:"unit_count"`
}

// Store is the bbolt-backed Metadata Store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) a bbolt database at path and ensures every
// record-kind bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "failed to open metadata store", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketMemories, bucketGHAPIndex, bucketCheckpoints, bucketCommitCursors} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, calmerr.Wrap(calmerr.KindStoreError, "failed to initialize metadata buckets", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func checkpointKey(project, filePath string) []byte {
	return []byte(project + "\x00" + filePath)
}

// PutMemory upserts a memory shadow record.
func (s *Store) PutMemory(rec MemoryRecord) error {
	return s.put(bucketMemories, []byte(rec.ID), rec)
}

// GetMemory returns the shadow record for id, or nil if absent.
func (s *Store) GetMemory(id string) (*MemoryRecord, error) {
	var rec MemoryRecord
	ok, err := s.get(bucketMemories, []byte(id), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// DeleteMemory removes a shadow record. Idempotent.
func (s *Store) DeleteMemory(id string) error {
	return s.delete(bucketMemories, []byte(id))
}

// ListMemories returns every shadow record, ordered by id, optionally
// restricted to a project.
func (s *Store) ListMemories(project string) ([]MemoryRecord, error) {
	var out []MemoryRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMemories)
		return b.ForEach(func(_, v []byte) error {
			var rec MemoryRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if project == "" || rec.Project == project {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "failed to list memories", err)
	}
	return out, nil
}

// PutGHAPIndex upserts a GHAP listing record.
func (s *Store) PutGHAPIndex(rec GHAPIndexRecord) error {
	return s.put(bucketGHAPIndex, []byte(rec.EntryID), rec)
}

// GetGHAPIndex returns the listing record for entryID, or nil if absent.
func (s *Store) GetGHAPIndex(entryID string) (*GHAPIndexRecord, error) {
	var rec GHAPIndexRecord
	ok, err := s.get(bucketGHAPIndex, []byte(entryID), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// PutCheckpoint upserts a file-indexing checkpoint.
func (s *Store) PutCheckpoint(cp Checkpoint) error {
	return s.put(bucketCheckpoints, checkpointKey(cp.Project, cp.FilePath), cp)
}

// GetCheckpoint returns the checkpoint for (project, filePath), or nil if
// the file has never been indexed.
func (s *Store) GetCheckpoint(project, filePath string) (*Checkpoint, error) {
	var cp Checkpoint
	ok, err := s.get(bucketCheckpoints, checkpointKey(project, filePath), &cp)
	if err != nil || !ok {
		return nil, err
	}
	return &cp, nil
}

// SetCommitCursor records the last-indexed commit sha for project.
func (s *Store) SetCommitCursor(project, sha string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCommitCursors).Put([]byte(project), []byte(sha))
	})
}

// CommitCursor returns the last-indexed commit sha for project, or "" if
// the project has never been indexed.
func (s *Store) CommitCursor(project string) (string, error) {
	var sha string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCommitCursors).Get([]byte(project))
		if v != nil {
			sha = string(v)
		}
		return nil
	})
	if err != nil {
		return "", calmerr.Wrap(calmerr.KindStoreError, "failed to read commit cursor", err)
	}
	return sha, nil
}

func (s *Store) put(bucket, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to encode record", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, b)
	})
	if err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to write record", err)
	}
	return nil
}

func (s *Store) get(bucket, key []byte, out any) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get(key)
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, out)
	})
	if err != nil {
		return false, calmerr.Wrap(calmerr.KindStoreError, "failed to read record", err)
	}
	return found, nil
}

func (s *Store) delete(bucket, key []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
	if err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "failed to delete record", err)
	}
	return nil
}
