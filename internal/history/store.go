package history

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/BettaJiayi/pixverse-webui/internal/domain"
	"github.com/BettaJiayi/pixverse-webui/internal/infra"
	"github.com/BettaJiayi/pixverse-webui/internal/storage"
)

// schemaKey versions the persisted document. Bump it when the record layout
// changes in a way old readers cannot tolerate.
const schemaKey = "pixverse_history_v1"

const documentKey = schemaKey + ".json"

type document struct {
	Schema  string             `json:"schema"`
	Records []domain.JobRecord `json:"records"`
}

// ChangeKind tells subscribers what mutated the store.
type ChangeKind int

const (
	ChangeUpsert ChangeKind = iota
	ChangeRemove
	ChangeClear
)

// Store keeps submitted job records in memory and mirrors them into a single
// durable JSON document. The in-memory state is authoritative for the current
// session: persistence failures are logged, never returned.
type Store struct {
	mu      sync.Mutex
	files   *storage.FileStore
	logger  infra.Logger
	records []domain.JobRecord
	subs    []func(ChangeKind)
}

// NewStore loads the persisted history document, treating a missing or
// malformed one as an empty collection.
func NewStore(files *storage.FileStore, logger infra.Logger) *Store {
	s := &Store{files: files, logger: logger}
	s.load()
	return s
}

// Subscribe registers a callback invoked after every mutation. Callbacks run
// synchronously on the mutating goroutine and must not mutate the store.
func (s *Store) Subscribe(fn func(ChangeKind)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Upsert merges the patch into the record with the same id, creating it when
// absent. Zero-valued patch fields leave the stored values untouched; the job
// type tag is normalized at write time.
func (s *Store) Upsert(patch domain.JobRecord) {
	if patch.ID == "" {
		return
	}
	patch.Type = domain.NormalizeType(patch.Type)

	s.mu.Lock()
	idx := s.indexOf(patch.ID)
	if idx < 0 {
		s.records = append(s.records, patch)
	} else {
		merge(&s.records[idx], patch)
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify(ChangeUpsert)
}

// Remove deletes a single record.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.persistLocked()
	s.mu.Unlock()

	s.notify(ChangeRemove)
}

// Clear deletes every record. Confirmation is the caller's responsibility.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = nil
	s.persistLocked()
	s.mu.Unlock()

	s.notify(ChangeClear)
}

// All returns every record, newest first by creation time.
func (s *Store) All() []domain.JobRecord {
	s.mu.Lock()
	out := make([]domain.JobRecord, len(s.records))
	copy(out, s.records)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (domain.JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.records[idx], true
	}
	return domain.JobRecord{}, false
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// merge applies last-write-wins per field: only fields the patch actually
// carries overwrite the stored record.
func merge(dst *domain.JobRecord, patch domain.JobRecord) {
	if patch.Type != "" {
		dst.Type = patch.Type
	}
	if patch.Prompt != "" {
		dst.Prompt = patch.Prompt
	}
	if patch.Style != "" {
		dst.Style = patch.Style
	}
	if patch.Seed != nil {
		dst.Seed = patch.Seed
	}
	if !patch.CreatedAt.IsZero() {
		dst.CreatedAt = patch.CreatedAt
	}
	if patch.LastStatus != domain.StatusUnqueried {
		dst.LastStatus = patch.LastStatus
	}
	if patch.URL != "" {
		dst.URL = patch.URL
	}
}

func (s *Store) load() {
	if s.files == nil {
		return
	}
	raw, err := s.files.Read(documentKey)
	if err != nil {
		return
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn().Err(err).Msg("history: malformed document, starting empty")
		return
	}
	records := doc.Records[:0:0]
	for _, rec := range doc.Records {
		if rec.ID == "" {
			continue
		}
		rec.Type = domain.NormalizeType(rec.Type)
		records = append(records, rec)
	}
	s.records = records
}

// persistLocked writes the document; callers hold s.mu. A failed write (for
// instance storage quota) leaves the in-memory state authoritative.
func (s *Store) persistLocked() {
	if s.files == nil {
		return
	}
	doc := document{Schema: schemaKey, Records: s.records}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Msg("history: encode document failed")
		return
	}
	if _, err := s.files.Write(documentKey, raw); err != nil {
		s.logger.Warn().Err(err).Msg("history: persist failed, keeping in-memory state")
	}
}

func (s *Store) notify(kind ChangeKind) {
	s.mu.Lock()
	subs := make([]func(ChangeKind), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(kind)
	}
}
