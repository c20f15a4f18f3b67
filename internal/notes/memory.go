package notes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps notes and tags in process memory. Tags live in one
// table keyed by id with a unique name index; notes hold ordered tag id sets
// into it.
type MemoryRepository struct {
	mu  sync.RWMutex
	now func() time.Time

	nextNoteID int64
	nextTagID  int64

	tags      map[int64]Tag
	tagByName map[string]int64
	notes     map[int64]*noteRecord
}

type noteRecord struct {
	id        int64
	title     string
	content   string
	tagIDs    []int64
	createdAt time.Time
	updatedAt time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:       time.Now,
		tags:      make(map[int64]Tag),
		tagByName: make(map[string]int64),
		notes:     make(map[int64]*noteRecord),
	}
}

// WithClock replaces the time source; tests use it to pin timestamps.
func (m *MemoryRepository) WithClock(now func() time.Time) *MemoryRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

func (m *MemoryRepository) CreateNote(_ context.Context, title, content string, tags []string) (Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.resolveAllLocked(tags)
	if err != nil {
		return Note{}, err
	}

	now := m.timestampLocked(time.Time{})
	m.nextNoteID++
	rec := &noteRecord{
		id:        m.nextNoteID,
		title:     title,
		content:   content,
		tagIDs:    ids,
		createdAt: now,
		updatedAt: now,
	}
	m.notes[rec.id] = rec
	return m.hydrateLocked(rec), nil
}

func (m *MemoryRepository) GetNote(_ context.Context, id int64) (Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}
	return m.hydrateLocked(rec), nil
}

func (m *MemoryRepository) UpdateNote(_ context.Context, id int64, title, content string, tags []string) (Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}

	ids, err := m.resolveAllLocked(tags)
	if err != nil {
		return Note{}, err
	}

	rec.title = title
	rec.content = content
	rec.tagIDs = ids
	rec.updatedAt = m.timestampLocked(rec.updatedAt)
	return m.hydrateLocked(rec), nil
}

func (m *MemoryRepository) DeleteNote(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notes[id]; !ok {
		return ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *MemoryRepository) SearchNotes(_ context.Context, f Filter, req PageRequest) (Page, error) {
	m.mu.RLock()
	all := make([]Note, 0, len(m.notes))
	for _, rec := range m.notes {
		all = append(all, m.hydrateLocked(rec))
	}
	m.mu.RUnlock()

	return Paginate(Search(all, f), req), nil
}

func (m *MemoryRepository) ListTags(_ context.Context) ([]Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Tag, 0, len(m.tags))
	for _, t := range m.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) GetOrCreateTag(_ context.Context, name string) (Tag, bool, error) {
	name, err := TagName(name)
	if err != nil {
		return Tag{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, created := m.resolveLocked(name)
	return t, created, nil
}

// resolveAllLocked resolves every name before anything is linked, so a bad
// name leaves the note untouched.
func (m *MemoryRepository) resolveAllLocked(names []string) ([]int64, error) {
	names = NormalizeTagNames(names)
	for _, name := range names {
		if _, err := TagName(name); err != nil {
			return nil, err
		}
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		t, _ := m.resolveLocked(name)
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (m *MemoryRepository) resolveLocked(name string) (Tag, bool) {
	if id, ok := m.tagByName[name]; ok {
		return m.tags[id], false
	}
	m.nextTagID++
	t := Tag{ID: m.nextTagID, Name: name}
	m.tags[t.ID] = t
	m.tagByName[name] = t.ID
	return t, true
}

// timestampLocked returns the current time at microsecond precision, nudged
// past prev when the clock has not moved.
func (m *MemoryRepository) timestampLocked(prev time.Time) time.Time {
	t := m.now().UTC().Truncate(time.Microsecond)
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}

func (m *MemoryRepository) hydrateLocked(rec *noteRecord) Note {
	names := make([]string, 0, len(rec.tagIDs))
	for _, id := range rec.tagIDs {
		names = append(names, m.tags[id].Name)
	}
	return Note{
		ID:        rec.id,
		Title:     rec.title,
		Content:   rec.content,
		Tags:      names,
		CreatedAt: rec.createdAt,
		UpdatedAt: rec.updatedAt,
	}
}
