// Package notes holds the note domain records and an in-memory repository.
package notes

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"github.com/centraunit/vmkit/internal/log"
)

// NewNoteID is the id of a note that has not been stored yet.
const NewNoteID = -1

// Sortable note properties.
const (
	PropModified = "modified"
	PropContent  = "content"
)

// Note is a single stored note.
type Note struct {
	ID       int       `yaml:"id"`
	Content  string    `yaml:"content"`
	Modified time.Time `yaml:"modified"`
}

// IsNew reports whether the note has never been stored.
func (n Note) IsNew() bool {
	return n.ID < 0
}

// OrderBy selects the sort property and direction of a listing.
type OrderBy struct {
	Prop string
	Desc bool
}

// Query narrows a listing.
type Query struct {
	OrderBy OrderBy
}

// Less orders a before b under by. Unknown properties order by id.
func Less(a, b Note, by OrderBy) bool {
	var less, equal bool
	switch by.Prop {
	case PropContent:
		c := strings.Compare(a.Content, b.Content)
		less, equal = c < 0, c == 0
	case PropModified:
		less, equal = a.Modified.Before(b.Modified), a.Modified.Equal(b.Modified)
	default:
		less, equal = a.ID < b.ID, a.ID == b.ID
	}
	if equal {
		return a.ID < b.ID
	}
	if by.Desc {
		return !less
	}
	return less
}

// Sort orders notes in place.
func Sort(notes []Note, by OrderBy) {
	sort.SliceStable(notes, func(i, j int) bool { return Less(notes[i], notes[j], by) })
}

// NotFoundError represents a lookup of a note id that is not stored.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("note not found: %d", e.ID)
}

// Repository exposes CRUD operations on notes.
type Repository interface {
	List(ctx context.Context, q Query) ([]Note, error)
	GetByID(ctx context.Context, id int) (Note, error)
	Add(ctx context.Context, n Note) (Note, error)
	Update(ctx context.Context, n Note) (Note, error)
	DeleteByID(ctx context.Context, id int) (bool, error)
	CreateNew() Note
}

// MemoryRepository keeps notes in a process-local cache. Entries never
// expire; Dispose drops them all.
type MemoryRepository struct {
	cache *gocache.Cache
	now   func() time.Time

	mu     sync.Mutex
	nextID int
}

// MemoryOption configures a MemoryRepository.
type MemoryOption func(*MemoryRepository)

// WithClock overrides the time source used for Modified stamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	r := &MemoryRepository{
		cache:  gocache.New(gocache.NoExpiration, 0),
		now:    time.Now,
		nextID: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Repository = (*MemoryRepository)(nil)

func key(id int) string {
	return strconv.Itoa(id)
}

// List returns every note in the requested order.
func (r *MemoryRepository) List(_ context.Context, q Query) ([]Note, error) {
	items := r.cache.Items()
	out := make([]Note, 0, len(items))
	for k, item := range items {
		n, ok := item.Object.(Note)
		if !ok {
			log.Error(log.CatNotes, "wrong type in note store", "key", k)
			continue
		}
		out = append(out, n)
	}
	Sort(out, q.OrderBy)
	return out, nil
}

// GetByID returns the note with id.
// Returns NotFoundError if there is none.
func (r *MemoryRepository) GetByID(_ context.Context, id int) (Note, error) {
	v, found := r.cache.Get(key(id))
	if !found {
		return Note{}, &NotFoundError{ID: id}
	}
	return v.(Note), nil
}

// Add stores n under a fresh id, or under n.ID when it is positive and free.
func (r *MemoryRepository) Add(_ context.Context, n Note) (Note, error) {
	r.mu.Lock()
	if n.ID <= 0 {
		n.ID = r.nextID
	}
	if n.ID >= r.nextID {
		r.nextID = n.ID + 1
	}
	r.mu.Unlock()

	if n.Modified.IsZero() {
		n.Modified = r.now()
	}
	if err := r.cache.Add(key(n.ID), n, gocache.NoExpiration); err != nil {
		return Note{}, fmt.Errorf("adding note %d: %w", n.ID, err)
	}

	log.Debug(log.CatNotes, "note added", "id", n.ID)
	return n, nil
}

// Update replaces a stored note and stamps its modification time.
// Returns NotFoundError if the note is not stored.
func (r *MemoryRepository) Update(_ context.Context, n Note) (Note, error) {
	n.Modified = r.now()
	if err := r.cache.Replace(key(n.ID), n, gocache.NoExpiration); err != nil {
		return Note{}, &NotFoundError{ID: n.ID}
	}

	log.Debug(log.CatNotes, "note updated", "id", n.ID)
	return n, nil
}

// DeleteByID removes a note and reports whether it existed.
func (r *MemoryRepository) DeleteByID(_ context.Context, id int) (bool, error) {
	if _, found := r.cache.Get(key(id)); !found {
		return false, nil
	}
	r.cache.Delete(key(id))

	log.Debug(log.CatNotes, "note deleted", "id", id)
	return true, nil
}

// CreateNew returns an unsaved note.
func (r *MemoryRepository) CreateNew() Note {
	return Note{ID: NewNoteID, Modified: r.now()}
}

// Count returns the number of stored notes.
func (r *MemoryRepository) Count() int {
	return r.cache.ItemCount()
}

// Seed stores notes as given, keeping their ids.
func (r *MemoryRepository) Seed(ctx context.Context, notes []Note) error {
	for _, n := range notes {
		if _, err := r.Add(ctx, n); err != nil {
			return err
		}
	}
	log.Info(log.CatNotes, "notes seeded", "count", len(notes))
	return nil
}

// Dispose drops every stored note.
func (r *MemoryRepository) Dispose(context.Context) error {
	r.cache.Flush()
	return nil
}

type seedFile struct {
	Notes []Note `yaml:"notes"`
}

// LoadSeed reads notes from a YAML file of the form
//
//	notes:
//	  - id: 1
//	    content: Buy milk
//	    modified: 2024-01-02T15:04:05Z
func LoadSeed(path string) ([]Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return f.Notes, nil
}
