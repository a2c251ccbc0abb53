package recordstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/pkg/clock"
	"restaurant-ordering/internal/pkg/money"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for local runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	clock       clock.Clock
	collections map[string]*memCollection
}

type memCollection struct {
	records map[string]Record
	order   []string // insertion order
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Mutator = (*MemoryStore)(nil)
)

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &MemoryStore{
		clock:       clk,
		collections: map[string]*memCollection{},
	}
}

// lookup never creates a collection, so it is safe under the read lock.
func (s *MemoryStore) lookup(name, id string) (Record, bool) {
	c, ok := s.collections[name]
	if !ok {
		return nil, false
	}
	rec, ok := c.records[id]
	return rec, ok
}

// collection creates name on first use; callers hold the write lock.
func (s *MemoryStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{records: map[string]Record{}}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.lookup(collection, id)
	if !ok {
		return nil, infra.NotFound(fmt.Sprintf("%s record %q not found", collection, id))
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context, collection string, opts ListOptions) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.normalized()

	s.mu.RLock()
	var matched []Record
	if c, ok := s.collections[collection]; ok {
		matched = make([]Record, 0, len(c.order))
		for _, id := range c.order {
			rec := c.records[id]
			if matchesAll(rec, opts.Filter) {
				matched = append(matched, rec.Clone())
			}
		}
	}
	s.mu.RUnlock()

	if opts.Sort != "" {
		sortRecords(matched, opts.Sort)
	}

	page := &Page{Page: opts.Page, PerPage: opts.PerPage, TotalItems: len(matched)}
	start := (opts.Page - 1) * opts.PerPage
	if start < len(matched) {
		end := min(start+opts.PerPage, len(matched))
		page.Items = matched[start:end]
	}
	return page, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := Normalize(fields)
	if err != nil {
		return nil, infra.NewValidationErr("failed to encode record", map[string]string{"data": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
	} else if _, exists := c.records[id]; exists {
		return nil, infra.Conflict(fmt.Sprintf("%s record %q already exists", collection, id))
	}
	now := s.clock.Now().UTC().Format(StampLayout)
	rec[FieldID] = id
	rec[FieldCreated] = now
	rec[FieldUpdated] = now

	c.records[id] = rec
	c.order = append(c.order, id)
	return rec.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	patch, err := Normalize(fields)
	if err != nil {
		return nil, infra.NewValidationErr("failed to encode record", map[string]string{"data": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(collection, id, patch)
}

// Mutate holds the store lock for the whole read-modify-write.
func (s *MemoryStore) Mutate(ctx context.Context, collection, id string, fn MutateFunc) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lookup(collection, id)
	if !ok {
		return nil, infra.NotFound(fmt.Sprintf("%s record %q not found", collection, id))
	}
	fields, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	patch, err := Normalize(fields)
	if err != nil {
		return nil, infra.NewValidationErr("failed to encode record", map[string]string{"data": err.Error()})
	}
	return s.applyLocked(collection, id, patch)
}

func (s *MemoryStore) applyLocked(collection, id string, patch Record) (Record, error) {
	current, ok := s.lookup(collection, id)
	if !ok {
		return nil, infra.NotFound(fmt.Sprintf("%s record %q not found", collection, id))
	}
	c := s.collections[collection]
	delete(patch, FieldID)
	delete(patch, FieldCreated)
	patch[FieldUpdated] = s.clock.Now().UTC().Format(StampLayout)

	next := current.Merge(patch)
	c.records[id] = next
	return next.Clone(), nil
}

func matchesAll(rec Record, conds []Cond) bool {
	for _, cond := range conds {
		if !matches(rec[cond.Field], cond.Value) {
			return false
		}
	}
	return true
}

func matches(stored, want any) bool {
	w := scalarString(want)
	switch v := stored.(type) {
	case []any:
		for _, el := range v {
			if scalarString(el) == w {
				return true
			}
		}
		return false
	default:
		return scalarString(v) == w
	}
}

func scalarString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func sortRecords(recs []Record, sortSpec string) {
	field := strings.TrimPrefix(sortSpec, "-")
	desc := strings.HasPrefix(sortSpec, "-")
	sort.SliceStable(recs, func(i, j int) bool {
		c := compareValues(recs[i][field], recs[j][field])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareValues(a, b any) int {
	an, aok := money.ToMinor(a)
	bn, bok := money.ToMinor(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(scalarString(a), scalarString(b))
}
