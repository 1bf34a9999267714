package quote

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// memRepository is an in-memory Repository for tests. The owner+number
// uniqueness check is enforced under a mutex, mirroring what the database
// constraint provides in production.
type memRepository struct {
	mu      sync.Mutex
	quotes  map[uuid.UUID]Quote
	numbers map[string]bool

	insertErr error
	maxErr    error
	updateErr error
}

func newMemRepository() *memRepository {
	return &memRepository{
		quotes:  make(map[uuid.UUID]Quote),
		numbers: make(map[string]bool),
	}
}

func numberKey(ownerID uuid.UUID, number string) string {
	return ownerID.String() + "/" + number
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepository) Get(ctx context.Context, id uuid.UUID) (*Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *memRepository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Quote
	for _, q := range m.quotes {
		if req.OwnerID != uuid.Nil && q.OwnerID != req.OwnerID {
			continue
		}
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuoteNumber < out[j].QuoteNumber })
	return out, len(out), nil
}

func (m *memRepository) MaxNumber(ctx context.Context, ownerID uuid.UUID, prefix string) (string, error) {
	if m.maxErr != nil {
		return "", m.maxErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	max := ""
	for _, q := range m.quotes {
		if q.OwnerID != ownerID || !strings.HasPrefix(q.QuoteNumber, prefix) {
			continue
		}
		if q.QuoteNumber > max {
			max = q.QuoteNumber
		}
	}
	return max, nil
}

func (m *memRepository) Insert(ctx context.Context, q Quote) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := numberKey(q.OwnerID, q.QuoteNumber)
	if m.numbers[key] {
		return ErrDuplicateNumber
	}
	m.numbers[key] = true
	m.quotes[q.ID] = q
	return nil
}

func (m *memRepository) Update(ctx context.Context, q Quote) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quotes[q.ID]; !ok {
		return ErrNotFound
	}
	m.quotes[q.ID] = q
	return nil
}

func (m *memRepository) ReplaceItems(ctx context.Context, quoteID uuid.UUID, items []ServiceItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[quoteID]
	if !ok {
		return ErrNotFound
	}
	q.Items = append([]ServiceItem(nil), items...)
	m.quotes[quoteID] = q
	return nil
}

// allNumbers returns every allocated quote number for an owner, sorted.
func (m *memRepository) allNumbers(ownerID uuid.UUID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var nums []string
	for _, q := range m.quotes {
		if q.OwnerID == ownerID {
			nums = append(nums, q.QuoteNumber)
		}
	}
	sort.Strings(nums)
	return nums
}

// memRecorder captures emitted events; failErr makes every Record fail.
type memRecorder struct {
	mu      sync.Mutex
	events  []Event
	failErr error
}

func (r *memRecorder) Record(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) recorded() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
