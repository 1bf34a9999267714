package quote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Numbering period modes. The period prefix scopes quote-number uniqueness
// and resets the visible sequence.
const (
	PeriodYear  = "year"
	PeriodMonth = "month"
)

const defaultAllocateAttempts = 3

// NumberAllocator hands out quote numbers unique within (owner, period),
// safe under concurrent creation across process instances. The max-number
// read is only a hint; the storage uniqueness constraint on
// (owner_id, quote_number) is the sole arbiter for collisions. No in-process
// locks are involved.
type NumberAllocator struct {
	period   string
	attempts int
	now      func() time.Time
}

// NewNumberAllocator builds an allocator for the given period mode.
// Unknown modes fall back to yearly numbering.
func NewNumberAllocator(period string) *NumberAllocator {
	if period != PeriodMonth {
		period = PeriodYear
	}
	return &NumberAllocator{period: period, attempts: defaultAllocateAttempts, now: time.Now}
}

// PeriodPrefix derives the numbering prefix from the quote's issue date.
func (a *NumberAllocator) PeriodPrefix(t time.Time) string {
	if a.period == PeriodMonth {
		return t.Format("200601")
	}
	return t.Format("2006")
}

// Allocate assigns q.QuoteNumber and inserts the quote row through repo.
// On a uniqueness violation it re-reads the true maximum and retries. After
// the bounded attempts it appends a sub-second disambiguating suffix and
// inserts once more, trading strict contiguity for guaranteed progress:
// numbering may show a gap or a rare suffixed entry under extreme
// contention, but creation never deadlocks.
//
// Must run inside the same transaction that persists the rest of the quote,
// so an aborted transaction never spends a number silently.
func (a *NumberAllocator) Allocate(ctx context.Context, repo Repository, q *Quote) error {
	prefix := a.PeriodPrefix(q.IssueDate)
	seq := 0
	for attempt := 0; attempt < a.attempts; attempt++ {
		last, err := repo.MaxNumber(ctx, q.OwnerID, prefix+"-")
		if err != nil {
			return fmt.Errorf("%w: read max quote number: %v", ErrStorageUnavailable, err)
		}
		seq = nextSequence(last, prefix)
		q.QuoteNumber = fmt.Sprintf("%s-%03d", prefix, seq)

		err = repo.Insert(ctx, *q)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			return fmt.Errorf("%w: insert quote: %v", ErrStorageUnavailable, err)
		}
	}

	q.QuoteNumber = fmt.Sprintf("%s-%03d-%03d", prefix, seq+1, a.now().Nanosecond()/int(time.Millisecond))
	err := repo.Insert(ctx, *q)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicateNumber) {
		return ErrAllocationExhausted
	}
	return fmt.Errorf("%w: insert quote: %v", ErrStorageUnavailable, err)
}

// nextSequence parses the sequence out of the highest existing number for
// the period. Numbers carrying a fallback suffix still parse; only the first
// segment after the prefix counts.
func nextSequence(last, prefix string) int {
	if last == "" {
		return 1
	}
	rest := strings.TrimPrefix(last, prefix+"-")
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		rest = rest[:i]
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 1
	}
	return n + 1
}
