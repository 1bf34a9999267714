package quote

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service is the only entry point allowed to construct or mutate quotes.
// It composes the number allocator, the lifecycle rules and the money
// computations so the quote invariants hold on every path.
type Service struct {
	repo      Repository
	allocator *NumberAllocator
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires a Service. A nil recorder disables activity events.
func NewService(repo Repository, allocator *NumberAllocator, recorder Recorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Service{
		repo:      repo,
		allocator: allocator,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the request, allocates a quote number and persists the
// new quote with its items in a single transaction. The quote starts in
// draft with today as its issue date.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, business BusinessSnapshot, req CreateQuoteRequest) (*Quote, error) {
	issueDate := dateOnly(s.now().UTC())

	if strings.TrimSpace(req.Customer.Name) == "" {
		return nil, invalidf("customer.name", "must not be empty")
	}
	if err := ValidateTaxRate(req.TaxRate); err != nil {
		return nil, err
	}
	validUntil, err := normalizeValidUntil(issueDate, req.ValidUntil)
	if err != nil {
		return nil, err
	}
	items, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	q := Quote{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Business: business,
		Customer: Customer{
			Name:    strings.TrimSpace(req.Customer.Name),
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		},
		Items:      items,
		Notes:      req.Notes,
		IssueDate:  issueDate,
		ValidUntil: validUntil,
		TaxRate:    req.TaxRate,
		Status:     StatusDraft,
	}
	q.ComputeTotals()

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := s.allocator.Allocate(ctx, repo, &q); err != nil {
			return err
		}
		return repo.ReplaceItems(ctx, q.ID, q.Items)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, Event{
		Type:        EventQuoteCreated,
		QuoteID:     q.ID,
		OwnerID:     q.OwnerID,
		ActorID:     ownerID,
		QuoteNumber: q.QuoteNumber,
		ToStatus:    q.Status,
	})

	return s.repo.Get(ctx, q.ID)
}

// Update applies a replace-all patch. Status changes are routed through the
// lifecycle rules; items, customer, notes, tax rate and valid-until are
// replaced wholesale when present; totals are recomputed. Identity fields
// always come from the stored row, never from the patch.
func (s *Service) Update(ctx context.Context, id uuid.UUID, actor Actor, req UpdateQuoteRequest) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != actor.ID && !actor.Admin {
		return nil, ErrForbidden
	}

	updated := *existing

	if req.Customer != nil {
		if strings.TrimSpace(req.Customer.Name) == "" {
			return nil, invalidf("customer.name", "must not be empty")
		}
		updated.Customer = Customer{
			Name:    strings.TrimSpace(req.Customer.Name),
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		}
	}

	itemsPatched := false
	if req.Items != nil {
		items, err := buildItems(*req.Items)
		if err != nil {
			return nil, err
		}
		updated.Items = items
		itemsPatched = true
	}

	if req.Notes != nil {
		updated.Notes = *req.Notes
	}
	if req.ValidUntil != nil {
		validUntil, err := normalizeValidUntil(existing.IssueDate, *req.ValidUntil)
		if err != nil {
			return nil, err
		}
		updated.ValidUntil = validUntil
	}
	if req.TaxRate != nil {
		if err := ValidateTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
		updated.TaxRate = *req.TaxRate
	}

	statusChanged := false
	if req.Status != nil && *req.Status != existing.Status {
		updated, err = Transition(updated, actor, *req.Status)
		if err != nil {
			return nil, err
		}
		statusChanged = true
	}

	// Identity fields are immutable after creation.
	updated.ID = existing.ID
	updated.OwnerID = existing.OwnerID
	updated.QuoteNumber = existing.QuoteNumber
	updated.IssueDate = existing.IssueDate

	updated.ComputeTotals()

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, updated); err != nil {
			return err
		}
		if itemsPatched {
			return repo.ReplaceItems(ctx, updated.ID, updated.Items)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}

	if statusChanged {
		s.emit(ctx, Event{
			Type:        EventQuoteStatusChanged,
			QuoteID:     updated.ID,
			OwnerID:     updated.OwnerID,
			ActorID:     actor.ID,
			QuoteNumber: updated.QuoteNumber,
			FromStatus:  existing.Status,
			ToStatus:    updated.Status,
		})
	}

	return s.repo.Get(ctx, updated.ID)
}

// Get returns the quote if the actor owns it or is an admin.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != actor.ID && !actor.Admin {
		return nil, ErrForbidden
	}
	return q, nil
}

// List returns the actor's quotes; admins may list any owner's.
func (s *Service) List(ctx context.Context, actor Actor, req ListQuotesRequest) ([]Quote, int, error) {
	if !actor.Admin {
		req.OwnerID = actor.ID
	}
	return s.repo.List(ctx, req)
}

func (s *Service) emit(ctx context.Context, ev Event) {
	if err := s.recorder.Record(ctx, ev); err != nil && s.logger != nil {
		s.logger.Warn("record activity event",
			slog.String("type", ev.Type),
			slog.String("quote_id", ev.QuoteID.String()),
			slog.Any("error", err))
	}
}

func buildItems(reqs []ItemRequest) ([]ServiceItem, error) {
	items := make([]ServiceItem, 0, len(reqs))
	for i, ir := range reqs {
		it := ServiceItem{
			Description: strings.TrimSpace(ir.Description),
			Quantity:    ir.Quantity,
			UnitPrice:   ir.UnitPrice,
			Position:    i + 1,
		}
		if ir.ID != nil {
			it.ID = *ir.ID
		} else {
			it.ID = uuid.New()
		}
		if err := ValidateItem(it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// normalizeValidUntil truncates to a date and enforces that a set
// valid-until never precedes the issue date. Zero means no expiry.
func normalizeValidUntil(issueDate, validUntil time.Time) (time.Time, error) {
	if validUntil.IsZero() {
		return time.Time{}, nil
	}
	d := dateOnly(validUntil)
	if d.Before(issueDate) {
		return time.Time{}, invalidf("valid_until", "must not precede the issue date")
	}
	return d, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
