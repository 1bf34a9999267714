package quote

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	service  *Service
	repo     *memRepository
	recorder *memRecorder
	owner    uuid.UUID
	business BusinessSnapshot
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newMemRepository()
	recorder := &memRecorder{}
	svc := NewService(repo, NewNumberAllocator(PeriodYear), recorder, slog.New(slog.DiscardHandler))
	svc.now = fixedClock(time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC))
	return &serviceFixture{
		service:  svc,
		repo:     repo,
		recorder: recorder,
		owner:    uuid.New(),
		business: BusinessSnapshot{Name: "Brightside Painting Co", Phone: "555-0100", Address: "12 Main St"},
	}
}

func (f *serviceFixture) createRequest(t *testing.T) CreateQuoteRequest {
	t.Helper()
	return CreateQuoteRequest{
		Customer: CustomerRequest{Name: "Harvey's Diner", Email: "harvey@example.com"},
		Items: []ItemRequest{
			{Description: "Interior painting", Quantity: dec(t, "3"), UnitPrice: dec(t, "150.00")},
			{Description: "Materials", Quantity: dec(t, "1"), UnitPrice: dec(t, "75.50")},
		},
		TaxRate: dec(t, "8.25"),
	}
}

func (f *serviceFixture) create(t *testing.T) *Quote {
	t.Helper()
	q, err := f.service.Create(context.Background(), f.owner, f.business, f.createRequest(t))
	require.NoError(t, err)
	return q
}

func TestServiceCreate(t *testing.T) {
	f := newServiceFixture(t)

	q := f.create(t)

	assert.Equal(t, "2025-001", q.QuoteNumber)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, f.owner, q.OwnerID)
	assert.Equal(t, "Brightside Painting Co", q.Business.Name)
	assert.Equal(t, "Harvey's Diner", q.Customer.Name)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), q.IssueDate)
	assert.True(t, q.ValidUntil.IsZero())

	assert.Equal(t, "525.50", q.Subtotal.StringFixed(2))
	assert.Equal(t, "43.35", q.TaxAmount.StringFixed(2))
	assert.Equal(t, "568.85", q.Total.StringFixed(2))

	require.Len(t, q.Items, 2)
	assert.Equal(t, 1, q.Items[0].Position)
	assert.Equal(t, 2, q.Items[1].Position)
	assert.NotEqual(t, uuid.Nil, q.Items[0].ID)
}

func TestServiceCreateSequentialNumbers(t *testing.T) {
	f := newServiceFixture(t)

	first := f.create(t)
	second := f.create(t)

	assert.Equal(t, "2025-001", first.QuoteNumber)
	assert.Equal(t, "2025-002", second.QuoteNumber)
}

func TestServiceCreateEmitsEvent(t *testing.T) {
	f := newServiceFixture(t)

	q := f.create(t)

	events := f.recorder.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, EventQuoteCreated, events[0].Type)
	assert.Equal(t, q.ID, events[0].QuoteID)
	assert.Equal(t, q.QuoteNumber, events[0].QuoteNumber)
	assert.Equal(t, StatusDraft, events[0].ToStatus)
}

func TestServiceCreateRecorderFailureIsTolerated(t *testing.T) {
	f := newServiceFixture(t)
	f.recorder.failErr = errors.New("queue down")

	q, err := f.service.Create(context.Background(), f.owner, f.business, f.createRequest(t))
	require.NoError(t, err, "a failing activity recorder must never block creation")
	assert.NotNil(t, q)
}

func TestServiceCreateValidation(t *testing.T) {
	f := newServiceFixture(t)

	req := f.createRequest(t)
	req.Customer.Name = "  "
	_, err := f.service.Create(context.Background(), f.owner, f.business, req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "customer.name", verr.Field)

	req = f.createRequest(t)
	req.TaxRate = dec(t, "101")
	_, err = f.service.Create(context.Background(), f.owner, f.business, req)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tax_rate", verr.Field)

	req = f.createRequest(t)
	req.Items[0].Quantity = decimal.Zero
	_, err = f.service.Create(context.Background(), f.owner, f.business, req)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	// Nothing persisted, no events emitted.
	assert.Empty(t, f.repo.allNumbers(f.owner))
	assert.Empty(t, f.recorder.recorded())
}

func TestServiceCreateValidUntil(t *testing.T) {
	f := newServiceFixture(t)

	req := f.createRequest(t)
	req.ValidUntil = time.Date(2025, time.July, 1, 15, 42, 0, 0, time.UTC)
	q, err := f.service.Create(context.Background(), f.owner, f.business, req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), q.ValidUntil)

	req.ValidUntil = time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)
	_, err = f.service.Create(context.Background(), f.owner, f.business, req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "valid_until", verr.Field)
}

func TestServiceCreateEmptyItems(t *testing.T) {
	f := newServiceFixture(t)

	req := f.createRequest(t)
	req.Items = nil
	q, err := f.service.Create(context.Background(), f.owner, f.business, req)
	require.NoError(t, err, "a draft with no items yet is legitimate")
	assert.True(t, q.Subtotal.IsZero())
	assert.True(t, q.Total.IsZero())
}

func TestServiceUpdateReplacesItemsWholesale(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	actor := Actor{ID: f.owner}

	newItems := []ItemRequest{
		{Description: "Full exterior repaint", Quantity: dec(t, "1"), UnitPrice: dec(t, "2400.00")},
	}
	updated, err := f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{Items: &newItems})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Full exterior repaint", updated.Items[0].Description)
	assert.Equal(t, "2400.00", updated.Subtotal.StringFixed(2))
	assert.Equal(t, "198.00", updated.TaxAmount.StringFixed(2))
	assert.Equal(t, "2598.00", updated.Total.StringFixed(2))
}

func TestServiceUpdateIdentityImmutable(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	actor := Actor{ID: f.owner}

	notes := "Updated terms"
	updated, err := f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, q.ID, updated.ID)
	assert.Equal(t, q.OwnerID, updated.OwnerID)
	assert.Equal(t, q.QuoteNumber, updated.QuoteNumber)
	assert.Equal(t, q.IssueDate, updated.IssueDate)
	assert.Equal(t, "Updated terms", updated.Notes)
}

func TestServiceUpdateAbsentFieldsUntouched(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	actor := Actor{ID: f.owner}

	rate := dec(t, "10")
	updated, err := f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{TaxRate: &rate})
	require.NoError(t, err)

	assert.Equal(t, "Harvey's Diner", updated.Customer.Name)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, "525.50", updated.Subtotal.StringFixed(2))
	assert.Equal(t, "52.55", updated.TaxAmount.StringFixed(2))
	assert.Equal(t, "578.05", updated.Total.StringFixed(2))
}

func TestServiceUpdateStatusTransition(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	actor := Actor{ID: f.owner}

	sent := StatusSent
	updated, err := f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{Status: &sent})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, updated.Status)

	approved := StatusApproved
	updated, err = f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)

	events := f.recorder.recorded()
	require.Len(t, events, 3) // created + two status changes
	assert.Equal(t, EventQuoteStatusChanged, events[1].Type)
	assert.Equal(t, StatusDraft, events[1].FromStatus)
	assert.Equal(t, StatusSent, events[1].ToStatus)
	assert.Equal(t, StatusSent, events[2].FromStatus)
	assert.Equal(t, StatusApproved, events[2].ToStatus)
}

func TestServiceUpdateForbiddenTransitionRollsBackEverything(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	actor := Actor{ID: f.owner}

	sent := StatusSent
	_, err := f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{Status: &sent})
	require.NoError(t, err)
	approved := StatusApproved
	_, err = f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{Status: &approved})
	require.NoError(t, err)

	// A combined patch where the status change is forbidden must not apply
	// any of its other fields either.
	notes := "should not stick"
	draft := StatusDraft
	_, err = f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{Notes: &notes, Status: &draft})
	var ferr *ForbiddenTransitionError
	require.ErrorAs(t, err, &ferr)

	current, err := f.service.Get(context.Background(), q.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, current.Status)
	assert.Empty(t, current.Notes)
}

func TestServiceUpdateSameStatusIsNoTransition(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	actor := Actor{ID: f.owner}

	draft := StatusDraft
	updated, err := f.service.Update(context.Background(), q.ID, actor, UpdateQuoteRequest{Status: &draft})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, updated.Status)
	assert.Len(t, f.recorder.recorded(), 1, "no status-changed event for a same-status patch")
}

func TestServiceUpdateAdminMayReopen(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	owner := Actor{ID: f.owner}
	admin := Actor{ID: uuid.New(), Admin: true}

	approved := StatusApproved
	_, err := f.service.Update(context.Background(), q.ID, owner, UpdateQuoteRequest{Status: &approved})
	require.NoError(t, err)

	draft := StatusDraft
	updated, err := f.service.Update(context.Background(), q.ID, admin, UpdateQuoteRequest{Status: &draft})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, updated.Status)
}

func TestServiceUpdateOwnership(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	stranger := Actor{ID: uuid.New()}

	notes := "mine now"
	_, err := f.service.Update(context.Background(), q.ID, stranger, UpdateQuoteRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.Get(context.Background(), q.ID, stranger)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestServiceUpdateNotFound(t *testing.T) {
	f := newServiceFixture(t)
	notes := "x"
	_, err := f.service.Update(context.Background(), uuid.New(), Actor{ID: f.owner}, UpdateQuoteRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListScoping(t *testing.T) {
	f := newServiceFixture(t)
	mine := f.create(t)

	otherOwner := uuid.New()
	_, err := f.service.Create(context.Background(), otherOwner, BusinessSnapshot{Name: "Other Co"}, f.createRequest(t))
	require.NoError(t, err)

	// Owners only ever see their own quotes, whatever the request says.
	quotes, total, err := f.service.List(context.Background(), Actor{ID: f.owner}, ListQuotesRequest{OwnerID: otherOwner})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, quotes, 1)
	assert.Equal(t, mine.ID, quotes[0].ID)

	// Admins may list any owner's quotes.
	quotes, total, err = f.service.List(context.Background(), Actor{ID: uuid.New(), Admin: true}, ListQuotesRequest{OwnerID: otherOwner})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, otherOwner, quotes[0].OwnerID)

	// Admin with no owner filter sees everything.
	_, total, err = f.service.List(context.Background(), Actor{ID: uuid.New(), Admin: true}, ListQuotesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestServiceListStatusFilter(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)
	f.create(t)

	sent := StatusSent
	_, err := f.service.Update(context.Background(), q.ID, Actor{ID: f.owner}, UpdateQuoteRequest{Status: &sent})
	require.NoError(t, err)

	quotes, total, err := f.service.List(context.Background(), Actor{ID: f.owner}, ListQuotesRequest{Status: &sent})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, quotes, 1)
	assert.Equal(t, q.ID, quotes[0].ID)
}
