package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotedesk/quotedesk/internal/shared"
)

type fakeRepo struct {
	byEmail map[string]*User
	byID    map[uuid.UUID]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: make(map[string]*User), byID: make(map[uuid.UUID]*User)}
}

func (f *fakeRepo) add(u *User) {
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) UpdateBusiness(ctx context.Context, id uuid.UUID, name, phone, address string, logoURL *string) error {
	u, ok := f.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.BusinessName = name
	u.BusinessPhone = phone
	u.BusinessAddress = address
	u.LogoURL = logoURL
	u.UpdatedAt = time.Now()
	return nil
}

func testUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{
		ID:            uuid.New(),
		Email:         "paint@quotedesk.local",
		PasswordHash:  string(hash),
		BusinessName:  "Brightside Painting Co",
		BusinessPhone: "555-0100",
		IsActive:      true,
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeRepo()
	user := testUser(t, "painter123")
	repo.add(user)
	svc := NewService(repo)

	got, err := svc.Authenticate(context.Background(), user.Email, "painter123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthenticateFailures(t *testing.T) {
	repo := newFakeRepo()
	user := testUser(t, "painter123")
	repo.add(user)

	inactive := testUser(t, "painter123")
	inactive.Email = "gone@quotedesk.local"
	inactive.IsActive = false
	repo.add(inactive)

	svc := NewService(repo)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", user.Email, "not-the-password"},
		{"unknown email", "nobody@quotedesk.local", "painter123"},
		{"inactive account", inactive.Email, "painter123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
			require.ErrorIs(t, err, shared.ErrInvalidCredentials)
		})
	}
}

func TestUserByIDInactive(t *testing.T) {
	repo := newFakeRepo()
	user := testUser(t, "painter123")
	user.IsActive = false
	repo.add(user)
	svc := NewService(repo)

	_, err := svc.UserByID(context.Background(), user.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSnapshotCopiesProfile(t *testing.T) {
	logo := "https://cdn.example.com/logo.png"
	user := &User{
		ID:              uuid.New(),
		BusinessName:    "Brightside Painting Co",
		BusinessPhone:   "555-0100",
		BusinessAddress: "12 Main St",
		LogoURL:         &logo,
	}

	snap := user.Snapshot()
	assert.Equal(t, "Brightside Painting Co", snap.Name)
	assert.Equal(t, "555-0100", snap.Phone)
	assert.Equal(t, "12 Main St", snap.Address)
	require.NotNil(t, snap.LogoURL)
	assert.Equal(t, logo, *snap.LogoURL)
}

func TestActorReflectsAdminFlag(t *testing.T) {
	admin := &User{ID: uuid.New(), IsAdmin: true}
	actor := admin.Actor()
	assert.Equal(t, admin.ID, actor.ID)
	assert.True(t, actor.Admin)
}

func TestUpdateBusinessDoesNotTouchQuotes(t *testing.T) {
	repo := newFakeRepo()
	user := testUser(t, "painter123")
	repo.add(user)
	svc := NewService(repo)

	before := user.Snapshot()

	updated, err := svc.UpdateBusiness(context.Background(), user.ID, "Brightside Painting LLC", "555-0200", "99 Oak Ave", nil)
	require.NoError(t, err)
	assert.Equal(t, "Brightside Painting LLC", updated.BusinessName)

	// The snapshot taken before the edit keeps its original values.
	assert.Equal(t, "Brightside Painting Co", before.Name)
	assert.Equal(t, "555-0100", before.Phone)
}
