package admin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artemvershinski/bot/internal/admin"
	"github.com/artemvershinski/bot/internal/database"
)

const ownerID int64 = 100

// fakeStore implements the store methods the directory uses. The embedded
// interface panics on anything else, which is what we want in tests.
type fakeStore struct {
	database.Store

	users  map[int64]*database.User
	admins map[int64]*database.Admin
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[int64]*database.User),
		admins: make(map[int64]*database.Admin),
	}
}

func (f *fakeStore) GetUser(_ context.Context, userID int64) (*database.User, error) {
	if u, ok := f.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertUser(_ context.Context, user *database.User) error {
	copied := *user
	f.users[user.UserID] = &copied
	return nil
}

func (f *fakeStore) GetAdmin(_ context.Context, userID int64) (*database.Admin, error) {
	if a, ok := f.admins[userID]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertAdmin(_ context.Context, entry *database.Admin) error {
	copied := *entry
	f.admins[entry.UserID] = &copied
	return nil
}

func (f *fakeStore) DeactivateAdmin(_ context.Context, userID int64) error {
	if a, ok := f.admins[userID]; ok {
		a.IsActive = false
	}
	return nil
}

func (f *fakeStore) GetActiveAdmins(_ context.Context) ([]database.Admin, error) {
	var active []database.Admin
	for _, a := range f.admins {
		if a.IsActive {
			active = append(active, *a)
		}
	}
	return active, nil
}

func TestOwnerIsAlwaysAdmin(t *testing.T) {
	t.Parallel()

	dir := admin.NewDirectory(newFakeStore(), ownerID, nil)

	isAdmin, err := dir.IsAdmin(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isAdmin {
		t.Error("owner must always be an admin")
	}
}

func TestRemoveOwnerFails(t *testing.T) {
	t.Parallel()

	dir := admin.NewDirectory(newFakeStore(), ownerID, nil)

	err := dir.Remove(context.Background(), ownerID)
	if !errors.Is(err, admin.ErrOwnerProtected) {
		t.Errorf("got %v, want ErrOwnerProtected", err)
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	dir := admin.NewDirectory(store, ownerID, nil)

	const target int64 = 777

	if isAdmin, _ := dir.IsAdmin(ctx, target); isAdmin {
		t.Fatal("target should not be admin before add")
	}

	if err := dir.Add(ctx, target, ownerID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if isAdmin, _ := dir.IsAdmin(ctx, target); !isAdmin {
		t.Error("target should be admin after add")
	}
	if store.users[target] == nil {
		t.Error("add should create a user record for the target")
	}

	if err := dir.Remove(ctx, target); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if isAdmin, _ := dir.IsAdmin(ctx, target); isAdmin {
		t.Error("target should not be admin after remove")
	}

	// Owner is unaffected throughout.
	if isAdmin, _ := dir.IsAdmin(ctx, ownerID); !isAdmin {
		t.Error("owner lost admin status during add/remove cycle")
	}
}

func TestAddReactivatesRemovedAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	dir := admin.NewDirectory(store, ownerID, nil)

	const target int64 = 777

	if err := dir.Add(ctx, target, ownerID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := dir.Remove(ctx, target); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := dir.Add(ctx, target, ownerID); err != nil {
		t.Fatalf("re-add failed: %v", err)
	}

	if isAdmin, _ := dir.IsAdmin(ctx, target); !isAdmin {
		t.Error("target should be admin again after re-add")
	}
}

func TestAddOwnerIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	dir := admin.NewDirectory(store, ownerID, nil)

	if err := dir.Add(ctx, ownerID, ownerID); err != nil {
		t.Fatalf("adding the owner should succeed as a no-op: %v", err)
	}
	if len(store.admins) != 0 {
		t.Error("owner must not be stored in the admin table")
	}
}

func TestListPutsOwnerFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	dir := admin.NewDirectory(store, ownerID, nil)

	store.admins[777] = &database.Admin{UserID: 777, AddedBy: ownerID, IsActive: true, AddedAt: time.Now().UTC()}

	ids, err := dir.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
	if ids[0] != ownerID {
		t.Errorf("first id = %d, want owner %d", ids[0], ownerID)
	}
}
