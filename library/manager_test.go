package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newManager(t *testing.T, store Store, opts ...Option) *LibraryManager {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithLifecycle(testLifecycle())}, opts...)
	mgr, err := NewLibraryManager(context.Background(), store, opts...)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

// failingStore rejects writes while fail is set.
type failingStore struct {
	*MemoryStore
	fail bool
}

func (f *failingStore) PutAll(ctx context.Context, entries map[string][]byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryStore.PutAll(ctx, entries)
}

func TestManager_SeedsEmptyStore(t *testing.T) {
	mgr := newManager(t, NewMemoryStore())
	require.Equal(t, DefaultSeed(), mgr.Snapshot())
	_, ok := mgr.CurrentUser()
	require.False(t, ok)
}

func TestManager_CustomSeedAndPrefix(t *testing.T) {
	store := NewMemoryStore()
	seed := State{Books: []Book{{ID: "X", Code: "C", Letter: "L", Author: "A", Title: "T", Language: "English", Genre: "G", Volume: "1", Status: StatusAvailable}}}
	mgr := newManager(t, store, WithSeed(seed), WithKeyPrefix("branch2"))

	_, err := mgr.SetFeatured(context.Background(), "X", true)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "branch2_books")
	require.NoError(t, err)
	_, err = store.Get(context.Background(), "biblio_books")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestManager_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	ctx := context.Background()

	db, err := NewDatabase(path)
	require.NoError(t, err)
	mgr, err := NewLibraryManager(ctx, db, WithLifecycle(testLifecycle()))
	require.NoError(t, err)

	_, err = mgr.Login(ctx, "john@example.com", DefaultPassword)
	require.NoError(t, err)
	ch, err := mgr.Reserve(ctx, "1", "M-002")
	require.NoError(t, err)
	require.False(t, ch.None())
	_, err = mgr.FinishLoan(ctx, "L-001")
	require.NoError(t, err)
	want := mgr.Snapshot()
	require.NoError(t, mgr.Close())

	db, err = NewDatabase(path)
	require.NoError(t, err)
	reopened := newManager(t, db)

	require.Equal(t, want, reopened.Snapshot())
	u, ok := reopened.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "M-002", u.MemberID)

	b, _ := reopened.GetBook("1")
	require.Equal(t, StatusReserved, b.Status)
	b, _ = reopened.GetBook("4")
	require.Equal(t, StatusAvailable, b.Status)
}

func TestManager_EmptyCollectionsAreNotReseeded(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	mgr := newManager(t, store)

	_, err := mgr.CancelReservation(ctx, "R-001")
	require.NoError(t, err)
	require.Empty(t, mgr.Reservations())

	reopened := newManager(t, store)
	require.Empty(t, reopened.Reservations())
}

func TestManager_LoginLogout(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	mgr := newManager(t, store)

	_, err := mgr.RequireAdmin()
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = mgr.Login(ctx, "admin@library.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = mgr.Login(ctx, "john@example.com", DefaultPassword)
	require.NoError(t, err)
	_, err = mgr.RequireAdmin()
	require.ErrorIs(t, err, ErrForbidden)

	admin, err := mgr.Login(ctx, "admin@library.com", DefaultPassword)
	require.NoError(t, err)
	got, err := mgr.RequireAdmin()
	require.NoError(t, err)
	require.Equal(t, admin, got)

	require.NoError(t, mgr.Logout(ctx))
	_, ok := mgr.CurrentUser()
	require.False(t, ok)
	_, err = store.Get(ctx, "biblio_user")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestManager_UpdateMemberRefreshesSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	mgr := newManager(t, store)

	_, err := mgr.Login(ctx, "john@example.com", DefaultPassword)
	require.NoError(t, err)

	m, _ := mgr.GetMember("M-002")
	_, err = mgr.UpdateMember(ctx, MemberInput{MemberID: m.MemberID, Name: "John Q. Doe", Email: m.Email, Role: m.Role, Password: m.Password})
	require.NoError(t, err)

	u, _ := mgr.CurrentUser()
	require.Equal(t, "John Q. Doe", u.Name)

	reopened := newManager(t, store)
	u, _ = reopened.CurrentUser()
	require.Equal(t, "John Q. Doe", u.Name)
}

func TestManager_FailedSaveKeepsState(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	ctx := context.Background()
	mgr := newManager(t, store)
	before := mgr.Snapshot()

	store.fail = true
	_, err := mgr.Reserve(ctx, "1", "M-002")
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, before, mgr.Snapshot())

	store.fail = false
	_, err = mgr.Reserve(ctx, "1", "M-002")
	require.NoError(t, err)
	b, _ := mgr.GetBook("1")
	require.Equal(t, StatusReserved, b.Status)
}

func TestManager_NoOpIsNotPersisted(t *testing.T) {
	store := NewMemoryStore()
	mgr := newManager(t, store)

	ch, err := mgr.FinishLoan(context.Background(), "L-404")
	require.NoError(t, err)
	require.True(t, ch.None())
	_, err = store.Get(context.Background(), "biblio_books")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestManager_Imports(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, NewMemoryStore())

	n, err := mgr.ImportBooks(ctx, "B-1,CODE-1,G,Author One,Title One,English,Fiction,1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, mgr.Books(), 6)

	// The same ids again collide and nothing is added.
	_, err = mgr.ImportBooks(ctx, "B-1,CODE-1,G,Author One,Title One,English,Fiction,1")
	require.ErrorIs(t, err, ErrImportFailed)
	require.ErrorIs(t, err, ErrAlreadyExists)
	require.Len(t, mgr.Books(), 6)

	// A repeated id inside one batch is rejected the same way.
	_, err = mgr.ImportBooks(ctx, "B-2,C,G,A,T,English,Fiction,1\nB-2,C,G,A,T,English,Fiction,1")
	require.ErrorIs(t, err, ErrImportFailed)
	require.Len(t, mgr.Books(), 6)

	_, err = mgr.ImportMembers(ctx, "M-001,Ana,CL,F,ana@example.com", "Super User")
	require.ErrorIs(t, err, ErrImportFailed)
	require.ErrorIs(t, err, ErrAlreadyExists)
	require.Len(t, mgr.Members(), 2)

	n, err = mgr.ImportMembers(ctx, "M-9,Ana,CL,F,ana@example.com", "Super User")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	m, ok := mgr.GetMember("M-9")
	require.True(t, ok)
	require.Equal(t, "Super User", m.ApprovedBy)

	_, err = mgr.Login(ctx, "ana@example.com", DefaultPassword)
	require.NoError(t, err)

	// A placeholder email imports as written and does not block later edits.
	_, err = mgr.ImportMembers(ctx, "M-10,Bob,CL,M,-", "Super User")
	require.NoError(t, err)
	bob, _ := mgr.GetMember("M-10")
	require.Equal(t, "-", bob.Email)
	ch, err := mgr.UpdateMember(ctx, MemberInput{MemberID: "M-10", Name: "Bob Soto", Email: "-"})
	require.NoError(t, err)
	require.Equal(t, MembersChanged, ch)
	_, err = mgr.UpdateMember(ctx, MemberInput{MemberID: "M-10", Name: "Bob Soto", Email: "still-not-an-email"})
	require.ErrorIs(t, err, ErrInvalidRecord)
}

func TestManager_CatalogAndMembers(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, NewMemoryStore())

	b, err := mgr.AddBook(ctx, BookInput{ID: "B-7", Title: "Rayuela", Author: "Julio Cortázar"})
	require.NoError(t, err)
	require.Equal(t, StatusAvailable, b.Status)
	require.Len(t, mgr.SearchBooks(Filter{Query: "cortázar"}), 1)

	_, err = mgr.AddBook(ctx, BookInput{ID: "B-7"})
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = mgr.AddBook(ctx, BookInput{ID: "B-9", Title: "T", Status: StatusBorrowed})
	require.ErrorIs(t, err, ErrInconsistentState)
	_, ok := mgr.GetBook("B-9")
	require.False(t, ok)
	require.Empty(t, mgr.CheckConsistency())

	ch, err := mgr.UpdateBook(ctx, BookInput{ID: "B-7", Title: "Rayuela", Author: "Julio Cortázar", Genre: "Novel"})
	require.NoError(t, err)
	require.Equal(t, BooksChanged, ch)
	b, _ = mgr.GetBook("B-7")
	require.Equal(t, "Novel", b.Genre)

	m, err := mgr.AddMember(ctx, MemberInput{Name: "Ana", Email: "ana@example.com", ApprovedBy: "Super User"})
	require.NoError(t, err)
	_, err = mgr.Checkout(ctx, "B-7", m.MemberID)
	require.NoError(t, err)

	orphaned, err := mgr.DeleteMember(ctx, m.MemberID)
	require.NoError(t, err)
	require.Equal(t, 1, orphaned)
	require.Len(t, mgr.CheckConsistency(), 1)
}

func TestManager_ReserveLendFinish(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, NewMemoryStore())

	_, err := mgr.Reserve(ctx, "2", "M-001")
	require.NoError(t, err)
	_, err = mgr.Reserve(ctx, "2", "M-002")
	require.ErrorIs(t, err, ErrBookUnavailable)

	res := MemberReservations(mgr.Reservations(), "M-001")
	require.Len(t, res, 1)
	_, err = mgr.Lend(ctx, res[0].ID)
	require.NoError(t, err)

	loans := MemberLoans(mgr.Loans(), "M-001", true)
	require.Len(t, loans, 1)
	_, err = mgr.FinishLoan(ctx, loans[0].ID)
	require.NoError(t, err)

	b, _ := mgr.GetBook("2")
	require.Equal(t, StatusAvailable, b.Status)
	require.Empty(t, mgr.CheckConsistency())

	_, err = mgr.ForceAvailable(ctx, "3")
	require.NoError(t, err)
	require.Len(t, mgr.CheckConsistency(), 1)
	_, err = mgr.ToggleFeatured(ctx, "3")
	require.NoError(t, err)
	b, _ = mgr.GetBook("3")
	require.True(t, b.IsTop)
}

func TestManager_StoredKeys(t *testing.T) {
	ctx := context.Background()

	mgr := newManager(t, tempDB(t))
	keys, err := mgr.StoredKeys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)

	_, err = mgr.Login(ctx, "admin@library.com", DefaultPassword)
	require.NoError(t, err)
	keys, err = mgr.StoredKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"biblio_books", "biblio_loans", "biblio_members", "biblio_reservations", "biblio_user"}, keys)

	mem := newManager(t, NewMemoryStore())
	_, err = mem.Reserve(ctx, "1", "M-002")
	require.NoError(t, err)
	keys, err = mem.StoredKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 5)

	// Only the Store methods are visible through the embedded interface.
	opaque := newManager(t, struct{ Store }{NewMemoryStore()})
	_, err = opaque.StoredKeys(ctx)
	require.ErrorIs(t, err, ErrKeysUnsupported)
}
