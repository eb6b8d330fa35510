package library

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// LibraryManager owns the application state. Every change goes through one of its
// methods, is checked by the Lifecycle, persisted as a whole snapshot, and only then
// becomes visible to readers.
type LibraryManager struct {
	mu    sync.Mutex
	state State
	user  *Member

	lc    Lifecycle
	store Store
	keys  Keys
	log   *zap.Logger
}

// Option configures a LibraryManager.
type Option func(*managerOptions)

type managerOptions struct {
	log       *zap.Logger
	lifecycle Lifecycle
	keys      Keys
	seed      *State
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *managerOptions) { o.log = log }
}

// WithLifecycle replaces the clock, id generator and loan period.
func WithLifecycle(lc Lifecycle) Option {
	return func(o *managerOptions) { o.lifecycle = lc }
}

// WithKeyPrefix changes the snapshot key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *managerOptions) { o.keys = NewKeys(prefix) }
}

// WithSeed sets the collections used when the store has none yet.
func WithSeed(st State) Option {
	return func(o *managerOptions) { o.seed = &st }
}

// NewLibraryManager loads the snapshot from store.
func NewLibraryManager(ctx context.Context, store Store, opts ...Option) (*LibraryManager, error) {
	o := managerOptions{
		log:       zap.NewNop(),
		lifecycle: NewLifecycle(DefaultLoanPeriod),
		keys:      NewKeys(DefaultKeyPrefix),
	}
	for _, op := range opts {
		op(&o)
	}
	seed := DefaultSeed()
	if o.seed != nil {
		seed = *o.seed
	}

	st, user, err := decodeSnapshot(ctx, store, o.keys, seed)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	lm := &LibraryManager{
		state: st,
		user:  user,
		lc:    o.lifecycle,
		store: store,
		keys:  o.keys,
		log:   o.log,
	}
	if v := st.CheckConsistency(); len(v) > 0 {
		lm.log.Warn("loaded snapshot has inconsistencies", zap.Int("count", len(v)), zap.String("first", v[0].String()))
	}
	lm.log.Debug("snapshot loaded",
		zap.Int("books", len(st.Books)),
		zap.Int("members", len(st.Members)),
		zap.Int("loans", len(st.Loans)),
		zap.Int("reservations", len(st.Reservations)))
	return lm, nil
}

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

// ------------------ Read side ------------------

// Snapshot returns a copy of the whole state.
func (lm *LibraryManager) Snapshot() State {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.state.Clone()
}

func (lm *LibraryManager) Books() []Book               { return lm.Snapshot().Books }
func (lm *LibraryManager) Members() []Member           { return lm.Snapshot().Members }
func (lm *LibraryManager) Loans() []Loan               { return lm.Snapshot().Loans }
func (lm *LibraryManager) Reservations() []Reservation { return lm.Snapshot().Reservations }

// GetBook looks up a single book.
func (lm *LibraryManager) GetBook(id string) (Book, bool) { return lm.Snapshot().Book(id) }

// GetMember looks up a single member.
func (lm *LibraryManager) GetMember(id string) (Member, bool) { return lm.Snapshot().Member(id) }

// SearchBooks filters the catalog.
func (lm *LibraryManager) SearchBooks(f Filter) []Book { return Search(lm.Books(), f) }

// CheckConsistency reports invariant violations in the current state.
func (lm *LibraryManager) CheckConsistency() []Violation { return lm.Snapshot().CheckConsistency() }

// StoredKeys lists the keys held by the store. Stores that cannot enumerate return
// ErrKeysUnsupported.
func (lm *LibraryManager) StoredKeys(ctx context.Context) ([]string, error) {
	kl, ok := lm.store.(KeyLister)
	if !ok {
		return nil, ErrKeysUnsupported
	}
	return kl.Keys(ctx)
}

// CurrentUser returns the logged in member, if any.
func (lm *LibraryManager) CurrentUser() (Member, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.user == nil {
		return Member{}, false
	}
	return *lm.user, true
}

// RequireAdmin returns the current member if they hold an administrative role.
func (lm *LibraryManager) RequireAdmin() (Member, error) {
	u, ok := lm.CurrentUser()
	if !ok {
		return Member{}, ErrNotAuthenticated
	}
	if !u.Role.IsAdmin() {
		return Member{}, ErrForbidden
	}
	return u, nil
}

// ------------------ Session ------------------

// Login checks credentials and remembers the member as the current user.
func (lm *LibraryManager) Login(ctx context.Context, email, password string) (Member, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	m, err := Authenticate(lm.state.Members, email, password)
	if err != nil {
		lm.log.Info("login failed", zap.String("email", email))
		return Member{}, err
	}
	if err := lm.persist(ctx, lm.state, &m); err != nil {
		return Member{}, err
	}
	lm.user = &m
	lm.log.Info("login", zap.String("member", m.MemberID))
	return m, nil
}

// Logout forgets the current user.
func (lm *LibraryManager) Logout(ctx context.Context) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.store.Delete(ctx, lm.keys.CurrentUser); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	lm.user = nil
	return nil
}

// ------------------ Circulation ------------------

func (lm *LibraryManager) Reserve(ctx context.Context, bookID, memberID string) (Change, error) {
	return lm.apply(ctx, "reserve", func(st State) (State, Change, error) {
		return lm.lc.Reserve(st, bookID, memberID)
	}, zap.String("book", bookID), zap.String("member", memberID))
}

func (lm *LibraryManager) CancelReservation(ctx context.Context, reservationID string) (Change, error) {
	return lm.apply(ctx, "cancel reservation", func(st State) (State, Change, error) {
		return lm.lc.CancelReservation(st, reservationID)
	}, zap.String("reservation", reservationID))
}

func (lm *LibraryManager) FinishLoan(ctx context.Context, loanID string) (Change, error) {
	return lm.apply(ctx, "finish loan", func(st State) (State, Change, error) {
		return lm.lc.FinishLoan(st, loanID)
	}, zap.String("loan", loanID))
}

func (lm *LibraryManager) Lend(ctx context.Context, reservationID string) (Change, error) {
	return lm.apply(ctx, "lend", func(st State) (State, Change, error) {
		return lm.lc.Lend(st, reservationID)
	}, zap.String("reservation", reservationID))
}

func (lm *LibraryManager) Checkout(ctx context.Context, bookID, memberID string) (Change, error) {
	return lm.apply(ctx, "checkout", func(st State) (State, Change, error) {
		return lm.lc.Checkout(st, bookID, memberID)
	}, zap.String("book", bookID), zap.String("member", memberID))
}

// ------------------ Administrative overrides ------------------

func (lm *LibraryManager) SetFeatured(ctx context.Context, bookID string, isTop bool) (Change, error) {
	return lm.apply(ctx, "set featured", func(st State) (State, Change, error) {
		return lm.lc.SetFeatured(st, bookID, isTop)
	}, zap.String("book", bookID), zap.Bool("isTop", isTop))
}

func (lm *LibraryManager) ToggleFeatured(ctx context.Context, bookID string) (Change, error) {
	return lm.apply(ctx, "toggle featured", func(st State) (State, Change, error) {
		return lm.lc.ToggleFeatured(st, bookID)
	}, zap.String("book", bookID))
}

func (lm *LibraryManager) ForceAvailable(ctx context.Context, bookID string) (Change, error) {
	return lm.apply(ctx, "force available", func(st State) (State, Change, error) {
		return lm.lc.ForceAvailable(st, bookID)
	}, zap.String("book", bookID))
}

// ------------------ Catalog ------------------

// AddBook builds a book from in and appends it.
func (lm *LibraryManager) AddBook(ctx context.Context, in BookInput) (Book, error) {
	b, err := BuildBook(in)
	if err != nil {
		return Book{}, err
	}
	_, err = lm.apply(ctx, "add book", func(st State) (State, Change, error) {
		return lm.lc.AddBook(st, b)
	}, zap.String("book", b.ID))
	if err != nil {
		return Book{}, err
	}
	return b, nil
}

// UpdateBook rebuilds the book from in and replaces the stored one with the same id.
func (lm *LibraryManager) UpdateBook(ctx context.Context, in BookInput) (Change, error) {
	b, err := BuildBook(in)
	if err != nil {
		return 0, err
	}
	return lm.apply(ctx, "update book", func(st State) (State, Change, error) {
		return lm.lc.UpdateBook(st, b)
	}, zap.String("book", b.ID))
}

// ImportBooks parses delimited text and appends the books. It returns how many were added.
// Every rejected batch matches ErrImportFailed; the cause stays matchable too.
func (lm *LibraryManager) ImportBooks(ctx context.Context, text string) (int, error) {
	books, err := ParseBooks(text)
	if err != nil {
		lm.log.Warn("book import rejected", zap.Error(err))
		return 0, err
	}
	if _, err := lm.apply(ctx, "import books", func(st State) (State, Change, error) {
		return lm.lc.ImportBooks(st, books)
	}, zap.Int("count", len(books))); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}
	return len(books), nil
}

// ------------------ Members ------------------

// AddMember builds a member from in and appends it.
func (lm *LibraryManager) AddMember(ctx context.Context, in MemberInput) (Member, error) {
	m, err := BuildMember(in)
	if err != nil {
		return Member{}, err
	}
	_, err = lm.apply(ctx, "add member", func(st State) (State, Change, error) {
		return lm.lc.AddMember(st, m)
	}, zap.String("member", m.MemberID))
	if err != nil {
		return Member{}, err
	}
	return m, nil
}

// UpdateMember rebuilds the member from in and replaces the stored one with the same id.
// The email format is only enforced when the email changes, so imported placeholders
// do not block other edits.
func (lm *LibraryManager) UpdateMember(ctx context.Context, in MemberInput) (Change, error) {
	return lm.apply(ctx, "update member", func(st State) (State, Change, error) {
		cur, ok := st.Member(strings.TrimSpace(in.MemberID))
		m, err := buildMember(in, !ok || cur.Email != strings.TrimSpace(in.Email))
		if err != nil {
			return st, 0, err
		}
		return lm.lc.UpdateMember(st, m)
	}, zap.String("member", in.MemberID))
}

// DeleteMember removes a member without touching their loans or reservations. It
// returns how many of those rows now reference a missing member.
func (lm *LibraryManager) DeleteMember(ctx context.Context, memberID string) (int, error) {
	var orphaned int
	_, err := lm.apply(ctx, "delete member", func(st State) (State, Change, error) {
		next, ch, n, err := lm.lc.DeleteMember(st, memberID)
		orphaned = n
		return next, ch, err
	}, zap.String("member", memberID))
	if err != nil {
		return 0, err
	}
	if orphaned > 0 {
		lm.log.Warn("deleted member still referenced", zap.String("member", memberID), zap.Int("rows", orphaned))
	}
	return orphaned, nil
}

// ImportMembers parses delimited text and appends the members, approved by approvedBy.
func (lm *LibraryManager) ImportMembers(ctx context.Context, text, approvedBy string) (int, error) {
	members, err := ParseMembers(text, approvedBy)
	if err != nil {
		lm.log.Warn("member import rejected", zap.Error(err))
		return 0, err
	}
	if _, err := lm.apply(ctx, "import members", func(st State) (State, Change, error) {
		return lm.lc.ImportMembers(st, members)
	}, zap.Int("count", len(members))); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}
	return len(members), nil
}

// ------------------ Internals ------------------

// apply runs one transition under the lock. No-ops are not persisted; a failed save
// leaves the in-memory state as it was.
func (lm *LibraryManager) apply(ctx context.Context, op string, fn func(State) (State, Change, error), fields ...zap.Field) (Change, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	next, ch, err := fn(lm.state)
	if err != nil {
		lm.log.Info(op+" rejected", append(fields, zap.Error(err))...)
		return 0, err
	}
	if ch.None() {
		lm.log.Debug(op+" changed nothing", fields...)
		return 0, nil
	}
	user := sessionMember(next, lm.user)
	if err := lm.persist(ctx, next, user); err != nil {
		return 0, err
	}
	lm.state = next
	lm.user = user
	lm.log.Info(op, fields...)
	return ch, nil
}

func (lm *LibraryManager) persist(ctx context.Context, st State, user *Member) error {
	entries, err := encodeSnapshot(lm.keys, st, user)
	if err != nil {
		return err
	}
	if err := lm.store.PutAll(ctx, entries); err != nil {
		lm.log.Error("save snapshot", zap.Error(err))
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// sessionMember follows edits to the logged in member. A deleted member stays
// logged in until Logout.
func sessionMember(st State, user *Member) *Member {
	if user == nil {
		return nil
	}
	if m, ok := st.Member(user.MemberID); ok {
		return &m
	}
	return user
}
