package library

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLoanPeriod is how long a new loan runs before it is due.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Change records which collections a transition modified. The zero value means the
// transition was a no-op.
type Change uint8

const (
	BooksChanged Change = 1 << iota
	MembersChanged
	LoansChanged
	ReservationsChanged
)

// None reports whether nothing changed.
func (c Change) None() bool { return c == 0 }

// Has reports whether every collection in other was changed.
func (c Change) Has(other Change) bool { return c&other == other }

// Lifecycle applies the book/loan/reservation transitions. Every method takes the current
// state and returns the next one; the input state is never modified, so a failed
// transition leaves nothing half applied.
type Lifecycle struct {
	Now        func() time.Time
	NewID      func() string
	LoanPeriod time.Duration
}

// NewLifecycle returns a Lifecycle using the wall clock and random UUIDs.
func NewLifecycle(loanPeriod time.Duration) Lifecycle {
	if loanPeriod <= 0 {
		loanPeriod = DefaultLoanPeriod
	}
	return Lifecycle{
		Now:        func() time.Time { return time.Now().UTC() },
		NewID:      uuid.NewString,
		LoanPeriod: loanPeriod,
	}
}

// ------------------ Circulation ------------------

// Reserve places a hold on an Available book. Unknown book or member ids are a no-op.
func (lc Lifecycle) Reserve(st State, bookID, memberID string) (State, Change, error) {
	bi := st.bookIndex(bookID)
	if bi < 0 || st.memberIndex(memberID) < 0 {
		return st, 0, nil
	}
	if st.Books[bi].Status != StatusAvailable {
		return st, 0, fmt.Errorf("reserve book %s: %w", bookID, ErrBookUnavailable)
	}

	next := st.Clone()
	next.Books[bi].Status = StatusReserved
	next.Reservations = append(next.Reservations, Reservation{
		ID:              lc.NewID(),
		BookID:          bookID,
		MemberID:        memberID,
		ReservationDate: lc.Now(),
	})
	return lc.verified(st, next, bookID, BooksChanged|ReservationsChanged)
}

// CancelReservation drops a reservation and frees its book.
func (lc Lifecycle) CancelReservation(st State, reservationID string) (State, Change, error) {
	ri := st.reservationIndex(reservationID)
	if ri < 0 {
		return st, 0, nil
	}
	bookID := st.Reservations[ri].BookID

	next := st.Clone()
	next.Reservations = append(next.Reservations[:ri], next.Reservations[ri+1:]...)
	ch := ReservationsChanged | next.settle(bookID)
	return lc.verified(st, next, bookID, ch)
}

// FinishLoan closes an active loan and frees its book. The loan row is kept as returned.
// Unknown or already returned loans are a no-op.
func (lc Lifecycle) FinishLoan(st State, loanID string) (State, Change, error) {
	li := st.loanIndex(loanID)
	if li < 0 || st.Loans[li].Status != LoanActive {
		return st, 0, nil
	}
	bookID := st.Loans[li].BookID

	next := st.Clone()
	next.Loans[li].Status = LoanReturned
	ch := LoansChanged | next.settle(bookID)
	return lc.verified(st, next, bookID, ch)
}

// Lend turns a reservation into an active loan: the book goes from Reserved to Borrowed
// and the reservation is consumed.
func (lc Lifecycle) Lend(st State, reservationID string) (State, Change, error) {
	ri := st.reservationIndex(reservationID)
	if ri < 0 {
		return st, 0, nil
	}
	res := st.Reservations[ri]
	bi := st.bookIndex(res.BookID)
	if bi < 0 {
		return st, 0, nil
	}
	if st.Books[bi].Status != StatusReserved {
		return st, 0, fmt.Errorf("lend book %s: %w", res.BookID, ErrInconsistentState)
	}

	next := st.Clone()
	next.Reservations = append(next.Reservations[:ri], next.Reservations[ri+1:]...)
	next.Loans = append(next.Loans, lc.newLoan(res.BookID, res.MemberID))
	next.Books[bi].Status = StatusBorrowed
	return lc.verified(st, next, res.BookID, BooksChanged|LoansChanged|ReservationsChanged)
}

// Checkout lends an Available book directly, without a prior reservation.
func (lc Lifecycle) Checkout(st State, bookID, memberID string) (State, Change, error) {
	bi := st.bookIndex(bookID)
	if bi < 0 || st.memberIndex(memberID) < 0 {
		return st, 0, nil
	}
	if st.Books[bi].Status != StatusAvailable {
		return st, 0, fmt.Errorf("checkout book %s: %w", bookID, ErrBookUnavailable)
	}

	next := st.Clone()
	next.Books[bi].Status = StatusBorrowed
	next.Loans = append(next.Loans, lc.newLoan(bookID, memberID))
	return lc.verified(st, next, bookID, BooksChanged|LoansChanged)
}

func (lc Lifecycle) newLoan(bookID, memberID string) Loan {
	now := lc.Now()
	return Loan{
		ID:       lc.NewID(),
		BookID:   bookID,
		MemberID: memberID,
		LoanDate: now,
		DueDate:  now.Add(lc.LoanPeriod),
		Status:   LoanActive,
	}
}

// ------------------ Administrative overrides ------------------

// SetFeatured sets the featured flag of a book.
func (lc Lifecycle) SetFeatured(st State, bookID string, isTop bool) (State, Change, error) {
	bi := st.bookIndex(bookID)
	if bi < 0 || st.Books[bi].IsTop == isTop {
		return st, 0, nil
	}
	next := st.Clone()
	next.Books[bi].IsTop = isTop
	return next, BooksChanged, nil
}

// ToggleFeatured flips the featured flag of a book.
func (lc Lifecycle) ToggleFeatured(st State, bookID string) (State, Change, error) {
	b, ok := st.Book(bookID)
	if !ok {
		return st, 0, nil
	}
	return lc.SetFeatured(st, bookID, !b.IsTop)
}

// ForceAvailable marks a book Available regardless of the loans and reservations that
// reference it. Those rows are left in place and show up in CheckConsistency.
func (lc Lifecycle) ForceAvailable(st State, bookID string) (State, Change, error) {
	bi := st.bookIndex(bookID)
	if bi < 0 || st.Books[bi].Status == StatusAvailable {
		return st, 0, nil
	}
	next := st.Clone()
	next.Books[bi].Status = StatusAvailable
	return next, BooksChanged, nil
}

// ------------------ Catalog and members ------------------

// AddBook appends a new book. It must arrive Available: nothing references it yet.
func (lc Lifecycle) AddBook(st State, b Book) (State, Change, error) {
	return lc.ImportBooks(st, []Book{b})
}

// UpdateBook replaces the catalog fields of an existing book. The stored status is kept:
// status only moves through the circulation transitions and ForceAvailable.
func (lc Lifecycle) UpdateBook(st State, b Book) (State, Change, error) {
	bi := st.bookIndex(b.ID)
	if bi < 0 {
		return st, 0, nil
	}
	next := st.Clone()
	b.Status = next.Books[bi].Status
	next.Books[bi] = b
	return next, BooksChanged, nil
}

// ImportBooks appends a batch of books. An id collision, or a book whose status has
// nothing behind it, rejects the whole batch.
func (lc Lifecycle) ImportBooks(st State, books []Book) (State, Change, error) {
	if len(books) == 0 {
		return st, 0, nil
	}
	seen := make(map[string]bool, len(st.Books)+len(books))
	for _, b := range st.Books {
		seen[b.ID] = true
	}
	for _, b := range books {
		if seen[b.ID] {
			return st, 0, fmt.Errorf("book %s: %w", b.ID, ErrAlreadyExists)
		}
		seen[b.ID] = true
	}
	next := st.Clone()
	next.Books = append(next.Books, books...)
	for _, b := range books {
		if v, bad := next.checkBook(b.ID); bad {
			return st, 0, fmt.Errorf("%s: %w", v, ErrInconsistentState)
		}
	}
	return next, BooksChanged, nil
}

// AddMember appends a new member.
func (lc Lifecycle) AddMember(st State, m Member) (State, Change, error) {
	return lc.ImportMembers(st, []Member{m})
}

// UpdateMember replaces an existing member record.
func (lc Lifecycle) UpdateMember(st State, m Member) (State, Change, error) {
	mi := st.memberIndex(m.MemberID)
	if mi < 0 {
		return st, 0, nil
	}
	next := st.Clone()
	next.Members[mi] = m
	return next, MembersChanged, nil
}

// DeleteMember removes a member. Their loans and reservations are not touched; the
// number of rows left pointing at the removed member is returned.
func (lc Lifecycle) DeleteMember(st State, memberID string) (State, Change, int, error) {
	mi := st.memberIndex(memberID)
	if mi < 0 {
		return st, 0, 0, nil
	}
	orphaned := 0
	for _, l := range st.Loans {
		if l.MemberID == memberID && l.Status == LoanActive {
			orphaned++
		}
	}
	for _, r := range st.Reservations {
		if r.MemberID == memberID {
			orphaned++
		}
	}
	next := st.Clone()
	next.Members = append(next.Members[:mi], next.Members[mi+1:]...)
	return next, MembersChanged, orphaned, nil
}

// ImportMembers appends a batch of members. An id collision rejects the whole batch.
func (lc Lifecycle) ImportMembers(st State, members []Member) (State, Change, error) {
	if len(members) == 0 {
		return st, 0, nil
	}
	seen := make(map[string]bool, len(st.Members)+len(members))
	for _, m := range st.Members {
		seen[m.MemberID] = true
	}
	for _, m := range members {
		if seen[m.MemberID] {
			return st, 0, fmt.Errorf("member %s: %w", m.MemberID, ErrAlreadyExists)
		}
		seen[m.MemberID] = true
	}
	next := st.Clone()
	next.Members = append(next.Members, members...)
	return next, MembersChanged, nil
}

// ------------------ Invariant ------------------

// settle re-derives the status of a book from the rows that reference it.
func (s *State) settle(bookID string) Change {
	bi := s.bookIndex(bookID)
	if bi < 0 {
		return 0
	}
	status := s.deriveStatus(bookID)
	if s.Books[bi].Status == status {
		return 0
	}
	s.Books[bi].Status = status
	return BooksChanged
}

func (s State) deriveStatus(bookID string) BookStatus {
	loans, reservations := s.references(bookID)
	switch {
	case loans > 0:
		return StatusBorrowed
	case reservations > 0:
		return StatusReserved
	default:
		return StatusAvailable
	}
}

// references counts the active loans and reservations that point at a book.
func (s State) references(bookID string) (activeLoans, reservations int) {
	for _, l := range s.Loans {
		if l.BookID == bookID && l.Status == LoanActive {
			activeLoans++
		}
	}
	for _, r := range s.Reservations {
		if r.BookID == bookID {
			reservations++
		}
	}
	return activeLoans, reservations
}

// verified returns next only if the touched book still satisfies the status invariant.
func (lc Lifecycle) verified(prev, next State, bookID string, ch Change) (State, Change, error) {
	if v, bad := next.checkBook(bookID); bad {
		return prev, 0, fmt.Errorf("%s: %w", v, ErrInconsistentState)
	}
	return next, ch, nil
}
