package library

import "fmt"

// Violation describes one record that breaks the status invariant or points at a
// record that no longer exists.
type Violation struct {
	BookID string
	Reason string
}

func (v Violation) String() string { return fmt.Sprintf("book %s: %s", v.BookID, v.Reason) }

// CheckConsistency lists every book whose status disagrees with its active loans and
// reservations, and every loan or reservation whose book or member is missing.
// Administrative overrides (ForceAvailable, member deletion) are expected to show up here.
func (s State) CheckConsistency() []Violation {
	var out []Violation
	for _, b := range s.Books {
		if v, bad := s.checkBook(b.ID); bad {
			out = append(out, v)
		}
	}
	for _, l := range s.Loans {
		if l.Status != LoanActive {
			continue
		}
		if s.bookIndex(l.BookID) < 0 {
			out = append(out, Violation{BookID: l.BookID, Reason: fmt.Sprintf("loan %s references a missing book", l.ID)})
		}
		if s.memberIndex(l.MemberID) < 0 {
			out = append(out, Violation{BookID: l.BookID, Reason: fmt.Sprintf("loan %s references missing member %s", l.ID, l.MemberID)})
		}
	}
	for _, r := range s.Reservations {
		if s.bookIndex(r.BookID) < 0 {
			out = append(out, Violation{BookID: r.BookID, Reason: fmt.Sprintf("reservation %s references a missing book", r.ID)})
		}
		if s.memberIndex(r.MemberID) < 0 {
			out = append(out, Violation{BookID: r.BookID, Reason: fmt.Sprintf("reservation %s references missing member %s", r.ID, r.MemberID)})
		}
	}
	return out
}

// checkBook verifies a single book. Missing books are not reported here.
func (s State) checkBook(bookID string) (Violation, bool) {
	b, ok := s.Book(bookID)
	if !ok {
		return Violation{}, false
	}
	loans, reservations := s.references(bookID)

	var reason string
	switch b.Status {
	case StatusBorrowed:
		if loans == 0 {
			reason = "borrowed without an active loan"
		}
	case StatusReserved:
		switch {
		case loans > 0:
			reason = fmt.Sprintf("reserved while %d active loan(s) reference it", loans)
		case reservations == 0:
			reason = "reserved without a reservation"
		}
	case StatusAvailable:
		if loans > 0 || reservations > 0 {
			reason = fmt.Sprintf("available while referenced by %d active loan(s) and %d reservation(s)", loans, reservations)
		}
	default:
		reason = fmt.Sprintf("unknown status %q", b.Status)
	}
	if reason == "" {
		return Violation{}, false
	}
	return Violation{BookID: bookID, Reason: reason}, true
}
