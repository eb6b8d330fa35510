package library

import "strings"

// DefaultGenres and DefaultLanguages feed the catalog filters. "All" disables the filter.
var (
	DefaultGenres    = []string{"All", "Magic Realism", "Classic", "Science Fiction", "History", "Short Story", "Fantasy", "Mystery", "Biography"}
	DefaultLanguages = []string{"All", "Spanish", "English", "French", "Portuguese"}
)

const filterAll = "All"

// Filter narrows a catalog listing.
type Filter struct {
	Query        string
	Genre        string
	Language     string
	FeaturedOnly bool
}

// Search returns the books matching f. Query is a case-insensitive substring match on
// title, author and code.
func Search(books []Book, f Filter) []Book {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if q != "" &&
			!strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) &&
			!strings.Contains(strings.ToLower(b.Code), q) {
			continue
		}
		if !matchesOption(f.Genre, b.Genre) || !matchesOption(f.Language, b.Language) {
			continue
		}
		if f.FeaturedOnly && !b.IsTop {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesOption(want, got string) bool {
	return want == "" || want == filterAll || strings.EqualFold(want, got)
}

// Featured returns the books flagged as top picks.
func Featured(books []Book) []Book {
	return Search(books, Filter{FeaturedOnly: true})
}

// ActiveLoans returns loans that have not been returned.
func ActiveLoans(loans []Loan) []Loan {
	var out []Loan
	for _, l := range loans {
		if l.Status == LoanActive {
			out = append(out, l)
		}
	}
	return out
}

// MemberLoans returns the loans of one member.
func MemberLoans(loans []Loan, memberID string, activeOnly bool) []Loan {
	var out []Loan
	for _, l := range loans {
		if l.MemberID != memberID || (activeOnly && l.Status != LoanActive) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// MemberReservations returns the reservations held by one member.
func MemberReservations(reservations []Reservation, memberID string) []Reservation {
	var out []Reservation
	for _, r := range reservations {
		if r.MemberID == memberID {
			out = append(out, r)
		}
	}
	return out
}

// Authenticate finds the member with the given email and password. Passwords are
// compared verbatim.
func Authenticate(members []Member, email, password string) (Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Member{}, ErrInvalidCredentials
	}
	for _, m := range members {
		if m.Email == email && m.Password == password {
			return m, nil
		}
	}
	return Member{}, ErrInvalidCredentials
}
