package library

import "time"

// BookStatus is the circulation state of a book.
type BookStatus string

const (
	StatusAvailable BookStatus = "Available"
	StatusReserved  BookStatus = "Reserved"
	StatusBorrowed  BookStatus = "Borrowed"
)

// Role decides which administrative actions a member may take.
type Role string

const (
	RoleMember     Role = "Member"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "SuperAdmin"
)

// IsAdmin reports whether the role grants access to inventory and member management.
func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSuperAdmin }

// LoanStatus tracks whether a loan is still open.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
)

// Book is a catalog item with a circulation status.
type Book struct {
	ID       string     `json:"id" yaml:"id" validate:"required"`
	Code     string     `json:"code" yaml:"code" validate:"required"`
	Letter   string     `json:"letter" yaml:"letter" validate:"required"`
	Author   string     `json:"author" yaml:"author" validate:"required"`
	Title    string     `json:"title" yaml:"title" validate:"required"`
	Language string     `json:"language" yaml:"language" validate:"required"`
	Genre    string     `json:"genre" yaml:"genre" validate:"required"`
	Volume   string     `json:"volume" yaml:"volume" validate:"required"`
	Status   BookStatus `json:"status" yaml:"status" validate:"oneof=Available Reserved Borrowed"`
	IsTop    bool       `json:"isTop" yaml:"isTop"`
	CoverURL string     `json:"coverUrl,omitempty" yaml:"coverUrl,omitempty" validate:"omitempty,url"`
}

// Member is a registered library user. Email is the login identity.
type Member struct {
	MemberID    string `json:"memberId" yaml:"memberId" validate:"required"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Nationality string `json:"nationality" yaml:"nationality"`
	Gender      string `json:"gender" yaml:"gender"`
	Email       string `json:"email" yaml:"email"`
	Phone       string `json:"phone" yaml:"phone"`
	Address     string `json:"address" yaml:"address"`
	City        string `json:"city" yaml:"city"`
	Role        Role   `json:"role" yaml:"role" validate:"oneof=Member Admin SuperAdmin"`
	Password    string `json:"password" yaml:"password"`
	ApprovedBy  string `json:"approvedBy,omitempty" yaml:"approvedBy,omitempty"`
}

// Loan records a book currently or formerly borrowed by a member.
type Loan struct {
	ID       string     `json:"id" yaml:"id"`
	BookID   string     `json:"bookId" yaml:"bookId"`
	MemberID string     `json:"memberId" yaml:"memberId"`
	LoanDate time.Time  `json:"loanDate" yaml:"loanDate"`
	DueDate  time.Time  `json:"dueDate" yaml:"dueDate"`
	Status   LoanStatus `json:"status" yaml:"status"`
}

// Reservation is a member's hold on a book pending pickup.
type Reservation struct {
	ID              string    `json:"id" yaml:"id"`
	BookID          string    `json:"bookId" yaml:"bookId"`
	MemberID        string    `json:"memberId" yaml:"memberId"`
	ReservationDate time.Time `json:"reservationDate" yaml:"reservationDate"`
}

// State is the complete library snapshot that gets persisted after every change.
type State struct {
	Books        []Book        `json:"books" yaml:"books"`
	Members      []Member      `json:"members" yaml:"members"`
	Loans        []Loan        `json:"loans" yaml:"loans"`
	Reservations []Reservation `json:"reservations" yaml:"reservations"`
}

// Clone returns a copy whose slices can be modified without touching s.
func (s State) Clone() State {
	return State{
		Books:        append([]Book(nil), s.Books...),
		Members:      append([]Member(nil), s.Members...),
		Loans:        append([]Loan(nil), s.Loans...),
		Reservations: append([]Reservation(nil), s.Reservations...),
	}
}

func (s State) bookIndex(id string) int {
	for i := range s.Books {
		if s.Books[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) memberIndex(id string) int {
	for i := range s.Members {
		if s.Members[i].MemberID == id {
			return i
		}
	}
	return -1
}

func (s State) loanIndex(id string) int {
	for i := range s.Loans {
		if s.Loans[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) reservationIndex(id string) int {
	for i := range s.Reservations {
		if s.Reservations[i].ID == id {
			return i
		}
	}
	return -1
}

// Book looks up a book by id.
func (s State) Book(id string) (Book, bool) {
	if i := s.bookIndex(id); i >= 0 {
		return s.Books[i], true
	}
	return Book{}, false
}

// Member looks up a member by id.
func (s State) Member(id string) (Member, bool) {
	if i := s.memberIndex(id); i >= 0 {
		return s.Members[i], true
	}
	return Member{}, false
}

// Loan looks up a loan by id.
func (s State) Loan(id string) (Loan, bool) {
	if i := s.loanIndex(id); i >= 0 {
		return s.Loans[i], true
	}
	return Loan{}, false
}

// Reservation looks up a reservation by id.
func (s State) Reservation(id string) (Reservation, bool) {
	if i := s.reservationIndex(id); i >= 0 {
		return s.Reservations[i], true
	}
	return Reservation{}, false
}
