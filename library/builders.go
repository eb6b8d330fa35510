package library

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Defaults applied by the builders when a field is left empty.
const (
	DefaultCode        = "N/A"
	DefaultLetter      = "X"
	DefaultAuthor      = "Unknown"
	DefaultTitle       = "Untitled"
	DefaultLanguage    = "Spanish"
	DefaultGenre       = "Classic"
	DefaultVolume      = "1"
	DefaultMemberName  = "New Member"
	DefaultUnspecified = "-"
	DefaultPassword    = "password123"
)

var validate = validator.New()

// ValidationError describes why a built record was rejected.
type ValidationError struct {
	Record string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Record, e.Err)
}

func (e *ValidationError) Unwrap() []error { return []error{ErrInvalidRecord, e.Err} }

// BookInput carries the raw, possibly partial fields of a book.
type BookInput struct {
	ID       string
	Code     string
	Letter   string
	Author   string
	Title    string
	Language string
	Genre    string
	Volume   string
	Status   BookStatus
	IsTop    bool
	CoverURL string
}

// MemberInput carries the raw, possibly partial fields of a member.
type MemberInput struct {
	MemberID    string
	Name        string
	Nationality string
	Gender      string
	Email       string
	Phone       string
	Address     string
	City        string
	Role        Role
	Password    string
	ApprovedBy  string
}

// NewBookID generates an id for a book that arrived without one.
func NewBookID() string { return uuid.NewString() }

// NewMemberID generates an id for a member that arrived without one.
func NewMemberID() string {
	return "M-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// BuildBook fills every default and validates the result.
func BuildBook(in BookInput) (Book, error) {
	b := Book{
		ID:       orDefault(in.ID, ""),
		Code:     orDefault(in.Code, DefaultCode),
		Letter:   orDefault(in.Letter, DefaultLetter),
		Author:   orDefault(in.Author, DefaultAuthor),
		Title:    orDefault(in.Title, DefaultTitle),
		Language: orDefault(in.Language, DefaultLanguage),
		Genre:    orDefault(in.Genre, DefaultGenre),
		Volume:   orDefault(in.Volume, DefaultVolume),
		Status:   in.Status,
		IsTop:    in.IsTop,
		CoverURL: strings.TrimSpace(in.CoverURL),
	}
	if b.ID == "" {
		b.ID = NewBookID()
	}
	if b.Status == "" {
		b.Status = StatusAvailable
	}
	if err := validate.Struct(b); err != nil {
		return Book{}, &ValidationError{Record: "book " + b.ID, Err: err}
	}
	return b, nil
}

// BuildMember fills every default and validates the result, including the email.
func BuildMember(in MemberInput) (Member, error) {
	return buildMember(in, true)
}

func buildMember(in MemberInput, strictEmail bool) (Member, error) {
	m := Member{
		MemberID:    orDefault(in.MemberID, ""),
		Name:        orDefault(in.Name, DefaultMemberName),
		Nationality: orDefault(in.Nationality, DefaultUnspecified),
		Gender:      orDefault(in.Gender, DefaultUnspecified),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		Role:        in.Role,
		Password:    in.Password,
		ApprovedBy:  strings.TrimSpace(in.ApprovedBy),
	}
	if m.MemberID == "" {
		m.MemberID = NewMemberID()
	}
	if m.Role == "" {
		m.Role = RoleMember
	}
	if m.Password == "" {
		m.Password = DefaultPassword
	}
	if err := validateMember(m, strictEmail); err != nil {
		return Member{}, err
	}
	return m, nil
}

// validateMember checks the struct tags and, when strictEmail is set, that Email is
// empty or well formed.
func validateMember(m Member, strictEmail bool) error {
	err := validate.Struct(m)
	if err == nil && strictEmail {
		err = validate.Var(m.Email, "omitempty,email")
	}
	if err != nil {
		return &ValidationError{Record: "member " + m.MemberID, Err: err}
	}
	return nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
