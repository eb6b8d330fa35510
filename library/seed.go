package library

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSeed is the catalog a fresh store starts with.
func DefaultSeed() State {
	since := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	return State{
		Books: []Book{
			{ID: "1", Code: "FIC-001", Letter: "G", Author: "Gabriel García Márquez", Title: "Cien Años de Soledad", Language: "Spanish", Genre: "Magic Realism", Volume: "1", Status: StatusAvailable, IsTop: true},
			{ID: "2", Code: "FIC-002", Letter: "C", Author: "Miguel de Cervantes", Title: "Don Quijote de la Mancha", Language: "Spanish", Genre: "Classic", Volume: "1", Status: StatusAvailable, IsTop: true},
			{ID: "3", Code: "SCI-001", Letter: "A", Author: "Isaac Asimov", Title: "Foundation", Language: "English", Genre: "Science Fiction", Volume: "1", Status: StatusReserved},
			{ID: "4", Code: "HIS-001", Letter: "Y", Author: "Yuval Noah Harari", Title: "Sapiens", Language: "English", Genre: "History", Volume: "1", Status: StatusBorrowed, IsTop: true},
			{ID: "5", Code: "FIC-003", Letter: "B", Author: "Jorge Luis Borges", Title: "Ficciones", Language: "Spanish", Genre: "Short Story", Volume: "1", Status: StatusAvailable},
		},
		Members: []Member{
			{MemberID: "M-001", Name: "Super User", Nationality: "Admin", Gender: "Other", Email: "admin@library.com", Phone: "123456789", Address: "Main St", City: "Admin City", Role: RoleSuperAdmin, Password: DefaultPassword},
			{MemberID: "M-002", Name: "John Doe", Nationality: "American", Gender: "Male", Email: "john@example.com", Phone: "555-0199", Address: "742 Evergreen Ter", City: "Springfield", Role: RoleMember, Password: DefaultPassword},
		},
		Loans: []Loan{
			{ID: "L-001", BookID: "4", MemberID: "M-002", LoanDate: since, DueDate: since.Add(DefaultLoanPeriod), Status: LoanActive},
		},
		Reservations: []Reservation{
			{ID: "R-001", BookID: "3", MemberID: "M-002", ReservationDate: since},
		},
	}
}

// LoadSeed reads a YAML seed file with books, members, loans and reservations keys.
// The seed must pass CheckConsistency.
func LoadSeed(path string) (State, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return State{}, fmt.Errorf("read seed: %w", err)
	}
	var st State
	if err := yaml.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("parse seed %s: %w", path, err)
	}
	for i := range st.Books {
		if st.Books[i].Status == "" {
			st.Books[i].Status = StatusAvailable
		}
		if err := validate.Struct(st.Books[i]); err != nil {
			return State{}, &ValidationError{Record: "seed book " + st.Books[i].ID, Err: err}
		}
	}
	for i := range st.Members {
		if st.Members[i].Role == "" {
			st.Members[i].Role = RoleMember
		}
		if err := validateMember(st.Members[i], true); err != nil {
			return State{}, fmt.Errorf("seed: %w", err)
		}
	}
	if v := st.CheckConsistency(); len(v) > 0 {
		return State{}, fmt.Errorf("seed %s: %s: %w", path, v[0], ErrInconsistentState)
	}
	return st, nil
}
