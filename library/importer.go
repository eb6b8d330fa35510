package library

import (
	"fmt"
	"strings"
)

// minImportFields is the smallest row that is mapped to a record; shorter rows are dropped.
const minImportFields = 5

// ParseBooks maps delimited text onto books. Columns are
// id, code, letter, author, title, language, genre, volume.
func ParseBooks(text string) ([]Book, error) {
	var books []Book
	for _, f := range importRows(text) {
		b, err := BuildBook(BookInput{
			ID:       field(f, 0),
			Code:     field(f, 1),
			Letter:   field(f, 2),
			Author:   field(f, 3),
			Title:    field(f, 4),
			Language: field(f, 5),
			Genre:    field(f, 6),
			Volume:   field(f, 7),
			Status:   StatusAvailable,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
		}
		books = append(books, b)
	}
	return books, nil
}

// ParseMembers maps delimited text onto members. Columns are
// memberId, name, nationality, gender, email, phone, address, city.
// Every imported member is a plain Member approved by approvedBy. Emails are kept
// as written, placeholders included.
func ParseMembers(text, approvedBy string) ([]Member, error) {
	var members []Member
	for _, f := range importRows(text) {
		m, err := buildMember(MemberInput{
			MemberID:    field(f, 0),
			Name:        field(f, 1),
			Nationality: field(f, 2),
			Gender:      field(f, 3),
			Email:       field(f, 4),
			Phone:       field(f, 5),
			Address:     field(f, 6),
			City:        field(f, 7),
			Role:        RoleMember,
			Password:    DefaultPassword,
			ApprovedBy:  approvedBy,
		}, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
		}
		members = append(members, m)
	}
	return members, nil
}

// importRows splits text into trimmed fields per line, skipping a header line and
// dropping rows that are too short.
func importRows(text string) [][]string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if isHeader(lines[0]) {
		lines = lines[1:]
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, delimiter(line))
		if len(parts) < minImportFields {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rows = append(rows, parts)
	}
	return rows
}

func isHeader(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "id") || strings.Contains(l, "name")
}

// delimiter picks tab, then semicolon, then comma.
func delimiter(line string) string {
	switch {
	case strings.Contains(line, "\t"):
		return "\t"
	case strings.Contains(line, ";"):
		return ";"
	default:
		return ","
	}
}

func field(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}
