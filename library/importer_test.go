package library

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBooks_SingleRow(t *testing.T) {
	books, err := ParseBooks("B-1,CODE-1,G,Author One,Title One,English,Fiction,1")
	require.NoError(t, err)
	require.Equal(t, []Book{{
		ID:       "B-1",
		Code:     "CODE-1",
		Letter:   "G",
		Author:   "Author One",
		Title:    "Title One",
		Language: "English",
		Genre:    "Fiction",
		Volume:   "1",
		Status:   StatusAvailable,
	}}, books)
}

func TestParseBooks_Delimiters(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"comma", "B-1, C-1 ,G,Borges,Ficciones,Spanish,Short Story,2"},
		{"semicolon", "B-1;C-1;G;Borges;Ficciones;Spanish;Short Story;2"},
		{"tab", "B-1\tC-1\tG\tBorges\tFicciones\tSpanish\tShort Story\t2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := ParseBooks(tt.text)
			require.NoError(t, err)
			require.Len(t, books, 1)
			require.Equal(t, "C-1", books[0].Code)
			require.Equal(t, "Short Story", books[0].Genre)
			require.Equal(t, "2", books[0].Volume)
		})
	}

	// A tab wins over the commas inside a field.
	books, err := ParseBooks("B-2\tC-2\tG\tDoe, Jane\tA Title\tEnglish\tHistory\t1")
	require.NoError(t, err)
	require.Equal(t, "Doe, Jane", books[0].Author)
}

func TestParseBooks_HeaderAndShortRows(t *testing.T) {
	text := strings.Join([]string{
		"id,code,letter,author,title,language,genre,volume",
		"B-1,C-1,A,Author,One,English,Fiction,1",
		"B-2,C-2,B",
		"",
		"B-3,C-3,C,Author,Three,English,Fiction,1",
	}, "\n")

	books, err := ParseBooks(text)
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.Equal(t, "B-1", books[0].ID)
	require.Equal(t, "B-3", books[1].ID)
}

func TestParseBooks_FiveValidOneShort(t *testing.T) {
	rows := []string{
		"B-1,C,A,Author,Title,English,Fiction,1",
		"B-2,C,A,Author,Title,English,Fiction,1",
		"B-3,C,A",
		"B-4,C,A,Author,Title,English,Fiction,1",
		"B-5,C,A,Author,Title,English,Fiction,1",
		"B-6,C,A,Author,Title,English,Fiction,1",
	}
	books, err := ParseBooks(strings.Join(rows, "\n"))
	require.NoError(t, err)
	require.Len(t, books, 5)
}

func TestParseBooks_Defaults(t *testing.T) {
	books, err := ParseBooks("B-1,,,,")
	require.NoError(t, err)
	require.Len(t, books, 1)
	b := books[0]
	require.Equal(t, DefaultCode, b.Code)
	require.Equal(t, DefaultLetter, b.Letter)
	require.Equal(t, DefaultAuthor, b.Author)
	require.Equal(t, DefaultTitle, b.Title)
	require.Equal(t, DefaultLanguage, b.Language)
	require.Equal(t, DefaultGenre, b.Genre)
	require.Equal(t, DefaultVolume, b.Volume)
	require.False(t, b.IsTop)
}

func TestParseBooks_GeneratesMissingIDs(t *testing.T) {
	books, err := ParseBooks(",C-1,A,Author,Title\n,C-2,A,Author,Title")
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.NotEmpty(t, books[0].ID)
	require.NotEqual(t, books[0].ID, books[1].ID)
}

func TestParseBooks_Empty(t *testing.T) {
	for _, text := range []string{"", "   \n  ", "id,code,letter,author,title"} {
		books, err := ParseBooks(text)
		require.NoError(t, err)
		require.Empty(t, books)
	}
}

func TestParseMembers(t *testing.T) {
	text := "memberId;name;nationality;gender;email;phone;address;city\n" +
		"M-100;Ana Perez;Chilean;Female;ana@example.com;555;Calle 1;Santiago\n" +
		";;;;"

	members, err := ParseMembers(text, "Super User")
	require.NoError(t, err)
	require.Len(t, members, 2)

	ana := members[0]
	require.Equal(t, "M-100", ana.MemberID)
	require.Equal(t, "ana@example.com", ana.Email)
	require.Equal(t, RoleMember, ana.Role)
	require.Equal(t, DefaultPassword, ana.Password)
	require.Equal(t, "Super User", ana.ApprovedBy)

	blank := members[1]
	require.True(t, strings.HasPrefix(blank.MemberID, "M-"))
	require.Equal(t, DefaultMemberName, blank.Name)
	require.Equal(t, DefaultUnspecified, blank.Nationality)
	require.Equal(t, DefaultUnspecified, blank.Gender)
}

func TestParseMembers_PlaceholderEmailKept(t *testing.T) {
	text := "M-1,Ana,CL,F,ana@example.com\nM-2,Bob,CL,M,-\nM-3,Eva,CL,F,not-an-email"
	members, err := ParseMembers(text, "admin")
	require.NoError(t, err)
	require.Len(t, members, 3)
	require.Equal(t, "-", members[1].Email)
	require.Equal(t, "not-an-email", members[2].Email)
}
