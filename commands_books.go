package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"community-library/library"
)

func booksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage the catalog",
	}
	cmd.AddCommand(
		booksListCmd(a),
		booksSaveCmd(a, false),
		booksSaveCmd(a, true),
		booksFeatureCmd(a),
		booksReleaseCmd(a),
	)
	return cmd
}

func booksListCmd(a *app) *cobra.Command {
	var f library.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			books := a.mgr.SearchBooks(f)
			if len(books) == 0 {
				fmt.Println("No books found.")
				return nil
			}
			printBooks(books)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "Match title, author or code")
	cmd.Flags().StringVar(&f.Genre, "genre", "", "Genre ("+strings.Join(library.DefaultGenres, ", ")+")")
	cmd.Flags().StringVar(&f.Language, "language", "", "Language ("+strings.Join(library.DefaultLanguages, ", ")+")")
	cmd.Flags().BoolVar(&f.FeaturedOnly, "featured", false, "Only featured books")
	return cmd
}

func booksSaveCmd(a *app, update bool) *cobra.Command {
	var in library.BookInput
	use, short := "add", "Add a book"
	if update {
		use, short = "update", "Replace the catalog fields of a book"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			if update {
				if in.ID == "" {
					return fmt.Errorf("--id is required")
				}
				cur, ok := a.mgr.GetBook(in.ID)
				if !ok {
					reportChange(0, "")
					return nil
				}
				ch, err := a.mgr.UpdateBook(cmd.Context(), mergeBookInput(cmd, cur, in))
				if err != nil {
					return err
				}
				reportChange(ch, fmt.Sprintf("Updated book %s.", in.ID))
				return nil
			}
			b, err := a.mgr.AddBook(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Added book '%s' with ID %s\n", b.Title, b.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.ID, "id", "", "Book ID (generated when empty on add)")
	cmd.Flags().StringVar(&in.Code, "code", "", "Shelf code")
	cmd.Flags().StringVar(&in.Letter, "letter", "", "Shelf letter")
	cmd.Flags().StringVar(&in.Author, "author", "", "Author")
	cmd.Flags().StringVar(&in.Title, "title", "", "Title")
	cmd.Flags().StringVar(&in.Language, "language", "", "Language")
	cmd.Flags().StringVar(&in.Genre, "genre", "", "Genre")
	cmd.Flags().StringVar(&in.Volume, "volume", "", "Volume")
	cmd.Flags().StringVar(&in.CoverURL, "cover", "", "Cover image URL")
	cmd.Flags().BoolVar(&in.IsTop, "featured", false, "Featured")
	return cmd
}

func booksFeatureCmd(a *app) *cobra.Command {
	var set, unset bool
	cmd := &cobra.Command{
		Use:   "feature <book-id>",
		Short: "Toggle (or set with --on/--off) the featured flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			var (
				ch  library.Change
				err error
			)
			switch {
			case set:
				ch, err = a.mgr.SetFeatured(cmd.Context(), args[0], true)
			case unset:
				ch, err = a.mgr.SetFeatured(cmd.Context(), args[0], false)
			default:
				ch, err = a.mgr.ToggleFeatured(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			reportChange(ch, fmt.Sprintf("Featured flag of book %s updated.", args[0]))
			return nil
		},
	}
	cmd.Flags().BoolVar(&set, "on", false, "Mark as featured")
	cmd.Flags().BoolVar(&unset, "off", false, "Remove featured mark")
	cmd.MarkFlagsMutuallyExclusive("on", "off")
	return cmd
}

func booksReleaseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "release <book-id>",
		Short: "Force a stuck book back to Available",
		Long: `Marks the book Available without closing its loans or reservations.
Run 'library check' afterwards to see the rows left behind.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			ch, err := a.mgr.ForceAvailable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reportChange(ch, fmt.Sprintf("Book %s is now Available.", args[0]))
			return nil
		},
	}
}

// mergeBookInput starts from the stored book and applies only the flags that were set.
func mergeBookInput(cmd *cobra.Command, cur library.Book, in library.BookInput) library.BookInput {
	out := library.BookInput{
		ID:       cur.ID,
		Code:     cur.Code,
		Letter:   cur.Letter,
		Author:   cur.Author,
		Title:    cur.Title,
		Language: cur.Language,
		Genre:    cur.Genre,
		Volume:   cur.Volume,
		Status:   cur.Status,
		IsTop:    cur.IsTop,
		CoverURL: cur.CoverURL,
	}
	fields := map[string]func(){
		"code":     func() { out.Code = in.Code },
		"letter":   func() { out.Letter = in.Letter },
		"author":   func() { out.Author = in.Author },
		"title":    func() { out.Title = in.Title },
		"language": func() { out.Language = in.Language },
		"genre":    func() { out.Genre = in.Genre },
		"volume":   func() { out.Volume = in.Volume },
		"cover":    func() { out.CoverURL = in.CoverURL },
		"featured": func() { out.IsTop = in.IsTop },
	}
	for name, set := range fields {
		if cmd.Flags().Changed(name) {
			set()
		}
	}
	return out
}

func printBooks(books []library.Book) {
	fmt.Printf("%-10s %-30s %-25s %-10s %-16s %-10s %s\n", "ID", "Title", "Author", "Code", "Genre", "Status", "Top")
	fmt.Println(strings.Repeat("-", 112))
	for _, b := range books {
		top := ""
		if b.IsTop {
			top = "*"
		}
		fmt.Printf("%-10s %-30s %-25s %-10s %-16s %-10s %s\n",
			truncateString(b.ID, 10),
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			truncateString(b.Code, 10),
			truncateString(b.Genre, 16),
			b.Status,
			top)
	}
}
