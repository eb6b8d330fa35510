package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"community-library/library"
)

func loginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Log in; the password is prompted for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			m, err := a.mgr.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Printf("Welcome, %s (%s).\n", m.Name, m.Role)
			return nil
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := a.mgr.CurrentUser()
			if !ok {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("%s <%s> %s (%s)\n", u.Name, u.Email, u.MemberID, u.Role)
			return nil
		},
	}
}

func importCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import delimited text (CSV, TSV or semicolon separated)",
		Long: `Reads a file (or - for stdin). A first line containing "id" or "name"
is treated as a header. Rows with fewer than 5 columns are skipped.

Books:   id, code, letter, author, title, language, genre, volume
Members: memberId, name, nationality, gender, email, phone, address, city`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "books <file>",
			Short: "Import books",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := a.requireAdmin(); err != nil {
					return err
				}
				text, err := readImportSource(args[0])
				if err != nil {
					return err
				}
				n, err := a.mgr.ImportBooks(cmd.Context(), text)
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d book(s).\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "members <file>",
			Short: "Import members",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				admin, err := a.requireAdmin()
				if err != nil {
					return err
				}
				text, err := readImportSource(args[0])
				if err != nil {
					return err
				}
				n, err := a.mgr.ImportMembers(cmd.Context(), text, admin.Name)
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d member(s). Default password: %s\n", n, library.DefaultPassword)
				return nil
			},
		},
	)
	return cmd
}

func readImportSource(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return "", err
	}
	return sb.String(), nil
}
