package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"community-library/library"
)

func reserveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <book-id>",
		Short: "Reserve an available book for yourself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := a.mgr.CurrentUser()
			if !ok {
				return fmt.Errorf("%w (use 'library login')", library.ErrNotAuthenticated)
			}
			ch, err := a.mgr.Reserve(cmd.Context(), args[0], u.MemberID)
			if err != nil {
				return err
			}
			book, _ := a.mgr.GetBook(args[0])
			reportChange(ch, fmt.Sprintf("Book '%s' reserved for %s", book.Title, u.Name))
			return nil
		},
	}
}

func reservationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "List, cancel or fulfil reservations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all reservations (administrators)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			st := a.mgr.Snapshot()
			printReservations(st, st.Reservations)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation and free its book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := a.mgr.CurrentUser()
			if !ok {
				return library.ErrNotAuthenticated
			}
			// Members may only cancel their own holds.
			if res, found := a.mgr.Snapshot().Reservation(args[0]); found && res.MemberID != u.MemberID && !u.Role.IsAdmin() {
				return library.ErrForbidden
			}
			ch, err := a.mgr.CancelReservation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reportChange(ch, fmt.Sprintf("Reservation %s cancelled.", args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "lend <reservation-id>",
		Short: "Hand a reserved book over: the reservation becomes a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			ch, err := a.mgr.Lend(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reportChange(ch, fmt.Sprintf("Reservation %s is now a loan.", args[0]))
			return nil
		},
	})
	return cmd
}

func checkoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <book-id> <member-id>",
		Short: "Lend an available book directly (administrators)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			ch, err := a.mgr.Checkout(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			reportChange(ch, fmt.Sprintf("Book %s checked out to %s.", args[0], args[1]))
			return nil
		},
	}
}

func loansCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List and close loans (administrators)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			st := a.mgr.Snapshot()
			loans := st.Loans
			if !all {
				loans = library.ActiveLoans(loans)
			}
			printLoans(st, loans)
			return nil
		},
	}
	list.Flags().BoolVar(&all, "all", false, "Include returned loans")

	cmd.AddCommand(list, &cobra.Command{
		Use:   "finish <loan-id>",
		Short: "Mark a loan returned and free its book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			ch, err := a.mgr.FinishLoan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reportChange(ch, fmt.Sprintf("Loan %s returned.", args[0]))
			return nil
		},
	})
	return cmd
}

func profileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your loans and reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := a.mgr.CurrentUser()
			if !ok {
				return library.ErrNotAuthenticated
			}
			st := a.mgr.Snapshot()
			fmt.Printf("%s (%s) - %s\n\n", u.Name, u.MemberID, u.Role)
			fmt.Println("Active loans:")
			printLoans(st, library.MemberLoans(st.Loans, u.MemberID, true))
			fmt.Println("\nReservations:")
			printReservations(st, library.MemberReservations(st.Reservations, u.MemberID))
			return nil
		},
	}
}

func checkCmd(a *app) *cobra.Command {
	var listKeys bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report books whose status disagrees with their loans and reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listKeys {
				keys, err := a.mgr.StoredKeys(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println("Stored keys:")
				for _, k := range keys {
					fmt.Println("  " + k)
				}
				fmt.Println()
			}
			violations := a.mgr.CheckConsistency()
			if len(violations) == 0 {
				fmt.Println("Catalog is consistent.")
				return nil
			}
			for _, v := range violations {
				fmt.Println(v)
			}
			fmt.Fprintf(os.Stderr, "%d problem(s) found.\n", len(violations))
			return nil
		},
	}
	cmd.Flags().BoolVar(&listKeys, "keys", false, "Also list the keys held by the store")
	return cmd
}

func printLoans(st library.State, loans []library.Loan) {
	if len(loans) == 0 {
		fmt.Println("No loans.")
		return
	}
	fmt.Printf("%-12s %-30s %-20s %-12s %-12s %s\n", "ID", "Book", "Member", "Loaned", "Due", "Status")
	fmt.Println(strings.Repeat("-", 100))
	for _, l := range loans {
		book, _ := st.Book(l.BookID)
		member, _ := st.Member(l.MemberID)
		fmt.Printf("%-12s %-30s %-20s %-12s %-12s %s\n",
			truncateString(l.ID, 12),
			truncateString(orID(book.Title, l.BookID), 30),
			truncateString(orID(member.Name, l.MemberID), 20),
			l.LoanDate.Format("2006-01-02"),
			l.DueDate.Format("2006-01-02"),
			l.Status)
	}
}

func printReservations(st library.State, reservations []library.Reservation) {
	if len(reservations) == 0 {
		fmt.Println("No reservations.")
		return
	}
	fmt.Printf("%-36s %-30s %-20s %s\n", "ID", "Book", "Member", "Reserved")
	fmt.Println(strings.Repeat("-", 100))
	for _, r := range reservations {
		book, _ := st.Book(r.BookID)
		member, _ := st.Member(r.MemberID)
		fmt.Printf("%-36s %-30s %-20s %s\n",
			r.ID,
			truncateString(orID(book.Title, r.BookID), 30),
			truncateString(orID(member.Name, r.MemberID), 20),
			r.ReservationDate.Format("2006-01-02 15:04"))
	}
}

// orID shows the raw id when the referenced record is gone.
func orID(name, id string) string {
	if name == "" {
		return "(" + id + ")"
	}
	return name
}
