package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"community-library/library"
)

func membersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage member records (administrators)",
	}
	cmd.AddCommand(
		membersListCmd(a),
		membersSaveCmd(a, false),
		membersSaveCmd(a, true),
		membersDeleteCmd(a),
	)
	return cmd
}

func membersListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			members := a.mgr.Members()
			if len(members) == 0 {
				fmt.Println("No members registered.")
				return nil
			}
			fmt.Printf("%-12s %-25s %-30s %-12s %s\n", "ID", "Name", "Email", "Role", "Approved By")
			fmt.Println(strings.Repeat("-", 100))
			for _, m := range members {
				fmt.Printf("%-12s %-25s %-30s %-12s %s\n",
					truncateString(m.MemberID, 12),
					truncateString(m.Name, 25),
					truncateString(m.Email, 30),
					m.Role,
					m.ApprovedBy)
			}
			return nil
		},
	}
}

func membersSaveCmd(a *app, update bool) *cobra.Command {
	var (
		in          library.MemberInput
		role        string
		askPassword bool
	)
	use, short := "add", "Register a member"
	if update {
		use, short = "update", "Edit a member"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.requireAdmin()
			if err != nil {
				return err
			}
			in.Role = library.Role(role)
			if askPassword {
				if in.Password, err = readPassword("New password: "); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}

			if !update {
				if in.ApprovedBy == "" {
					in.ApprovedBy = admin.Name
				}
				m, err := a.mgr.AddMember(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Printf("Added member '%s' with ID %s\n", m.Name, m.MemberID)
				return nil
			}

			if in.MemberID == "" {
				return fmt.Errorf("--id is required")
			}
			cur, ok := a.mgr.GetMember(in.MemberID)
			if !ok {
				reportChange(0, "")
				return nil
			}
			ch, err := a.mgr.UpdateMember(cmd.Context(), mergeMemberInput(cmd, cur, in, askPassword))
			if err != nil {
				return err
			}
			reportChange(ch, fmt.Sprintf("Updated member %s.", in.MemberID))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.MemberID, "id", "", "Member ID (generated when empty on add)")
	cmd.Flags().StringVar(&in.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Nationality, "nationality", "", "Nationality")
	cmd.Flags().StringVar(&in.Gender, "gender", "", "Gender")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email, used to log in")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone")
	cmd.Flags().StringVar(&in.Address, "address", "", "Address")
	cmd.Flags().StringVar(&in.City, "city", "", "City")
	cmd.Flags().StringVar(&role, "role", "", "Member, Admin or SuperAdmin")
	cmd.Flags().StringVar(&in.ApprovedBy, "approved-by", "", "Approving administrator (defaults to you)")
	cmd.Flags().BoolVar(&askPassword, "password", false, "Prompt for a password")
	return cmd
}

// mergeMemberInput starts from the stored member and applies only the flags that were set.
func mergeMemberInput(cmd *cobra.Command, cur library.Member, in library.MemberInput, newPassword bool) library.MemberInput {
	out := library.MemberInput{
		MemberID:    cur.MemberID,
		Name:        cur.Name,
		Nationality: cur.Nationality,
		Gender:      cur.Gender,
		Email:       cur.Email,
		Phone:       cur.Phone,
		Address:     cur.Address,
		City:        cur.City,
		Role:        cur.Role,
		Password:    cur.Password,
		ApprovedBy:  cur.ApprovedBy,
	}
	fields := map[string]func(){
		"name":        func() { out.Name = in.Name },
		"nationality": func() { out.Nationality = in.Nationality },
		"gender":      func() { out.Gender = in.Gender },
		"email":       func() { out.Email = in.Email },
		"phone":       func() { out.Phone = in.Phone },
		"address":     func() { out.Address = in.Address },
		"city":        func() { out.City = in.City },
		"role":        func() { out.Role = in.Role },
		"approved-by": func() { out.ApprovedBy = in.ApprovedBy },
	}
	for name, set := range fields {
		if cmd.Flags().Changed(name) {
			set()
		}
	}
	if newPassword {
		out.Password = in.Password
	}
	return out
}

func membersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <member-id>",
		Short: "Delete a member (loans and reservations are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			if _, ok := a.mgr.GetMember(args[0]); !ok {
				reportChange(0, "")
				return nil
			}
			orphaned, err := a.mgr.DeleteMember(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Deleted member %s.\n", args[0])
			if orphaned > 0 {
				fmt.Printf("Warning: %d loan(s)/reservation(s) still reference this member. See 'library check'.\n", orphaned)
			}
			return nil
		},
	}
}
