package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Karshmistry/CrimAII/internal/auth"
	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	RunE:  runUserCreate,
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant the admin role to a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserPromote,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE:  runUserList,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userPromoteCmd)
	userCmd.AddCommand(userListCmd)

	userCreateCmd.Flags().String("name", "", "Full name (required)")
	userCreateCmd.Flags().String("email", "", "Email address (required)")
	userCreateCmd.Flags().String("password", "", "Password (required)")
	userCreateCmd.Flags().String("phone", "", "Phone number")
	userCreateCmd.Flags().Bool("admin", false, "Create the user with the admin role")
	userCreateCmd.MarkFlagRequired("name")
	userCreateCmd.MarkFlagRequired("email")
	userCreateCmd.MarkFlagRequired("password")

	userListCmd.Flags().Bool("json", false, "Output as JSON")
}

// newUser builds an account with a hashed password.
func newUser(name, email, password, phone string, admin bool) (*database.User, error) {
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, errors.New("name, email and password are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	role := constants.RoleUser
	if admin {
		role = constants.RoleAdmin
	}
	return &database.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		Role:         role,
	}, nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	u, err := newUser(
		mustGetString(cmd, "name"),
		mustGetString(cmd, "email"),
		mustGetString(cmd, "password"),
		mustGetString(cmd, "phone"),
		mustGetBool(cmd, "admin"),
	)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return fmt.Errorf("user %s already exists", u.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Printf("Created %s %s (%s)\n", u.Role, u.Email, u.ID)
	return nil
}

func runUserPromote(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	u, err := store.GetUserByEmail(ctx, args[0])
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("user %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if u.IsAdmin() {
		fmt.Printf("%s is already an admin\n", u.Email)
		return nil
	}
	if err := store.SetUserRole(ctx, u.ID, constants.RoleAdmin); err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}
	fmt.Printf("Promoted %s to admin\n", u.Email)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if mustGetBool(cmd, "json") {
		if users == nil {
			users = []database.User{}
		}
		return outputJSON(users)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tJOINED")
	fmt.Fprintln(w, "--\t----\t-----\t----\t------")
	for i := range users {
		u := &users[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role,
			u.JoinDate.UTC().Format(constants.DisplayTimeLayout))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d users\n", len(users))
	return nil
}
