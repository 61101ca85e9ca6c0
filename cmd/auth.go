package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zuvy/assess/internal/store"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a Google ID token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		token, _ := cmd.Flags().GetString("token")
		if !strings.Contains(email, "@") {
			return fmt.Errorf("please enter a valid email address")
		}

		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		resp, err := s.client.Login(ctx, strings.TrimSpace(email), token)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		err = s.store.CredentialRepo().Save(ctx, store.Credentials{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			UserID:       resp.User.ID,
			UserName:     resp.User.Name,
			UserEmail:    resp.User.Email,
			Roles:        resp.User.RolesList,
		})
		if err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
		s.logger.Info("signed in", "user_id", resp.User.ID)
		fmt.Printf("Signed in as %s <%s>\n", resp.User.Name, resp.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.client.Logout(cmd.Context()); err != nil {
			// Local tokens are gone either way.
			s.logger.Warn("logout request failed", "error", err)
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		u, err := s.user(cmd.Context())
		if err != nil {
			return err
		}
		if u == nil {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Printf("ID:     %s\n", u.ID)
		fmt.Printf("Name:   %s\n", u.Name)
		fmt.Printf("Email:  %s\n", u.Email)
		if len(u.RolesList) > 0 {
			fmt.Printf("Roles:  %s\n", strings.Join(u.RolesList, ", "))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("email", "e", "", "Account email")
	loginCmd.Flags().StringP("token", "t", "", "Google ID token")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("token")
}
