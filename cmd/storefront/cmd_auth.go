package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/client/api"
	"storefront/internal/client/session"
)

var (
	signupFirstName string
	signupLastName  string
)

var signupCmd = &cobra.Command{
	Use:   "signup <email> <password>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := shop.Signup(cmd.Context(), api.SignupInput{
			Email:     args[0],
			Password:  args[1],
			FirstName: signupFirstName,
			LastName:  signupLastName,
		})
		if err != nil {
			return err
		}
		fmt.Println("Account created. Please login.")
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Log in and merge the guest cart into the server cart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := shop.Login(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if err := sess.Login(session.TokenPair{Access: res.Access, Refresh: res.Refresh}); err != nil {
			return err
		}
		if err := cartStore.MergeOnLogin(cmd.Context()); err != nil {
			logger.Warn("cart merge after login failed", zap.Error(err))
		}
		fmt.Printf("Logged in as %s\n", res.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear local state",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess.Logout()
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !sess.IsAuthenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		u, err := shop.Profile(cmd.Context())
		if err != nil {
			return err
		}
		name := u.FirstName
		if u.LastName != "" {
			name += " " + u.LastName
		}
		if name != "" {
			fmt.Printf("%s <%s>\n", name, u.Email)
		} else {
			fmt.Println(u.Email)
		}
		return nil
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password <email>",
	Short: "Request a password reset link by email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shop.ForgotPassword(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("If that email exists, a reset link is on its way.")
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <uid> <token> <new-password>",
	Short: "Set a new password using a reset link's uid and token",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shop.ResetPassword(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("Password reset. Please login.")
		return nil
	},
}

func init() {
	signupCmd.Flags().StringVar(&signupFirstName, "first-name", "", "first name")
	signupCmd.Flags().StringVar(&signupLastName, "last-name", "", "last name")
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd, forgotPasswordCmd, resetPasswordCmd)
}
