package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storefront/internal/client/api"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage profile and addresses",
}

var (
	profileFirstName string
	profileLastName  string
	profilePhone     string
)

var accountProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in api.ProfileUpdate
		if cmd.Flags().Changed("first-name") {
			in.FirstName = &profileFirstName
		}
		if cmd.Flags().Changed("last-name") {
			in.LastName = &profileLastName
		}
		if cmd.Flags().Changed("phone") {
			in.Phone = &profilePhone
		}

		if in.FirstName == nil && in.LastName == nil && in.Phone == nil {
			u, err := shop.Profile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("email:      %s\n", u.Email)
			fmt.Printf("first name: %s\n", u.FirstName)
			fmt.Printf("last name:  %s\n", u.LastName)
			fmt.Printf("phone:      %s\n", u.Phone)
			return nil
		}

		u, err := shop.UpdateProfile(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("Profile updated for %s\n", u.Email)
		return nil
	},
}

var accountChangePasswordCmd = &cobra.Command{
	Use:   "change-password <old> <new>",
	Short: "Change the account password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shop.ChangePassword(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Password changed. Other sessions were logged out.")
		return nil
	},
}

var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "List saved addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := shop.Addresses(cmd.Context())
		if err != nil {
			return err
		}
		if len(addrs) == 0 {
			fmt.Println("No addresses saved.")
			return nil
		}
		for _, a := range addrs {
			marker := " "
			if a.IsDefault {
				marker = "*"
			}
			line2 := a.Line2
			if line2 != "" {
				line2 = ", " + line2
			}
			fmt.Printf("%s %4d  %s, %s%s, %s %s (%s)\n",
				marker, a.ID, a.FullName, a.Line1, line2, a.City, a.PostalCode, a.Phone)
		}
		return nil
	},
}

var newAddress api.AddressInput

var addressAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a new address",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := shop.CreateAddress(cmd.Context(), newAddress)
		if err != nil {
			return err
		}
		fmt.Printf("Address %d saved.\n", a.ID)
		return nil
	},
}

var addressRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid address id %q", args[0])
		}
		if err := shop.DeleteAddress(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Println("Address removed.")
		return nil
	},
}

var addressDefaultCmd = &cobra.Command{
	Use:   "default <id>",
	Short: "Make an address the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid address id %q", args[0])
		}
		if err := shop.SetDefaultAddress(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Println("Default address updated.")
		return nil
	},
}

func init() {
	accountProfileCmd.Flags().StringVar(&profileFirstName, "first-name", "", "set first name")
	accountProfileCmd.Flags().StringVar(&profileLastName, "last-name", "", "set last name")
	accountProfileCmd.Flags().StringVar(&profilePhone, "phone", "", "set phone")

	addressAddCmd.Flags().StringVar(&newAddress.FullName, "name", "", "recipient full name")
	addressAddCmd.Flags().StringVar(&newAddress.Phone, "phone", "", "contact phone")
	addressAddCmd.Flags().StringVar(&newAddress.Line1, "line1", "", "address line 1")
	addressAddCmd.Flags().StringVar(&newAddress.Line2, "line2", "", "address line 2")
	addressAddCmd.Flags().StringVar(&newAddress.City, "city", "", "city")
	addressAddCmd.Flags().StringVar(&newAddress.PostalCode, "postal-code", "", "postal code")
	addressAddCmd.Flags().BoolVar(&newAddress.IsDefault, "default", false, "make this the default address")
	_ = addressAddCmd.MarkFlagRequired("name")
	_ = addressAddCmd.MarkFlagRequired("phone")
	_ = addressAddCmd.MarkFlagRequired("line1")
	_ = addressAddCmd.MarkFlagRequired("city")
	_ = addressAddCmd.MarkFlagRequired("postal-code")

	addressesCmd.AddCommand(addressAddCmd, addressRemoveCmd, addressDefaultCmd)
	accountCmd.AddCommand(accountProfileCmd, accountChangePasswordCmd, addressesCmd)
	rootCmd.AddCommand(accountCmd)
}
