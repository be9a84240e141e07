package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storefront/internal/client/api"
	"storefront/internal/domain/order"
)

var checkoutIn api.CreateOrderInput

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Create an order from the server cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !sess.IsAuthenticated() {
			return fmt.Errorf("login required before checkout")
		}
		o, err := shop.CreateOrder(cmd.Context(), checkoutIn)
		if err != nil {
			return err
		}
		// the backend emptied the server cart as part of the order
		cartStore.ResetLocal()
		fmt.Printf("Order %s placed, total %.2f\n", o.OrderNumber, o.Total)
		return nil
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List your orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, err := shop.MyOrders(cmd.Context())
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Println("No orders yet.")
			return nil
		}
		for _, o := range orders {
			fmt.Printf("%6d  %-38s %-10s %4d items %10.2f  %s\n",
				o.ID, o.OrderNumber, o.Status, o.ItemsCount, o.Total,
				o.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var orderCmd = &cobra.Command{
	Use:   "order <id>",
	Short: "Show one order with its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}
		o, err := shop.GetOrder(cmd.Context(), id)
		if err != nil {
			return err
		}
		printOrder(o)
		return nil
	},
}

func printOrder(o order.Order) {
	fmt.Printf("Order %s (%s)\n", o.OrderNumber, o.Status)
	fmt.Printf("Placed %s\n", o.CreatedAt.Format("2006-01-02 15:04"))
	if o.ShippingAddress != "" {
		fmt.Printf("Ship to: %s, %s %s\n", o.ShippingAddress, o.City, o.PostalCode)
	}
	for _, it := range o.Items {
		fmt.Printf("%3d x %-44s %10.2f\n", it.Quantity, truncate(it.ProductTitle, 44), it.Total)
	}
	fmt.Printf("%50s %10.2f\n", "Total:", o.Total)
}

func init() {
	checkoutCmd.Flags().StringVar(&checkoutIn.ShippingAddress, "address", "", "shipping address")
	checkoutCmd.Flags().StringVar(&checkoutIn.City, "city", "", "city")
	checkoutCmd.Flags().StringVar(&checkoutIn.PostalCode, "postal-code", "", "postal code")
	checkoutCmd.Flags().StringVar(&checkoutIn.Phone, "phone", "", "contact phone")
	_ = checkoutCmd.MarkFlagRequired("address")
	_ = checkoutCmd.MarkFlagRequired("city")
	_ = checkoutCmd.MarkFlagRequired("postal-code")
	_ = checkoutCmd.MarkFlagRequired("phone")
	rootCmd.AddCommand(checkoutCmd, ordersCmd, orderCmd)
}
