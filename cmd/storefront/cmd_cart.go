package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/client/localstore"
	"storefront/internal/client/store"
	"storefront/internal/domain/product"
)

var (
	cartAddVariant int64
	cartAddQty     int
	cartVariant    int64
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and edit the shopping cart",
	RunE:  runCartShow,
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	RunE:  runCartShow,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}
		p, err := shop.GetProduct(cmd.Context(), id)
		if err != nil {
			return err
		}
		var variant *product.Variant
		if p.StockType == product.StockTypeVariants {
			variantID := cartAddVariant
			if variantID == 0 {
				variantID = rememberedVariant(id)
			}
			if variantID == 0 {
				return fmt.Errorf("product %d has variants; pick one with --variant", id)
			}
			for i := range p.Variants {
				if p.Variants[i].ID == variantID {
					variant = &p.Variants[i]
					break
				}
			}
			if variant == nil {
				return fmt.Errorf("product %d has no variant %d", id, variantID)
			}
			_ = local.Set(localstore.SelectedVariantKey(id), variant.ID)
		}
		line := store.LineFromProduct(p, variant, cartAddQty)
		if err := cartStore.Add(cmd.Context(), line); err != nil {
			return err
		}
		return runCartShow(cmd, nil)
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a cart line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := cartLineArg(args[0])
		if err != nil {
			return err
		}
		if err := cartStore.Remove(cmd.Context(), line); err != nil {
			return err
		}
		return runCartShow(cmd, nil)
	},
}

var cartDecreaseCmd = &cobra.Command{
	Use:   "decrease <product-id>",
	Short: "Decrease a line's quantity by one (zero removes it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := cartLineArg(args[0])
		if err != nil {
			return err
		}
		if err := cartStore.DecreaseQty(cmd.Context(), line); err != nil {
			return err
		}
		return runCartShow(cmd, nil)
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cartStore.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Cart cleared.")
		return nil
	},
}

// cartLineArg builds the line key a remove/decrease needs: product id plus
// the --variant flag, falling back to the remembered variant choice.
func cartLineArg(arg string) (store.Line, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return store.Line{}, fmt.Errorf("invalid product id %q", arg)
	}
	line := store.Line{ProductID: id}
	variantID := cartVariant
	if variantID == 0 {
		variantID = rememberedVariant(id)
	}
	if variantID != 0 {
		line.Variant = &store.VariantRef{ID: variantID}
	}
	return line, nil
}

func rememberedVariant(productID int64) int64 {
	var variantID int64
	if err := local.Get(localstore.SelectedVariantKey(productID), &variantID); err != nil {
		return 0
	}
	return variantID
}

func runCartShow(cmd *cobra.Command, args []string) error {
	if sess.IsAuthenticated() {
		if err := cartStore.SyncFromServer(cmd.Context()); err != nil {
			return err
		}
	}
	items := cartStore.Items()
	if len(items) == 0 {
		fmt.Println("Cart is empty.")
		return nil
	}
	for _, l := range items {
		label := l.Title
		if l.Variant != nil {
			detail := strings.TrimSpace(l.Variant.SizeName + " " + l.Variant.ColorName)
			if detail != "" {
				label += " (" + detail + ")"
			}
		}
		fmt.Printf("%3d x %-44s %10.2f\n", l.Qty, truncate(label, 44), float64(l.Qty)*l.Price)
	}
	fmt.Printf("%50s %10.2f\n", "Total:", cartStore.Total())
	return nil
}

func init() {
	cartAddCmd.Flags().Int64Var(&cartAddVariant, "variant", 0, "variant id, for products sold per size/color")
	cartAddCmd.Flags().IntVar(&cartAddQty, "qty", 1, "quantity to add")
	cartRemoveCmd.Flags().Int64Var(&cartVariant, "variant", 0, "variant id of the line")
	cartDecreaseCmd.Flags().Int64Var(&cartVariant, "variant", 0, "variant id of the line")
	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartRemoveCmd, cartDecreaseCmd, cartClearCmd)
	rootCmd.AddCommand(cartCmd)
}
