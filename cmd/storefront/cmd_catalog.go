package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/client/api"
	"storefront/internal/domain/product"
)

var productsCategory string

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products, optionally filtered by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := shop.GetProducts(cmd.Context(), api.ProductFilters{CategorySlug: productsCategory})
		if err != nil {
			return err
		}
		printProducts(items)
		return nil
	},
}

var productCmd = &cobra.Command{
	Use:   "product <id>",
	Short: "Show one product with variants",
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
		printProductDetail(p)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search products by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := shop.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No products matched.")
			return nil
		}
		printProducts(items)
		return nil
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show the most viewed products",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := shop.Trending(cmd.Context())
		if err != nil {
			return err
		}
		printProducts(items)
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories [slug [subcategory]]",
	Short: "List categories, or browse into one",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		switch len(args) {
		case 0:
			cats, err := shop.GetCategories(ctx)
			if err != nil {
				return err
			}
			for _, c := range cats {
				fmt.Printf("%-24s %s\n", c.Name, c.Slug)
			}
			return nil
		case 1:
			page, err := shop.GetCategory(ctx, args[0])
			if err != nil {
				return err
			}
			printCategoryPage(page)
			return nil
		default:
			page, err := shop.GetSubCategory(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printCategoryPage(page)
			return nil
		}
	},
}

func printCategoryPage(page api.CategoryPage) {
	title := page.Category
	if page.SubCategory != "" {
		title += " / " + page.SubCategory
	}
	fmt.Println(title)
	if page.HasSubCategories {
		fmt.Println("Subcategories:")
		for _, sc := range page.SubCategories {
			fmt.Printf("  %-24s %s (%d products)\n", sc.Name, sc.Slug, sc.ProductCount)
		}
		return
	}
	printProducts(page.Products)
}

func printProducts(items []product.Product) {
	if len(items) == 0 {
		fmt.Println("No products.")
		return
	}
	for _, p := range items {
		price := fmt.Sprintf("%.2f", p.EffectivePrice())
		if p.SlashedPrice != nil {
			price = fmt.Sprintf("%.2f (was %.2f)", *p.SlashedPrice, p.Price)
		}
		fmt.Printf("%6d  %-40s %12s  stock:%d\n", p.ID, truncate(p.Title, 40), price, p.Stock)
	}
}

func printProductDetail(p product.Product) {
	fmt.Println(p.Title)
	fmt.Printf("  id:       %d\n", p.ID)
	fmt.Printf("  price:    %.2f\n", p.EffectivePrice())
	if p.SlashedPrice != nil {
		fmt.Printf("  was:      %.2f\n", p.Price)
	}
	if p.Category != "" {
		fmt.Printf("  category: %s\n", p.Category)
	}
	if p.StockType == product.StockTypeVariants {
		fmt.Println("  variants:")
		for _, v := range p.Variants {
			label := strings.TrimSpace(v.SizeName + " " + v.ColorName)
			price := p.EffectivePrice()
			if v.Price != nil {
				price = *v.Price
			}
			fmt.Printf("    %6d  %-20s %8.2f  stock:%d\n", v.ID, label, price, v.Stock)
		}
	} else {
		fmt.Printf("  stock:    %d\n", p.Stock)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	productsCmd.Flags().StringVar(&productsCategory, "category", "", "filter by category slug")
	rootCmd.AddCommand(productsCmd, productCmd, searchCmd, trendingCmd, categoriesCmd)
}
