package cmd

import (
	"fmt"
	"text/tabwriter"

	"storefront/internal/config"
	"storefront/internal/infra"
	"storefront/internal/pricing"
	"storefront/internal/services"

	"github.com/spf13/cobra"
)

var productsQuery services.ProductQuery

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products from the shop backend",
	RunE:  runProducts,
}

func init() {
	productsCmd.Flags().StringVar(&productsQuery.Search, "search", "", "search text")
	productsCmd.Flags().StringVar(&productsQuery.Category, "category", "", "category id")
	productsCmd.Flags().StringVar(&productsQuery.Brand, "brand", "", "brand id")
	productsCmd.Flags().IntVar(&productsQuery.Page, "page", 1, "page number")
	rootCmd.AddCommand(productsCmd)
}

func runProducts(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client := infra.NewStoreClient(cfg.Backend.BaseURL, infra.WithTimeout(cfg.Backend.Timeout))
	catalog := services.NewCatalogService(client, nil, nil)

	list, err := catalog.List(cmd.Context(), productsQuery)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range list.Products {
		stock := "in stock"
		if !p.IsInStock {
			stock = "out of stock"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, pricing.Format(p.Price), stock)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d products)\n", list.Page, list.TotalPages, list.Count)
	return nil
}
