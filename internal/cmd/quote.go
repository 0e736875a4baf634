package cmd

import (
	"fmt"
	"io"
	"time"

	"storefront/internal/config"
	"storefront/internal/pricing"

	"github.com/spf13/cobra"
)

const (
	modeCart     = "cart"
	modeCheckout = "checkout"
)

var quoteFlags struct {
	subtotal string
	mode     string
	shipping string
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Print the totals block for a subtotal",
	Long: `Compute shipping, tax and total for a subtotal using the configured
pricing rules. The cart page and the checkout page use different shipping
rules, selected with --mode.`,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&quoteFlags.subtotal, "subtotal", "", "subtotal in dollars, e.g. 59.90")
	quoteCmd.Flags().StringVar(&quoteFlags.mode, "mode", modeCheckout, "pricing rules: cart or checkout")
	quoteCmd.Flags().StringVar(&quoteFlags.shipping, "shipping", pricing.TierStandard, "checkout shipping tier: standard, express or overnight")
	_ = quoteCmd.MarkFlagRequired("subtotal")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	subtotal, err := pricing.ParseAmount(quoteFlags.subtotal)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch quoteFlags.mode {
	case modeCart:
		totals, err := cfg.Pricing.CartPolicy().Totals(subtotal)
		if err != nil {
			return err
		}
		printTotals(out, totals, "")
	case modeCheckout:
		totals, opt, err := cfg.Pricing.CheckoutPolicy().Totals(subtotal, quoteFlags.shipping)
		if err != nil {
			return err
		}
		printTotals(out, totals, opt.Name)
		fmt.Fprintf(out, "Estimated delivery: %s\n", opt.EstimatedDelivery(time.Now()))
	default:
		return fmt.Errorf("unknown mode %q: want %s or %s", quoteFlags.mode, modeCart, modeCheckout)
	}
	return nil
}

func printTotals(out io.Writer, t pricing.Totals, method string) {
	shipping := pricing.Format(t.Shipping)
	if t.FreeShipping() {
		shipping = "FREE"
	}
	if method != "" {
		shipping += " (" + method + ")"
	}
	fmt.Fprintf(out, "Subtotal: %s\n", pricing.Format(t.Subtotal))
	fmt.Fprintf(out, "Shipping: %s\n", shipping)
	fmt.Fprintf(out, "Tax:      %s\n", pricing.Format(t.Tax))
	fmt.Fprintf(out, "Total:    %s\n", pricing.Format(t.Total))
}
