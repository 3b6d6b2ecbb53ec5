package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raushankrgupta/fitly-client/models"
	"github.com/raushankrgupta/fitly-client/preview"
	"github.com/raushankrgupta/fitly-client/utils"
)

func newCartCmd(flags *globalFlags) *cobra.Command {
	cart := &cobra.Command{Use: "cart", Short: "Manage the local cart"}

	var (
		title, price, currency, size, color, image string
		quantity                                   int
	)
	add := &cobra.Command{
		Use:   "add <product-id-or-url>",
		Short: "Add a product; a product URL is previewed to fill in the details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				ref := models.ProductRef{ID: args[0], Title: title, ImageURL: image, Currency: currency, Size: size, Color: color}
				if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
					fetcher := preview.NewFetcher()
					fetcher.Logger = a.logger
					p, err := fetcher.Preview(ctx, args[0])
					if err != nil {
						return fmt.Errorf("preview %s: %w", args[0], err)
					}
					fromPage := preview.ProductRef(p)
					fromPage.Size, fromPage.Color = size, color
					if title != "" {
						fromPage.Title = title
					}
					ref = fromPage
				}
				if price != "" {
					minor, err := utils.ParsePrice(price)
					if err != nil {
						return err
					}
					ref.Price = minor
				}
				if ref.Title == "" {
					return errors.New("--title is required")
				}

				item, err := a.cart.Add(models.CartItem{Product: ref, Quantity: quantity})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s (item %s)\n", item.Product.Title, item.ItemID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "product title")
	add.Flags().StringVar(&price, "price", "", `unit price, e.g. "₹1,299"`)
	add.Flags().StringVar(&currency, "currency", "INR", "currency code")
	add.Flags().StringVar(&size, "size", "", "size")
	add.Flags().StringVar(&color, "color", "", "color")
	add.Flags().StringVar(&image, "image", "", "image URL")
	add.Flags().IntVar(&quantity, "qty", 1, "quantity")

	remove := &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(_ context.Context, a *app) error {
				if err := a.cart.Remove(args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "removed")
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <item-id> <quantity>",
		Short: "Change a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withApp(cmd, flags, func(_ context.Context, a *app) error {
				if err := a.cart.SetQuantity(args[0], q); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "updated")
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart and its totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, a *app) error {
				out := cmd.OutOrStdout()
				items := a.cart.Items()
				if len(items) == 0 {
					_, _ = fmt.Fprintln(out, "cart is empty")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tPRICE")
				// One total per currency, in order of first appearance.
				var currencies []string
				subtotals := map[string]int64{}
				for _, it := range items {
					line := it.Product.Price * int64(it.Quantity)
					if _, seen := subtotals[it.Product.Currency]; !seen {
						currencies = append(currencies, it.Product.Currency)
					}
					subtotals[it.Product.Currency] += line
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ItemID, it.Product.Title, it.Quantity,
						formatMinor(line, it.Product.Currency))
				}
				totals := a.cart.Totals()
				for i, currency := range currencies {
					qty := ""
					if i == 0 {
						qty = strconv.Itoa(totals.Quantity)
					}
					_, _ = fmt.Fprintf(tw, "TOTAL\t\t%s\t%s\n", qty, formatMinor(subtotals[currency], currency))
				}
				return tw.Flush()
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, a *app) error {
				if err := a.cart.Clear(); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
				return nil
			})
		},
	}

	cart.AddCommand(add, remove, set, list, clearCmd)
	return cart
}
