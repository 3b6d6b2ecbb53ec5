package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raushankrgupta/fitly-client/models"
	"github.com/raushankrgupta/fitly-client/preview"
)

func newGalleryCmd(flags *globalFlags) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "List your generated try-on images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				res, err := a.client.Gallery(ctx, page, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(res.Images) == 0 {
					_, _ = fmt.Fprintln(out, "no try-ons yet")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, img := range res.Images {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", img.ID, img.CreatedAt.Format("2006-01-02"), img.GeneratedImageURL)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "page %d of %d (%d total)\n", res.CurrentPage, res.TotalPages, res.Total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "images per page")
	return cmd
}

func newProfileCmd(flags *globalFlags) *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Body profiles used for try-ons"}

	var (
		person models.Person
		images []string
	)
	create := &cobra.Command{
		Use:   "create --name <name> --image <path>...",
		Short: "Save a body profile with photos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				saved, err := a.client.CreateProfile(ctx, person, images)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "profile %s saved (%s)\n", saved.ID, saved.Name)
				return nil
			})
		},
	}
	create.Flags().StringVar(&person.Name, "name", "", "profile name")
	create.Flags().IntVar(&person.Age, "age", 0, "age")
	create.Flags().StringVar(&person.Gender, "gender", "", "gender")
	create.Flags().Float64Var(&person.Height, "height", 0, "height in cm")
	create.Flags().Float64Var(&person.Weight, "weight", 0, "weight in kg")
	create.Flags().Float64Var(&person.Chest, "chest", 0, "chest in inches")
	create.Flags().Float64Var(&person.Waist, "waist", 0, "waist in inches")
	create.Flags().Float64Var(&person.Hips, "hips", 0, "hips in inches")
	create.Flags().StringSliceVar(&images, "image", nil, "photo path (repeatable)")

	profile.AddCommand(create)
	return profile
}

func newFeedbackCmd(flags *globalFlags) *cobra.Command {
	var (
		fb    models.Feedback
		files []string
	)
	cmd := &cobra.Command{
		Use:   "feedback --message <text>",
		Short: "Send feedback to the Fitly team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if fb.Email == "" {
					if snap := a.session.Snapshot(); snap.User != nil {
						fb.Name, fb.Email = snap.User.Name, snap.User.Email
					}
				}
				if err := a.client.SubmitFeedback(ctx, fb, files); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "thanks for the feedback")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&fb.Message, "message", "", "feedback text")
	cmd.Flags().StringVar(&fb.Name, "name", "", "your name")
	cmd.Flags().StringVar(&fb.Email, "email", "", "your email")
	cmd.Flags().StringVar(&fb.CountryCode, "country-code", "", "phone country code")
	cmd.Flags().StringVar(&fb.MobileNumber, "mobile", "", "phone number")
	cmd.Flags().BoolVar(&fb.ContactBack, "contact-back", false, "ask to be contacted")
	cmd.Flags().StringSliceVar(&files, "file", nil, "attachment path (repeatable)")
	return cmd
}

func newScrapeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <product-url>",
		Short: "Import a product from a supported retailer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if !preview.Supported(args[0]) {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not a known retailer, the backend may reject it\n", args[0])
				}
				product, err := a.client.Scrape(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), product)
			})
		},
	}
}

func newPreviewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <product-url>",
		Short: "Show the link preview for a product page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := preview.NewFetcher()
			if !flags.verbose {
				fetcher.Logger = quietLogger()
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p, err := fetcher.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}
