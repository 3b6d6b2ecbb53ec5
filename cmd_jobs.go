package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raushankrgupta/fitly-client/api"
	"github.com/raushankrgupta/fitly-client/config"
	"github.com/raushankrgupta/fitly-client/models"
	"github.com/raushankrgupta/fitly-client/poller"
	"github.com/raushankrgupta/fitly-client/utils"
)

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var (
		description string
		noWait      bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <image-url-or-path>",
		Short: "Detect garments in a photo and match them to products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				sub, err := a.client.SubmitAnalysis(ctx, args[0], description)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "analysis job %d submitted\n", sub.JobID)
				if noWait {
					return nil
				}
				state, err := watchJob(ctx, out, a, models.JobKindAnalysis, sub.JobID)
				if err != nil {
					return err
				}
				return printResult(out, models.JobKindAnalysis, state.Result)
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "what to look for in the photo")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "print the job id and exit")
	return cmd
}

func newTryOnCmd(flags *globalFlags) *cobra.Command {
	var noWait bool
	cmd := &cobra.Command{
		Use:   "tryon <product-id> <person-id>",
		Short: "Render a product on a saved body profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				sub, err := a.client.SubmitTryOn(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "try-on job %d submitted\n", sub.JobID)
				if noWait {
					return nil
				}
				state, err := watchJob(ctx, out, a, models.JobKindTryOn, sub.JobID)
				if err != nil {
					return err
				}
				return printResult(out, models.JobKindTryOn, state.Result)
			})
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "print the job id and exit")
	return cmd
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <analysis|try-on> <job-id>",
		Short: "Resume waiting for a submitted job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := models.JobKind(args[0])
			jobID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || jobID <= 0 {
				return fmt.Errorf("invalid job id %q", args[1])
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				state, err := watchJob(ctx, out, a, kind, jobID)
				if err != nil {
					return err
				}
				return printResult(out, kind, state.Result)
			})
		},
	}
}

func timeoutFor(kind models.JobKind) time.Duration {
	if kind == models.JobKindTryOn {
		return config.TryOnTimeout
	}
	return config.AnalysisTimeout
}

// watchJob follows a job until it ends, printing progress changes. Ctrl-C
// stops polling; the job keeps running on the backend.
func watchJob(ctx context.Context, out io.Writer, a *app, kind models.JobKind, jobID int64) (poller.State, error) {
	src, err := a.client.Jobs(kind)
	if err != nil {
		return poller.State{}, err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := config.PollInterval
	if interval <= 0 {
		interval = poller.DefaultInterval
	}
	opts := poller.Options{
		Interval:     interval,
		IntervalFunc: poller.AdaptiveInterval(interval, 4*interval),
		Timeout:      timeoutFor(kind),
		Cache:        a.results,
		Kind:         kind,
		Retryable:    api.Retryable,
		Logger:       a.logger,
	}

	lastProgress := -1
	w := poller.NewWatcher(src, opts, func(s poller.State) {
		if s.Phase != poller.PhasePolling || s.Progress == lastProgress {
			return
		}
		lastProgress = s.Progress
		_, _ = fmt.Fprintf(out, "%s job %d: %s %d%%\n", kind, s.JobID, s.Status, s.Progress)
	})
	w.Watch(ctx, jobID)
	final := w.Wait()

	switch final.Phase {
	case poller.PhaseDone:
		return final, nil
	case poller.PhaseIdle:
		return final, fmt.Errorf("stopped watching %s job %d; resume with: fitly watch %s %d", kind, jobID, kind, jobID)
	case poller.PhaseTimedOut:
		return final, fmt.Errorf("%s job %d is still running: %w", kind, jobID, final.Err)
	default:
		if errors.Is(final.Err, poller.ErrJobFailed) {
			return final, fmt.Errorf("%s job %d failed", kind, jobID)
		}
		return final, final.Err
	}
}

func printResult(out io.Writer, kind models.JobKind, raw json.RawMessage) error {
	switch kind {
	case models.JobKindAnalysis:
		var res models.AnalysisResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("decode analysis result: %w", err)
		}
		if len(res.Garments) == 0 {
			_, _ = fmt.Fprintln(out, "no garments detected")
			return nil
		}
		for _, g := range res.Garments {
			_, _ = fmt.Fprintf(out, "%s (%s) %.0f%%\n", g.Label, g.Category, g.Confidence*100)
			for _, m := range g.Matches {
				_, _ = fmt.Fprintf(out, "  %s\t%s\t%s\n", m.Product.Title, m.Product.SellingPrice(), m.Product.URL)
			}
		}
	case models.JobKindTryOn:
		var res models.TryOn
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("decode try-on result: %w", err)
		}
		_, _ = fmt.Fprintf(out, "try-on ready: %s\n", res.GeneratedImageURL)
	default:
		return printJSON(out, raw)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

// formatMinor renders minor units with the rupee sign the backend's
// retailers price in.
func formatMinor(minor int64, currency string) string {
	symbol := currency + " "
	if currency == "" || currency == "INR" {
		symbol = "₹"
	}
	return utils.FormatPrice(minor, symbol)
}
