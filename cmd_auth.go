package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raushankrgupta/fitly-client/models"
)

// passwordOrEnv lets scripts keep passwords out of the process list.
func passwordOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("FITLY_PASSWORD")
}

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login --email <email>",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				resp, err := a.client.Login(ctx, email, passwordOrEnv(password))
				if err != nil {
					return err
				}
				name := email
				if resp.User != nil && resp.User.Name != "" {
					name = resp.User.Name
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or FITLY_PASSWORD)")
	return cmd
}

func newRegisterCmd(flags *globalFlags) *cobra.Command {
	var req models.SignupRequest
	cmd := &cobra.Command{
		Use:   "register --name <name> --email <email>",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				req.Password = passwordOrEnv(req.Password)
				resp, err := a.client.Register(ctx, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.session.IsAuthenticated() {
					_, _ = fmt.Fprintf(out, "registered and logged in as %s\n", req.Email)
					return nil
				}
				msg := resp.Message
				if msg == "" {
					msg = "check your email for a verification code"
				}
				_, _ = fmt.Fprintf(out, "%s; then run: fitly verify-otp --email %s --otp <code>\n", msg, req.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (or FITLY_PASSWORD)")
	cmd.Flags().StringVar(&req.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "gender")
	return cmd
}

func newVerifyOTPCmd(flags *globalFlags) *cobra.Command {
	var email, otp string
	cmd := &cobra.Command{
		Use:   "verify-otp --email <email> --otp <code>",
		Short: "Confirm a registration code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if _, err := a.client.VerifyOTP(ctx, email, otp); err != nil {
					return err
				}
				if a.session.IsAuthenticated() {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "verified and logged in")
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "verified; you can now log in")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&otp, "otp", "", "verification code")
	return cmd
}

func newForgotPasswordCmd(flags *globalFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password --email <email>",
		Short: "Send a password reset code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.client.ForgotPassword(ctx, email); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "reset code sent")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newResetPasswordCmd(flags *globalFlags) *cobra.Command {
	var req models.ResetPasswordRequest
	cmd := &cobra.Command{
		Use:   "reset-password --email <email> --otp <code>",
		Short: "Set a new password with a reset code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				req.NewPassword = passwordOrEnv(req.NewPassword)
				if err := a.client.ResetPassword(ctx, req); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "password updated")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.OTP, "otp", "", "reset code")
	cmd.Flags().StringVar(&req.NewPassword, "new-password", "", "new password (or FITLY_PASSWORD)")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, a *app) error {
				if err := a.client.Logout(); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, a *app) error {
				out := cmd.OutOrStdout()
				snap := a.session.Snapshot()
				if !snap.IsAuthenticated {
					if snap.FirstVisit {
						_, _ = fmt.Fprintln(out, "not logged in (welcome! run fitly register to get started)")
					} else {
						_, _ = fmt.Fprintln(out, "not logged in")
					}
					return nil
				}
				_, _ = fmt.Fprintf(out, "user: %s\n", a.session.UserID())
				if snap.User != nil {
					_, _ = fmt.Fprintf(out, "name: %s\nemail: %s\n", snap.User.Name, snap.User.Email)
				}
				if exp := a.session.AccessTokenExpiry(); !exp.IsZero() {
					state := "valid"
					if time.Now().After(exp) {
						state = "expired, refreshed on next request"
					}
					_, _ = fmt.Fprintf(out, "access token: %s until %s\n", state, exp.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}
