package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/pkg/calendar"
	"github.com/maheshrc27/postpilot/pkg/utils"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "postctl",
		Short:         "Operator tooling for the posting service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTokenCmd(), newCronSecretCmd(), newVerifyCmd(), newNextSlotCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newTokenCmd() *cobra.Command {
	var operator string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token for the management API",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := utils.GenerateToken(config.LoadConfig().SecretKey, operator, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "admin", "operator name stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}

func newCronSecretCmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "cron-secret",
		Short: "Generate a value for CRON_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := utils.GenerateRandomKey(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "bytes", 32, "random bytes before encoding")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "verify-facebook",
		Short: "Check that the configured page token can read the page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if !cfg.Facebook.Configured() {
				return fmt.Errorf("FACEBOOK_PAGE_ID and FACEBOOK_PAGE_ACCESS_TOKEN must be set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			page, err := service.NewFacebookClient().PageInfo(ctx, service.FacebookCredentials{
				PageID:      cfg.Facebook.PageID,
				AccessToken: cfg.Facebook.PageAccessToken,
				APIVersion:  cfg.Facebook.APIVersion,
				GraphURL:    cfg.Facebook.GraphURL,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Page: %s (%s)\n", page.Name, page.ID)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	return cmd
}

func newNextSlotCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "next-slot",
		Short: "Print the upcoming posting slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			posting := config.LoadConfig().Posting
			pattern, err := calendar.ParsePattern(posting.Days, posting.Time, posting.Timezone)
			if err != nil {
				return err
			}

			now := time.Now()
			for i := 0; i < count; i++ {
				slot, err := pattern.NextSlot(now)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), slot.Format(time.RFC3339))
				now = slot
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of slots to print")
	return cmd
}
