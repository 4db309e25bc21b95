// cmd/trending/fetch.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github-trending-notifier/internal/model"
	"github-trending-notifier/internal/snapshot"
	"github-trending-notifier/internal/syncer"
)

const allPeriods = "all"

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch trending repositories and store today's snapshot",
		Long: `Fetches the trending repositories for a period and optional language, stores
them as today's snapshot and prints them as JSON. With --period all every
period is collected and a summary line is printed per period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			period, _ := cmd.Flags().GetString("period")
			lang, _ := cmd.Flags().GetString("lang")
			notify, _ := cmd.Flags().GetBool("notify")

			if period != allPeriods && !model.Period(period).Valid() {
				return fmt.Errorf("invalid --period %q, expected daily, weekly, monthly or all", period)
			}

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if period == allPeriods {
				if notify {
					return a.Syncer.RunAll(ctx, lang)
				}
				for _, p := range model.Periods() {
					res, err := a.Syncer.Collect(ctx, p.String(), lang)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), summary(res))
				}
				return nil
			}

			collect := a.Syncer.Collect
			if notify {
				collect = a.Syncer.Run
			}
			res, err := collect(ctx, period, lang)
			if err != nil {
				return err
			}

			data, err := snapshot.Encode(res.Records)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().StringP("period", "p", string(model.Daily), "Trending period: daily, weekly, monthly or all")
	cmd.Flags().StringP("lang", "l", "", "Language filter (empty for all languages)")
	cmd.Flags().Bool("notify", false, "Send the digest to the configured chat")
	return cmd
}

func summary(res syncer.Result) string {
	location := res.Location
	if location == "" {
		location = "not stored"
	}
	return fmt.Sprintf("%s (%s): %d repositories, %s", res.Period, model.LanguageLabel(res.Language), len(res.Records), location)
}
