// cmd/trending/show.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github-trending-notifier/internal/model"
	"github-trending-notifier/internal/notifier"
	"github-trending-notifier/internal/snapshot"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored snapshot",
		Long:  `Reads the snapshot stored for a period, language and capture date (YYYYMMDD, default today) and prints it as JSON or as a digest.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			period, _ := cmd.Flags().GetString("period")
			lang, _ := cmd.Flags().GetString("lang")
			dateStr, _ := cmd.Flags().GetString("date")
			digest, _ := cmd.Flags().GetBool("digest")

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			date := a.Clock.Now().In(a.Config.Location)
			if dateStr != "" {
				if date, err = snapshot.ParseDate(dateStr); err != nil {
					return err
				}
			}

			records, err := a.Syncer.LoadSnapshot(ctx, period, lang, date)
			if err != nil {
				return err
			}

			if digest {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatDigest(model.Period(period), lang, records, a.Config.DigestSize))
				return err
			}
			data, err := snapshot.Encode(records)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().StringP("period", "p", string(model.Daily), "Trending period: daily, weekly or monthly")
	cmd.Flags().StringP("lang", "l", "", "Language filter (empty for all languages)")
	cmd.Flags().StringP("date", "d", "", "Capture date as YYYYMMDD (default today)")
	cmd.Flags().Bool("digest", false, "Print the chat digest instead of JSON")
	return cmd
}
