package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/citadelrisk/graphbuilder/client"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the traversal run log",
	}
	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsPurgeCmd())
	return cmd
}

func runsListCmd() *cobra.Command {
	var (
		opts  client.RunListOptions
		since time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent traversal runs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if since > 0 {
				opts.Since = time.Now().Add(-since)
			}

			result, err := apiClient.Runs.List(cmd.Context(), opts)
			if err != nil {
				fatal("runs list", err)
			}

			ids := make([]string, len(result.Data))
			for i, r := range result.Data {
				ids[i] = r.ID
			}

			output(result, strings.Join(ids, "\n"), func() {
				rows := make([][]string, len(result.Data))
				for i, r := range result.Data {
					rows[i] = []string{
						r.CreatedAt.Format(time.RFC3339),
						strconv.FormatInt(r.Start, 10),
						r.State,
						strconv.Itoa(r.Summary.TotalAccounts),
						strconv.Itoa(r.Summary.Relationships),
						strconv.FormatInt(r.DurationMS, 10),
						r.Caller,
					}
				}
				formatTable([]string{"CREATED", "ACCOUNT", "STATE", "ACCOUNTS", "EDGES", "MS", "CALLER"}, rows)
			})
		},
	}
	cmd.Flags().Int64Var(&opts.Account, "account", 0, "Only runs starting from this account")
	cmd.Flags().StringVar(&opts.State, "state", "", "Only runs in this state (done|failed)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only runs newer than this (e.g. 24h)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Results to skip")
	return cmd
}

func runsPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete runs older than the retention window",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.Runs.Purge(cmd.Context(), days)
			if err != nil {
				fatal("runs purge", err)
			}
			output(map[string]int{"deleted": deleted}, strconv.Itoa(deleted), func() {
				fmt.Printf("deleted %d runs\n", deleted)
			})
		},
	}
	cmd.Flags().IntVar(&days, "retention-days", 90, "Keep runs newer than this many days")
	return cmd
}
