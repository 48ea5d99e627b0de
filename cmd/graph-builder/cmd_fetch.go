package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/citadelrisk/graphbuilder/client"
	"github.com/citadelrisk/graphbuilder/internal/models"
)

func newFetchCmd() *cobra.Command {
	var (
		format  string
		outPath string
		follow  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <account>",
		Short: "Request a graph from a running server",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := models.ParseAccountID(args[0])
			if err != nil {
				fatal("fetch", err)
			}
			account := int64(id)

			if follow {
				view, err := apiClient.Graph.Stream(cmd.Context(), account, printEvent)
				if err != nil {
					fatal("stream", err)
				}
				printSummary(view.Summary)
				return
			}

			data, summary, err := apiClient.Graph.Render(cmd.Context(), account, format)
			if err != nil {
				fatal("fetch", err)
			}
			if err := writeOutput(outPath, data); err != nil {
				fatal("fetch", err)
			}
			if outPath != "" && outPath != "-" {
				printSummary(*summary)
			}
		},
	}
	cmd.Flags().StringVar(&format, "render", client.FormatSVG, "Graph format: svg|dot|json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the graph to a file instead of stdout")
	cmd.Flags().BoolVar(&follow, "follow", false, "Stream layer progress over WebSocket")

	return cmd
}

func printEvent(e client.Event) {
	fmt.Fprintf(os.Stderr, "%-8s layer=%d frontier=%d discovered=%d accounts=%d relationships=%d\n",
		e.State, e.Layer, e.Frontier, len(e.Discovered), e.TotalAccounts, e.Relationships)
}

func printSummary(s client.Summary) {
	output(s, strconv.Itoa(s.TotalAccounts), func() {
		formatTable([]string{"METRIC", "VALUE"}, summaryRows(s.TotalAccounts, s.Layers, s.Depth, s.Relationships))
	})
}
