package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/citadelrisk/graphbuilder/client"
	"github.com/citadelrisk/graphbuilder/internal/connector"
)

func newConnectorsCmd() *cobra.Command {
	var (
		local bool
		file  string
	)

	cmd := &cobra.Command{
		Use:   "connectors",
		Short: "List the connector types a traversal follows",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var list []client.Connector

			if local {
				catalog, err := connector.Load(file)
				if err != nil {
					fatal("connectors", err)
				}
				for _, t := range catalog.Types {
					list = append(list, client.Connector{Name: string(t.Name), Color: t.Color, LabelLength: t.LabelLength})
				}
			} else {
				var err error
				list, err = apiClient.Connectors(cmd.Context())
				if err != nil {
					fatal("connectors", err)
				}
			}

			names := make([]string, len(list))
			for i, c := range list {
				names[i] = c.Name
			}

			output(list, strings.Join(names, "\n"), func() {
				rows := make([][]string, len(list))
				for i, c := range list {
					rows[i] = []string{c.Name, c.Color, strconv.Itoa(c.LabelLength)}
				}
				formatTable([]string{"NAME", "COLOR", "LABEL"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Read the catalogue from disk instead of the server")
	cmd.Flags().StringVar(&file, "file", "", "Catalogue file for --local (default: built-in)")

	return cmd
}
