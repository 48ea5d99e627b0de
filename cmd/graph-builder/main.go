package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/citadelrisk/graphbuilder/client"
	"github.com/citadelrisk/graphbuilder/internal/config"
)

// Build-time variables set via ldflags.
var (
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3040"

var (
	apiClient *client.Client
	flagURL   string
	flagKey   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("graph-builder version %s (commit: %s, built: %s)", config.Version, commit, buildDate)
	}
	return fmt.Sprintf("graph-builder version %s", config.Version)
}

type configFile struct {
	URL           string                   `yaml:"url"`
	APIKey        string                   `yaml:"api_key"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "graph-builder",
		Short:   "graph-builder: link accounts through shared devices, phones and identities",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "graph-builder server URL (env: GRAPH_BUILDER_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: GRAPH_BUILDER_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	// Commands that talk to the database directly skip client setup.
	for _, local := range []*cobra.Command{newServeCmd(), newBuildCmd(), newMigrateCmd()} {
		local.PersistentPreRun = func(cmd *cobra.Command, args []string) {}
		rootCmd.AddCommand(local)
	}

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newConnectorsCmd())
	rootCmd.AddCommand(newRunsCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills the server URL and key: flag, then env, then config file.
func resolveConfig() {
	if flagURL == defaultURL {
		if v := os.Getenv("GRAPH_BUILDER_URL"); v != "" {
			flagURL = v
		}
	}
	if flagKey == "" {
		flagKey = os.Getenv("GRAPH_BUILDER_API_KEY")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	data, err := os.ReadFile(filepath.Join(home, ".graph-builder", "config.yaml"))
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}

	resolvedURL, resolvedKey := cfg.URL, cfg.APIKey
	if cfg.Profiles != nil {
		profileName := cfg.ActiveProfile
		if profileName == "" {
			profileName = "default"
		}
		if p, ok := cfg.Profiles[profileName]; ok {
			if p.URL != "" {
				resolvedURL = p.URL
			}
			if p.APIKey != "" {
				resolvedKey = p.APIKey
			}
		}
	}
	if flagURL == defaultURL && resolvedURL != "" {
		flagURL = resolvedURL
	}
	if flagKey == "" && resolvedKey != "" {
		flagKey = resolvedKey
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
