// cmd/fepctl/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fep-agent/internal/common/config"
	"fep-agent/internal/common/database"
	"fep-agent/internal/common/genai"
	"fep-agent/internal/common/logger"
	"fep-agent/internal/common/textextract"
	"fep-agent/internal/common/vectorindex"
)

// app carries what every subcommand needs. Tests preset cfg, openStore
// and extractor to avoid touching real services.
type app struct {
	cfgFile string
	verbose bool

	cfg       *config.Config
	log       logger.Logger
	out       io.Writer
	openStore func(ctx context.Context) (vectorindex.Store, error)
	extractor textextract.Extractor
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "fepctl",
		Short: "Administration tool for the funeral expenses assistant",
		Long: `fepctl manages the policy document index, the activity registry and
the application form schema used by fep-agent.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (default: configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newDocsCmd(a))
	root.AddCommand(newRegistryCmd(a))
	root.AddCommand(newSchemaCmd(a))
	root.AddCommand(newClassifyCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	if a.cfg == nil {
		var err error
		if a.cfgFile != "" {
			a.cfg, err = config.LoadFromFile(a.cfgFile)
		} else {
			a.cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if a.log == nil {
		level := "warn"
		if a.verbose {
			level = "debug"
		}
		a.log = logger.NewZapAdapter(logger.New(level, "console"))
	}
	if a.extractor == nil {
		a.extractor = textextract.NewClient(a.cfg.APIs.TextExtraction)
	}
	if a.openStore == nil {
		a.openStore = a.elasticsearchStore
	}
	return nil
}

func (a *app) elasticsearchStore(ctx context.Context) (vectorindex.Store, error) {
	llm := genai.NewClient(a.cfg.APIs.GenAI, a.log)
	if !llm.Configured() {
		return nil, fmt.Errorf("an embedding api key is required: set OPENAI_API_KEY")
	}
	es, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch)
	if err != nil {
		return nil, err
	}
	if err := es.Ping(ctx); err != nil {
		return nil, err
	}
	return vectorindex.NewESIndex(es.Client, llm, a.cfg.RAG.Index, a.cfg.RAG.Dimensions), nil
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
