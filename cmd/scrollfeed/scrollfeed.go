// Package scrollfeedcmder
package scrollfeedcmder

import (
	"github.com/spf13/cobra"

	ingestcmder "github.com/scrollpedia/scrollfeed/cmd/scrollfeed/ingest"
	servecmder "github.com/scrollpedia/scrollfeed/cmd/scrollfeed/serve"
)

const scrollfeedLongDesc string = `Scrollfeed is the personalized article feed ranking service.

Run services using:
  scrollfeed serve     Run the feed API server
  scrollfeed ingest    Ingest articles from a JSON file`

const scrollfeedShortDesc string = "Scrollfeed - Personalized Feed Ranking"

func NewScrollfeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrollfeed",
		Short: scrollfeedShortDesc,
		Long:  scrollfeedLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to config.toml")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())

	return cmd
}
