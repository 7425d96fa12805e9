package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mtl-archives/photometa/internal/pipelinecmd"
)

func NewRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "photometa",
		Short: "Metadata cleaning and quality auditing for archival photograph manifests",
		Long: `Photometa normalizes the scraped metadata of the Montréal archival photograph
collection: it cleans text, resolves and synthesizes descriptions, classifies
language, canonicalizes dates and audits the quality of the resulting corpus.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			pipelinecmd.SetupLogging(verbose)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to photometa.yaml (default $PHOTOMETA_CONFIG or ./photometa.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(pipelinecmd.NewCleanCmd())
	cmd.AddCommand(pipelinecmd.NewAuditCmd())
	cmd.AddCommand(pipelinecmd.NewDatesCmd())
	cmd.AddCommand(pipelinecmd.NewAugmentCmd())
	cmd.AddCommand(pipelinecmd.NewInspectCmd())
	cmd.AddCommand(pipelinecmd.NewExportCmd())

	return cmd
}
