package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coveway/textvec/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "textvec",
		Short: "Textvec - chunk, embed, and search text documents",
		Long: `Textvec ingests plain-text documents into a vector collection and
searches it by semantic similarity.

Environment variables:
  TEXTVEC_DATABASE_URL     Postgres connection string (required)
  TEXTVEC_OPENAI_API_KEY   OpenAI API key for embeddings (required)
  TEXTVEC_COLLECTION       Collection name (default: documents)`,
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.SearchCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
