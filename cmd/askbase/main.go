package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/askbase/internal/cli"
	"github.com/cloo-solutions/askbase/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "askbase",
		Short: "Askbase CLI - knowledge-base chatbot operations",
		Long: `Askbase CLI talks to a running askbase gateway.

Environment variables:
  ASKBASE_SERVER_URL   Gateway base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("server", "", "Gateway base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.QuestionsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
