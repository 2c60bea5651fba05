package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/askbase/internal/cli"
	"github.com/cloo-solutions/askbase/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "askbased",
		Short: "Askbase daemon",
		Long:  "Askbase daemon for running the knowledge-base chatbot gateway",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
