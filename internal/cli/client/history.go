package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// EntryItem represents a knowledge base entry in API responses.
type EntryItem struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Response  string `json:"response"`
	MediaPath string `json:"mediaPath,omitempty"`
	MediaKind string `json:"mediaKind,omitempty"`
	SessionID string `json:"sessionId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "List knowledge base entries recorded for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClientWithCmd(cmd)

			var entries []EntryItem
			if err := api.Get("/api/chatbot/queries/"+args[0], &entries); err != nil {
				return err
			}

			if asJSON {
				output, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(output))
				return nil
			}

			if len(entries) == 0 {
				fmt.Println("No entries for this session.")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%s  %s\n    %s\n", e.ID, e.Question, e.Response)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
