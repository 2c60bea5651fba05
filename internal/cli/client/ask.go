package client

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// QueryRequest represents a chatbot query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

// QueryResponse represents the chatbot answer payload.
type QueryResponse struct {
	Response string `json:"response"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the chatbot a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			api := NewAPIClientWithCmd(cmd)

			var resp QueryResponse
			body := QueryRequest{Query: strings.Join(args, " "), SessionID: sessionID}
			if err := api.Post("/api/chatbot/query", body, &resp); err != nil {
				return err
			}

			fmt.Println(resp.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (random when omitted)")

	return cmd
}
