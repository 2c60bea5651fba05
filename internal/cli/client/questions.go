package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// QuestionItem represents a single unanswered question in API responses.
type QuestionItem struct {
	ID               string `json:"id"`
	Question         string `json:"question"`
	SessionID        string `json:"sessionId"`
	MediaPath        string `json:"mediaPath,omitempty"`
	MediaKind        string `json:"mediaKind,omitempty"`
	CreatedAt        string `json:"createdAt"`
	KnowledgeBaseRef string `json:"knowledgeBaseRef,omitempty"`
}

// QuestionListResponse represents the unanswered-question list payload.
type QuestionListResponse struct {
	Msg  string         `json:"msg"`
	Data []QuestionItem `json:"data"`
}

// UpdateEntryResponse represents the review update payload.
type UpdateEntryResponse struct {
	Success      bool            `json:"success"`
	Msg          string          `json:"msg"`
	UpdatedEntry json.RawMessage `json:"updatedEntry"`
}

// QuestionsCmd creates the questions command group.
func QuestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Review unanswered questions",
		Long:  "List pending unanswered questions and push curated answers back into the knowledge base.",
	}

	cmd.AddCommand(questionsListCmd())
	cmd.AddCommand(questionsResolveCmd())

	return cmd
}

func questionsListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending unanswered questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClientWithCmd(cmd)

			var resp QuestionListResponse
			if err := api.Get("/api/chatbot/unanswer-questions", &resp); err != nil {
				return err
			}

			if asJSON {
				output, err := json.MarshalIndent(resp.Data, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(output))
				return nil
			}

			if len(resp.Data) == 0 {
				fmt.Println("No unanswered questions.")
				return nil
			}

			for _, q := range resp.Data {
				fmt.Printf("%s  [%s]  %s", q.ID, q.SessionID, q.Question)
				if q.KnowledgeBaseRef != "" {
					fmt.Printf("  -> %s", q.KnowledgeBaseRef)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func questionsResolveCmd() *cobra.Command {
	var ref, response string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Write a curated answer for a knowledge base entry",
		Long:  "Updates the referenced knowledge base entry with a curated answer and removes the unanswered questions that pointed at it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ref == "" {
				return fmt.Errorf("--ref is required")
			}
			if response == "" {
				return fmt.Errorf("--response is required")
			}

			api := NewAPIClientWithCmd(cmd)

			var resp UpdateEntryResponse
			body := map[string]string{"knowledgeBaseRef": ref, "response": response}
			if err := api.Post("/api/chatbot/unanswer-questions/update", body, &resp); err != nil {
				return err
			}

			fmt.Println(resp.Msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Knowledge base entry id to update")
	cmd.Flags().StringVar(&response, "response", "", "Curated answer text")

	return cmd
}
