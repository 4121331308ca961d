package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	chatSession     string
	chatShowSources bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask a question about your reports",
	Long: `Answers a question using passages retrieved from ingested reports.
Each answer names the reports it drew on; when nothing relevant is
stored, the answer says so instead of guessing.

Pass --session to continue an earlier conversation; recent turns from
the session are included in the prompt. Without a message argument the
interactive chat UI is launched instead ('reportchat tui').`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show the turns of a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatHistory,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session ID to continue (new session by default)")
	chatCmd.Flags().BoolVar(&chatShowSources, "sources", false, "list the chunk IDs behind the answer")
	chatCmd.AddCommand(chatHistoryCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	if len(args) == 0 {
		return runTUI(cmd, args)
	}

	sessionID := chatSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	resp, err := chatService.Respond(cmd.Context(), sessionID, args[0])
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	cmd.Println(resp.Message)
	if !resp.Grounded {
		cmd.Println()
		cmd.Println("(no stored report content was relevant to this question)")
	}
	if chatShowSources && len(resp.GroundingChunkIDs) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, id := range resp.GroundingChunkIDs {
			cmd.Printf("  %s\n", id)
		}
	}
	if chatSession == "" {
		cmd.Println()
		cmd.Printf("Session: %s (continue with --session)\n", sessionID)
	}

	return nil
}

func runChatHistory(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	turns, err := chatService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	if len(turns) == 0 {
		cmd.Println("No turns recorded for this session.")
		return nil
	}

	for i := range turns {
		cmd.Printf("[%d] you: %s\n", turns[i].Index, turns[i].UserMessage)
		cmd.Printf("    assistant: %s\n", turns[i].AssistantMessage)
		if !turns[i].Grounded {
			cmd.Println("    (ungrounded)")
		}
		cmd.Println()
	}

	return nil
}
