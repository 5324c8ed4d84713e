package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/s376930/Chat-Arena/internal/conversation"
	"github.com/s376930/Chat-Arena/internal/storage"
	"github.com/spf13/cobra"
)

var conversationsOutput string

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Inspect recorded conversations",
	Long: `List and export the conversation records under the data directory.

Examples:
  arena conversations list
  arena conversations export 01JXK3V9Q2M8R5T7W0ABCDEF12 -o session.json`,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded conversations",
	RunE:  runConversationsList,
}

var conversationsExportCmd = &cobra.Command{
	Use:   "export <sessionID>",
	Short: "Export one conversation as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsExport,
}

func init() {
	conversationsExportCmd.Flags().StringVarP(&conversationsOutput, "output", "o", "", "Write to file instead of stdout")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsExportCmd)
}

func openConversations() (*conversation.Log, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return conversation.NewLog(storage.New(cfg.Data.Dir)), nil
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	records, err := openConversations()
	if err != nil {
		return err
	}

	summaries, err := records.List(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tTOPIC\tMESSAGES\tSTARTED\tENDED\t")
	for _, s := range summaries {
		ended := "-"
		if s.EndedAt != nil {
			ended = *s.EndedAt
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t\n", s.SessionID, s.Topic, s.MessageCount, s.StartedAt, ended)
	}
	return w.Flush()
}

func runConversationsExport(cmd *cobra.Command, args []string) error {
	records, err := openConversations()
	if err != nil {
		return err
	}

	conv, err := records.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return err
	}

	if conversationsOutput == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(conversationsOutput, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", conversationsOutput)
	return nil
}
