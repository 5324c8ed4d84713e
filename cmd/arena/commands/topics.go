package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Manage discussion topics",
	Long: `List and edit the discussion topics assigned to paired participants.

Examples:
  arena topics list
  arena topics add "Is remote work here to stay?"`,
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics",
	RunE:  runTopicsList,
}

var topicsAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTopicsAdd,
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsAddCmd)
}

func runTopicsList(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTOPIC\t")
	for _, topic := range cat.Topics() {
		fmt.Fprintf(w, "%d\t%s\t\n", topic.ID, topic.Text)
	}
	return w.Flush()
}

func runTopicsAdd(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}

	topic, err := cat.AddTopic(context.Background(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Printf("Added topic %d: %s\n", topic.ID, topic.Text)
	return nil
}
