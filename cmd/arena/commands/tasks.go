package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage participant tasks",
	Long: `List and edit the tasks handed out with each pairing. Every pairing
draws two distinct tasks, one per side.

Examples:
  arena tasks list
  arena tasks add "Convince your partner you are human"`,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTasksList,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTasksAdd,
}

func init() {
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksAddCmd)
}

func runTasksList(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\t")
	for _, task := range cat.Tasks() {
		fmt.Fprintf(w, "%d\t%s\t\n", task.ID, task.Text)
	}
	return w.Flush()
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}

	task, err := cat.AddTask(context.Background(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Printf("Added task %d: %s\n", task.ID, task.Text)
	return nil
}
