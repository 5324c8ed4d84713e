package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Inspect the consent form",
}

var consentShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the consent form participants must accept",
	RunE:  runConsentShow,
}

func init() {
	consentCmd.AddCommand(consentShowCmd)
}

func runConsentShow(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}

	doc := cat.Consent()
	fmt.Printf("%s (version %s)\n\n", doc.Title, doc.Version)
	fmt.Println(doc.Content)
	if len(doc.Checkboxes) > 0 {
		fmt.Println()
		for _, box := range doc.Checkboxes {
			fmt.Printf("  [ ] %s\n", box)
		}
	}
	return nil
}
