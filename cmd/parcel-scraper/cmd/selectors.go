package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"parcel-scraper/internal/carriers"
	"parcel-scraper/internal/detector"
)

var showScript bool

var selectorsCmd = &cobra.Command{
	Use:   "selectors <carrier>",
	Short: "Show a carrier's readiness selectors",
	Long: `Prints the target and error selectors the readiness detector watches
for on the carrier's tracking page.  With --script it also prints the
generated in-page script, which helps when debugging a carrier against a
live page in the browser console.`,
	Args: cobra.ExactArgs(1),
	RunE: runSelectors,
}

func init() {
	selectorsCmd.Flags().BoolVar(&showScript, "script", false, "Also print the generated readiness script")
	rootCmd.AddCommand(selectorsCmd)
}

func runSelectors(cmd *cobra.Command, args []string) error {
	carrier, ok := carriers.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown carrier %q (supported: %s)",
			args[0], strings.Join(carriers.IDs(), ", "))
	}

	if useJSON() && !showScript {
		return json.NewEncoder(os.Stdout).Encode(map[string][]string{
			"targets": carrier.TargetSelectors(),
			"errors":  carrier.ErrorSelectors(),
		})
	}

	fmt.Println(titleStyle.Render("Targets"))
	for i, selector := range carrier.TargetSelectors() {
		fmt.Printf("%s  %s\n", idStyle.Render(fmt.Sprintf("%2d", i)), selector)
	}
	fmt.Println(titleStyle.Render("Errors"))
	for i, selector := range carrier.ErrorSelectors() {
		fmt.Printf("%s  %s\n", idStyle.Render(fmt.Sprintf("%2d", i)), selector)
	}

	if showScript {
		script, err := detector.Script(carrier.TargetSelectors(), carrier.ErrorSelectors())
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(script)
	}
	return nil
}
