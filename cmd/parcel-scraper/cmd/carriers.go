package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"parcel-scraper/internal/carriers"
)

var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "List the supported carriers",
	RunE:  runCarriers,
}

func init() {
	rootCmd.AddCommand(carriersCmd)
}

type carrierInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func runCarriers(cmd *cobra.Command, args []string) error {
	var infos []carrierInfo
	for _, id := range carriers.IDs() {
		carrier, ok := carriers.Get(id)
		if !ok {
			continue
		}
		infos = append(infos, carrierInfo{ID: carrier.ID(), Name: carrier.Name()})
	}

	if useJSON() {
		return json.NewEncoder(os.Stdout).Encode(infos)
	}

	for _, info := range infos {
		fmt.Printf("%s\t%s\n", idStyle.Render(info.ID), info.Name)
	}
	return nil
}
