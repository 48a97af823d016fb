package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"parcel-scraper/internal/parcel"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// useJSON reports whether output should be machine readable: either forced
// with --json or because stdout is not a terminal.
func useJSON() bool {
	if jsonOutput {
		return true
	}
	return !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func printParcel(p *parcel.Parcel) error {
	if useJSON() {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(p)
	}

	fmt.Println(titleStyle.Render(p.TrackingCode))
	if status := p.Status(); status != nil {
		fmt.Printf("%s %s\n", dimStyle.Render("Status:"), statusStyle.Render(string(status.Type)))
	}
	if p.ETA != nil {
		eta := p.ETA.Verbatim
		if p.ETA.Date != nil {
			eta = p.ETA.Date.ISO8601()
		}
		fmt.Printf("%s %s\n", dimStyle.Render("ETA:"), eta)
	}
	if p.Origin != nil {
		fmt.Printf("%s %s\n", dimStyle.Render("From:"), p.Origin.SearchQuery())
	}
	if p.Destination != nil {
		fmt.Printf("%s %s\n", dimStyle.Render("To:"), p.Destination.SearchQuery())
	}

	fmt.Println()
	for _, update := range p.History {
		when := "unknown time"
		if update.Timestamp != nil {
			when = update.Timestamp.Time().Format("2006-01-02 15:04")
		}
		line := fmt.Sprintf("%s  %s", idStyle.Render(when), update.Title)
		if update.Location != nil {
			if query := update.Location.SearchQuery(); query != "" {
				line += dimStyle.Render("  @ " + query)
			}
		}
		fmt.Println(line)
	}
	return nil
}

func printError(perr *parcel.Error) error {
	if useJSON() {
		return json.NewEncoder(os.Stdout).Encode(perr)
	}
	fmt.Printf("%s %s\n", errorStyle.Render("Error:"), perr.Error())
	return nil
}
