package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mediamap/internal/config"
	"mediamap/internal/service"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1"))
	sectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Width(26)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
)

func statLine(label string, v int) string {
	return labelStyle.Render(label) + fmt.Sprint(v)
}

// renderReport formats the end-of-run summary.
func renderReport(res *service.GenerateResult, cfg *config.AppConfig) string {
	var b strings.Builder
	s := res.Stats

	b.WriteString(headingStyle.Render("Map created: "+res.Output) + "\n")
	if info, err := os.Stat(res.Output); err == nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("File size: %.1f KB", float64(info.Size())/1024)) + "\n")
	}

	b.WriteString(sectionStyle.Render("Statistics") + "\n")
	lines := []string{
		statLine("Total markers", s.Total),
		statLine("Media markers", s.Images+s.Videos),
		statLine("  Images", s.Images),
		statLine("  Videos", s.Videos),
		statLine("Event markers", s.Events()),
		statLine("  "+cfg.Labels.EventA, s.EventA),
		statLine("  "+cfg.Labels.EventB, s.EventB),
		statLine("With media", s.WithMedia),
		statLine("Without media", s.NoMedia),
	}
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	if s.MissingMedia > 0 {
		b.WriteString(warnStyle.Render(statLine("Missing media files", s.MissingMedia)) + "\n")
	}
	if s.Skipped > 0 {
		b.WriteString(warnStyle.Render(statLine("Skipped records", s.Skipped)) + "\n")
	}
	if s.Dropped > 0 {
		b.WriteString(warnStyle.Render(statLine("Rows without coordinates", s.Dropped)) + "\n")
	}

	if cfg.Media.URLMode == config.URLModeServer && cfg.Media.Backend == config.BackendLocal {
		b.WriteString(sectionStyle.Render("Media server") + "\n")
		b.WriteString(fmt.Sprintf("Media uses %s\n", cfg.MediaBaseURL()))
		b.WriteString(mutedStyle.Render("Run `mediamap serve` and keep it running while viewing the map.") + "\n")
	}
	return b.String()
}
