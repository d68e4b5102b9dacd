// Package ui renders a status report for the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/bf4-status/internal/roster"
	"github.com/leighmacdonald/bf4-status/internal/status"
	"github.com/leighmacdonald/bf4-status/internal/ui/styles"
	"github.com/muesli/reflow/truncate"
)

const (
	maxNameWidth = 24
	nameTail     = "…"
)

type reportCol int

const (
	colName reportCol = iota
	colScore
)

// RenderOpts controls optional parts of the output.
type RenderOpts struct {
	// Links appends each player's battlelog stats page.
	Links bool
	// Now is used for the relative "last updated" time, defaults to time.Now.
	Now time.Time
}

// Render formats report as a header followed by one table per team.
func Render(report status.Report, opts RenderOpts) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	sections := []string{renderHeader(report)}
	for idx, team := range report.Teams {
		sections = append(sections, renderTeam(idx, team, opts.Links))
	}

	if !report.EnrichmentAvailable {
		sections = append(sections, styles.StatusWarning.Render("Player lookups unavailable, scores are unknown"))
	}

	sections = append(sections, styles.StatusUpdated.Render(fmt.Sprintf("Last updated %s (%s)",
		report.UpdatedAt.Format(time.DateTime), humanize.RelTime(report.UpdatedAt, now, "ago", "from now"))))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// Summary is the one line description of the current match.
func Summary(report status.Report) string {
	total := report.PlayerTotal()
	noun := "players"
	if total == 1 {
		noun = "player"
	}

	return fmt.Sprintf("%d %s on %s %s", total, noun, report.MapName, report.ModeName)
}

func renderHeader(report status.Report) string {
	details := []string{
		styles.StatusHostname.Render(report.Server.Name),
		styles.StatusMap.Render(Summary(report)),
		styles.StatusMap.Render("[" + report.PlayerCount + "]"),
	}

	if report.Region != "" {
		details = append(details, styles.StatusRegion.Render(report.Region))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, details...)
}

func renderTeam(idx int, team roster.Team, links bool) string {
	headers := []string{"Team " + team.ID, "Score"}
	if links {
		headers = append(headers, "Battlelog")
	}

	rows := make([][]string, 0, len(team.Players))
	for _, player := range team.Players {
		row := []string{truncate.StringWithTail(player.Name(), maxNameWidth, nameTail), player.Score()}
		if links {
			row = append(row, status.BattlelogURL(player))
		}

		rows = append(rows, row)
	}

	headerStyle := styles.HeaderStyleRed
	if idx%2 == 1 {
		headerStyle = styles.HeaderStyleBlu
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderHeader(true).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case team.Players[row].Flagged():
				style = styles.TableRowFlagged
			case row%2 == 0:
				style = styles.TableRowValuesEven
			default:
				style = styles.TableRowValuesOdd
			}

			if reportCol(col) == colName {
				return style.Width(maxNameWidth + 2)
			}

			return style
		}).
		Render()
}

// Plain renders the report without styling, one player per line, for piping into other tools.
func Plain(report status.Report) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%s\n%s [%s]\n", report.Server.Name, Summary(report), report.PlayerCount)

	for _, team := range report.Teams {
		fmt.Fprintf(&builder, "team %s\n", team.ID)
		for _, player := range team.Players {
			fmt.Fprintf(&builder, "  %s\t%s\n", player.Name(), player.Score())
		}
	}

	if !report.EnrichmentAvailable {
		builder.WriteString("player lookups unavailable\n")
	}

	return builder.String()
}
