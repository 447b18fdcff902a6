package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"signal-relay/internal/signaling"
)

var (
	Primary = lipgloss.Color("#22d3ee")
	Success = lipgloss.Color("#10B981")
	Warning = lipgloss.Color("#F59E0B")
	Error   = lipgloss.Color("#EF4444")
	Muted   = lipgloss.Color("#6B7280")

	TitleStyle       = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	MutedStyle       = lipgloss.NewStyle().Foreground(Muted)
	ErrorStyle       = lipgloss.NewStyle().Foreground(Error).Bold(true)
	PresenceStyle    = lipgloss.NewStyle().Foreground(Success)
	RelayStyle       = lipgloss.NewStyle().Foreground(Warning)
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary).Padding(0, 1)
	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Muted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		String()
}

// RoomsTable renders the room list
func RoomsTable(rooms []RoomSummary) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No active rooms")
	}
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, []string{r.RoomID, fmt.Sprintf("%d", r.ParticipantCount)})
	}
	return renderTable([]string{"Room", "Participants"}, rows)
}

// RoomTable renders one room's participants
func RoomTable(d RoomDetail) string {
	title := TitleStyle.Render(fmt.Sprintf("%s (%d)", d.RoomID, d.ParticipantCount))
	rows := make([][]string, 0, len(d.Participants))
	for _, p := range d.Participants {
		rows = append(rows, []string{p.UserID, yesNo(p.IsHost), yesNo(p.Connected)})
	}
	return title + "\n" + renderTable([]string{"User", "Host", "Connected"}, rows)
}

// FormatEvent renders one received frame as a single line
func FormatEvent(f signaling.Frame) string {
	style := RelayStyle
	switch f.Event {
	case signaling.EventUserJoined, signaling.EventUserLeft, signaling.EventParticipantCount, signaling.EventWelcome:
		style = PresenceStyle
	case signaling.EventError:
		style = ErrorStyle
	}

	keys := make([]string, 0, len(f.Data))
	for k := range f.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f.Data[k]))
	}
	return style.Render(f.Event) + " " + MutedStyle.Render(strings.Join(parts, " "))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
