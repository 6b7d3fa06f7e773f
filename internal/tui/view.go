package tui

import (
	"fmt"
	"strings"

	"typerace/internal/model"
)

const barWidth = 30

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenLogin:
		body = m.loginView()
	case screenLobby:
		body = m.lobbyView()
	case screenRoom:
		body = m.roomView()
	case screenRace:
		body = m.raceView()
	case screenResults:
		body = m.resultsView()
	}

	var footer strings.Builder
	if m.status != "" {
		footer.WriteString("\n" + statusStyle.Render(m.status))
	}
	if m.err != nil {
		footer.WriteString("\n" + errorStyle.Render("error: "+m.err.Error()))
	}

	return layoutStyle.Render(titleStyle.Render("typerace") + "\n\n" + body + footer.String())
}

func (m Model) loginView() string {
	mode := "Log in"
	if m.signup {
		mode = "Sign up"
	}

	user := "Username: " + m.username
	pass := "Password: " + strings.Repeat("*", len([]rune(m.password)))
	if m.focus == 0 {
		user = selectedStyle.Render(user + "_")
	} else {
		pass = selectedStyle.Render(pass + "_")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n%s\n\n", mode, user, pass)
	if m.busy {
		b.WriteString(statusStyle.Render("please wait...") + "\n")
	}
	b.WriteString(helpStyle.Render("tab switch field • enter submit • ctrl+s toggle sign up • ctrl+c quit"))
	return b.String()
}

func (m Model) lobbyView() string {
	var b strings.Builder
	b.WriteString("Open rooms\n\n")
	if len(m.lobby) == 0 {
		b.WriteString(pendingStyle.Render("no rooms waiting, press c to create one") + "\n")
	}
	for i, r := range m.lobby {
		line := fmt.Sprintf("%s  %d/%d players", shortID(r.ID), r.PlayerCount, r.MaxPlayers)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ select • enter join • c create • r refresh • q quit"))
	return b.String()
}

func (m Model) roomView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room %s\n\n", shortID(m.roomID))

	if m.room == nil {
		b.WriteString(pendingStyle.Render("loading room..."))
		return b.String()
	}

	fmt.Fprintf(&b, "Status: %s   Players: %d/%d\n\n", m.room.Status, len(m.room.Players), m.room.MaxPlayers)
	for _, p := range m.room.Players {
		name := p.Username
		if p.UserID == m.room.HostUserID {
			name += " (host)"
		}
		if p.UserID == m.user.ID {
			name = selectedStyle.Render(name)
		}
		b.WriteString("  " + name + "\n")
	}

	if m.countdown > 0 {
		b.WriteString("\n" + statusStyle.Render(fmt.Sprintf("Race starts in %d...", m.countdown)) + "\n")
	}

	help := "l leave"
	if m.isHost() && m.room.Status == model.RoomWaiting {
		help = "s start race • " + help
	}
	b.WriteString("\n" + helpStyle.Render(help))
	return b.String()
}

func (m Model) raceView() string {
	if m.typing == nil {
		return pendingStyle.Render("waiting for the race text...")
	}

	var b strings.Builder
	now := m.now()
	fmt.Fprintf(&b, "WPM: %d   Accuracy: %.1f%%   Progress: %.0f%%\n\n",
		m.typing.WPM(now), m.typing.Accuracy(), m.typing.Progress())
	b.WriteString(renderText(m.typing) + "\n\n")

	for _, p := range m.racePlayers {
		b.WriteString(renderBar(p) + "\n")
	}

	if m.finished {
		b.WriteString("\n" + statusStyle.Render("finished! waiting for the others..."))
	}
	return b.String()
}

func (m Model) resultsView() string {
	var b strings.Builder
	b.WriteString("Results\n\n")
	for _, r := range m.results {
		line := fmt.Sprintf("%d. %-16s %3d wpm  %5.1f%%", r.Position, r.Username, r.WPM, r.Accuracy)
		switch {
		case r.Left:
			line += fmt.Sprintf("  (left, %.0f%%)", r.Progress)
		case !r.Finished:
			line += fmt.Sprintf("  (dnf, %.0f%%)", r.Progress)
		}
		if r.UserID == m.user.ID {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter back to lobby"))
	return b.String()
}

// renderText colors typed runes by correctness and marks the cursor
func renderText(t *Typing) string {
	var b strings.Builder
	for i, r := range t.target {
		switch {
		case i < len(t.typed) && t.typed[i] == r:
			b.WriteString(correctStyle.Render(string(r)))
		case i < len(t.typed):
			shown := t.typed[i]
			if shown == ' ' {
				shown = '_'
			}
			b.WriteString(wrongStyle.Render(string(shown)))
		case i == len(t.typed):
			b.WriteString(cursorStyle.Render(string(r)))
		default:
			b.WriteString(pendingStyle.Render(string(r)))
		}
	}
	return b.String()
}

func renderBar(p model.RacePlayer) string {
	filled := int(p.Progress / 100 * barWidth)
	filled = min(max(filled, 0), barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	line := fmt.Sprintf("%-16s %s %3.0f%% %3d wpm", p.Username, bar, p.Progress, p.WPM)
	switch {
	case p.Finished:
		line += " ✓"
	case p.Left:
		line += " left"
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
