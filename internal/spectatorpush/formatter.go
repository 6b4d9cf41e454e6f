package spectatorpush

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	colorStart = 0x5865F2
	colorWin   = 0x57F287
	colorDraw  = 0xFEE75C

	shortIDLimit   = 10
	listLimit      = 200
	defaultFooter  = "arena-core match push"
	noneFieldValue = "-"
)

func FormatMessage(n Notice) (FormattedMessage, bool) {
	game := fallback(n.Game, "unknown")
	arena := shortID(fallback(n.ArenaID, "unknown"), shortIDLimit)
	base := FormattedMessage{
		Timestamp: eventTimestamp(n.ServerTS),
		Footer:    defaultFooter,
	}
	fields := []MessageField{
		{Name: "Game", Value: game, Inline: true},
		{Name: "Map", Value: fallback(n.Map, noneFieldValue), Inline: true},
		{Name: "Players", Value: strconv.Itoa(n.Players), Inline: true},
	}

	switch n.EventType {
	case "match_started":
		base.Title = fmt.Sprintf("Match Started · %s · A:%s", game, arena)
		base.Content = fmt.Sprintf("%s match started with %d players", game, n.Players)
		base.Description = fmt.Sprintf("%d players on %s.", n.Players, fallback(n.Map, "an unnamed map"))
		base.Color = colorStart
		fields = append(fields, MessageField{Name: "Teams", Value: joinList(n.Teams), Inline: false})
	case "game_over":
		base.Title = fmt.Sprintf("Game Over · %s · A:%s", game, arena)
		if n.WinnerTeam == "" {
			base.Content = fmt.Sprintf("%s match ended in a draw", game)
			base.Description = "No team won."
			base.Color = colorDraw
		} else {
			base.Content = fmt.Sprintf("%s won the %s match", n.WinnerTeam, game)
			base.Description = fmt.Sprintf("Team %s won.", n.WinnerTeam)
			base.Color = colorWin
		}
		fields = append(fields,
			MessageField{Name: "Winner", Value: fallback(n.WinnerTeam, "draw"), Inline: true},
			MessageField{Name: "Winners", Value: joinList(n.Winners), Inline: false},
		)
	default:
		return FormattedMessage{}, false
	}

	base.Fields = fields
	return base, true
}

func joinList(v []string) string {
	if len(v) == 0 {
		return noneFieldValue
	}
	return trimText(strings.Join(v, ", "), listLimit)
}

func trimText(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	if max <= 3 {
		return v[:max]
	}
	return v[:max-3] + "..."
}

func shortID(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	return v[:max]
}

func eventTimestamp(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func fallback(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
