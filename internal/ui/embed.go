package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/scrim-rooms-bot/internal/domain/match"
	"github.com/jose-valero/scrim-rooms-bot/internal/teams"
)

const boardTitle = "🎯 Scrim Board"

// RenderBoard builds the public embed listing every active match.
func RenderBoard(active []*match.Match) *discordgo.MessageEmbed {
	emb := &discordgo.MessageEmbed{
		Title: boardTitle,
		Color: 0x2ecc71,
	}
	if len(active) == 0 {
		emb.Description = "No matches running. `/startmatch` to launch one."
		return emb
	}

	emb.Description = fmt.Sprintf("**%d** match(es) in progress", len(active))
	for _, m := range active {
		emb.Fields = append(emb.Fields, matchField(m))
	}
	return emb
}

// RenderMatchDetail builds an ephemeral embed for one match, teams included.
func RenderMatchDetail(m *match.Match) *discordgo.MessageEmbed {
	teamA, teamB := teams.Split(m.Participants)

	emb := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Match `%s`", m.ID),
		Color: 0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Team A", Value: mentionList(teamA), Inline: true},
		},
	}
	if len(teamB) > 0 {
		emb.Fields = append(emb.Fields, &discordgo.MessageEmbedField{
			Name: "Team B", Value: mentionList(teamB), Inline: true,
		})
	}
	status := "🟢 active"
	if !m.Active {
		status = fmt.Sprintf("🔴 ended by %s", m.EndedBy)
	}
	emb.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("%s • started %s by %s", status, humanSince(m.StartedAt), m.StartedBy),
	}
	return emb
}

// compact card of a match (inline column)
func matchField(m *match.Match) *discordgo.MessageEmbedField {
	rooms := "1 room"
	if len(m.RoomIDs) == 2 {
		rooms = "2 rooms"
	}
	name := fmt.Sprintf("`%s` • %s • ⏱ %s", m.ID, rooms, humanSince(m.StartedAt))
	return &discordgo.MessageEmbedField{
		Name:   name,
		Value:  fmt.Sprintf("%d players", len(m.Participants)),
		Inline: true,
	}
}

func mentionList(userIDs []string) string {
	if len(userIDs) == 0 {
		return "_(empty)_"
	}
	var b strings.Builder
	for i, id := range userIDs {
		fmt.Fprintf(&b, "%d) <@%s>\n", i+1, id)
	}
	return b.String()
}

func humanSince(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
