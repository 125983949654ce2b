// internal/app/commands.go
package app

import "github.com/bwmarrin/discordgo"

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "startmatch",
		Description: "Split the waiting room into team rooms and start a match",
		Type:        discordgo.ChatApplicationCommand,
	},
	{
		Name:        "endmatch",
		Description: "End a match and reclaim its rooms",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "match",
				Description: "Match id (see /matches)",
				Required:    true,
			},
		},
	},
	{
		Name:        "matches",
		Description: "Show running matches",
		Type:        discordgo.ChatApplicationCommand,
	},
}

// RegisterCommands creates (or updates) guild-level commands.
func RegisterCommands(s *discordgo.Session, appID, guildID string) error {
	for _, c := range commands {
		if _, err := s.ApplicationCommandCreate(appID, guildID, c); err != nil {
			return err
		}
	}
	return nil
}
