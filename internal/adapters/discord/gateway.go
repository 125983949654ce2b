// Gateway implements the narrow platform surface the orchestrator consumes:
// create/find category and voice rooms, delete rooms, move members, and
// answer occupancy questions from the discordgo state cache.

package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

type Gateway struct {
	sess *discordgo.Session
	log  *logrus.Logger
}

func NewGateway(s *discordgo.Session, log *logrus.Logger) *Gateway {
	return &Gateway{sess: s, log: log}
}

// EnsureCategory finds a category by name (case-insensitive) or creates it.
func (g *Gateway) EnsureCategory(guildID, name string) (string, error) {
	channels, err := g.sess.GuildChannels(guildID)
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(ch.Name, name) {
			return ch.ID, nil
		}
	}
	ch, err := g.sess.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return "", fmt.Errorf("create category %q: %w", name, err)
	}
	return ch.ID, nil
}

// EnsureVoiceRoom finds a voice channel by name within the category or
// creates it with the given user limit. Idempotent by name, so a retried
// start request never duplicates rooms. The bool reports whether this call
// created the room rather than finding it; found rooms are not ours to
// delete on rollback.
func (g *Gateway) EnsureVoiceRoom(guildID, categoryID, name string, capacity int) (string, bool, error) {
	channels, err := g.sess.GuildChannels(guildID)
	if err != nil {
		return "", false, fmt.Errorf("list channels: %w", err)
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildVoice && ch.ParentID == categoryID && strings.EqualFold(ch.Name, name) {
			return ch.ID, false, nil
		}
	}
	ch, err := g.sess.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:      name,
		Type:      discordgo.ChannelTypeGuildVoice,
		ParentID:  categoryID,
		UserLimit: capacity,
	})
	if err != nil {
		return "", false, fmt.Errorf("create voice room %q: %w", name, err)
	}
	return ch.ID, true, nil
}

// DeleteRoom removes a voice channel. A room that is already gone is success,
// not an error: the timeout path and an explicit end may both try.
func (g *Gateway) DeleteRoom(roomID string) error {
	_, err := g.sess.ChannelDelete(roomID)
	if isUnknownChannel(err) {
		g.log.WithField("room_id", roomID).Debug("room already gone")
		return nil
	}
	return err
}

// MoveParticipant drags a connected member into roomID.
func (g *Gateway) MoveParticipant(guildID, userID, roomID string) error {
	return g.sess.GuildMemberMove(guildID, userID, &roomID)
}

// RoomExists checks the state cache first and falls back to REST.
func (g *Gateway) RoomExists(roomID string) (bool, error) {
	if ch, err := g.sess.State.Channel(roomID); err == nil && ch != nil {
		return true, nil
	}
	_, err := g.sess.Channel(roomID)
	if err == nil {
		return true, nil
	}
	if isUnknownChannel(err) {
		return false, nil
	}
	return false, err
}

// RoomOccupancy counts members currently connected to roomID.
func (g *Gateway) RoomOccupancy(roomID string) (int, error) {
	states, err := g.voiceStatesFor(roomID)
	if err != nil {
		return 0, err
	}
	return len(states), nil
}

// RoomMembers returns the user ids currently connected to roomID.
func (g *Gateway) RoomMembers(roomID string) ([]string, error) {
	states, err := g.voiceStatesFor(roomID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(states))
	for _, vs := range states {
		out = append(out, vs.UserID)
	}
	return out, nil
}

func (g *Gateway) voiceStatesFor(roomID string) ([]*discordgo.VoiceState, error) {
	ch, err := g.sess.State.Channel(roomID)
	if err != nil || ch == nil {
		ch, err = g.sess.Channel(roomID)
		if err != nil {
			return nil, fmt.Errorf("resolve room %s: %w", roomID, err)
		}
	}
	guild, err := g.sess.State.Guild(ch.GuildID)
	if err != nil || guild == nil {
		return nil, fmt.Errorf("guild %s not in state cache", ch.GuildID)
	}
	var out []*discordgo.VoiceState
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == roomID {
			out = append(out, vs)
		}
	}
	return out, nil
}

func isUnknownChannel(err error) bool {
	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Message != nil {
		return re.Message.Code == discordgo.ErrCodeUnknownChannel
	}
	return false
}
