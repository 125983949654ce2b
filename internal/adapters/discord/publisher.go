package discord

import (
	"errors"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var (
	boardMsgIDs sync.Map // channelID -> messageID
	chLocks     sync.Map // channelID -> *sync.Mutex
)

// BoardMarker is the embed-title marker used to recognize our own board
// message when rehydrating after a restart.
const BoardMarker = "Scrim Board"

func setBoardMessageID(channelID, messageID string) {
	if channelID != "" && messageID != "" {
		boardMsgIDs.Store(channelID, messageID)
	}
}

func getBoardMessageID(channelID string) (string, bool) {
	v, ok := boardMsgIDs.Load(channelID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func chanLock(channelID string) *sync.Mutex {
	v, _ := chLocks.LoadOrStore(channelID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func looksLikeBoard(m *discordgo.Message) bool {
	if len(m.Embeds) == 0 {
		return false
	}
	return strings.Contains(m.Embeds[0].Title, BoardMarker)
}

// findExistingBoardMessage scans recent channel history for a board message
// we posted in a previous run.
func findExistingBoardMessage(s *discordgo.Session, channelID string) (string, bool) {
	msgs, err := s.ChannelMessages(channelID, 50, "", "", "")
	if err != nil {
		return "", false
	}

	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}
	for _, m := range msgs {
		if m == nil || len(m.Embeds) == 0 {
			continue
		}
		if botID != "" && (m.Author == nil || m.Author.ID != botID) {
			continue
		}
		if looksLikeBoard(m) {
			return m.ID, true
		}
	}
	return "", false
}

// PublishOrEditBoardMessage keeps exactly one public board message per
// channel: edit the remembered one, rehydrate from history, or create anew.
// Guarded by a per-channel lock so concurrent refreshes don't double-post.
func PublishOrEditBoardMessage(s *discordgo.Session, channelID string, emb *discordgo.MessageEmbed) error {
	mu := chanLock(channelID)
	mu.Lock()
	defer mu.Unlock()

	if _, ok := getBoardMessageID(channelID); ok {
		return editBoardMessage(s, channelID, emb)
	}
	if id, ok := findExistingBoardMessage(s, channelID); ok {
		logrus.WithField("message_id", id).Debug("board message rehydrated")
		setBoardMessageID(channelID, id)
		return editBoardMessage(s, channelID, emb)
	}
	msg, err := s.ChannelMessageSendEmbed(channelID, emb)
	if err != nil {
		return err
	}
	if msg != nil {
		setBoardMessageID(channelID, msg.ID)
	}
	return nil
}

func editBoardMessage(s *discordgo.Session, channelID string, emb *discordgo.MessageEmbed) error {
	msgID, ok := getBoardMessageID(channelID)
	if !ok {
		return nil
	}
	_, err := s.ChannelMessageEditEmbed(channelID, msgID, emb)
	if err != nil && isUnknownMessage(err) {
		// the board was deleted under us; forget the id and recreate.
		// caller already holds the channel lock, so post directly.
		boardMsgIDs.Delete(channelID)
		msg, sendErr := s.ChannelMessageSendEmbed(channelID, emb)
		if sendErr != nil {
			return sendErr
		}
		if msg != nil {
			setBoardMessageID(channelID, msg.ID)
		}
		return nil
	}
	return err
}

func isUnknownMessage(err error) bool {
	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Message != nil {
		return re.Message.Code == discordgo.ErrCodeUnknownMessage
	}
	return false
}
