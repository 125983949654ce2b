package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Token   string
	AppID   string
	GuildID string

	// Explicit channels
	BoardChannelID string // where the public match board lives
	WaitingRoomID  string // shared voice room participants start from

	AdminRoleIDs []string

	CategoryName string // category that holds the temporary scrim rooms
	RoomCapacity int

	Grace        time.Duration // idle time before an empty room is reclaimed
	SweepEvery   time.Duration // safety-net rescan interval
	MatchTimeout time.Duration // hard cap on a match's lifetime

	DataFile string // flat-file match store

	ReturnToWaitingRoom bool // move leftovers back to the waiting room on end
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Token:               os.Getenv("DISCORD_BOT_TOKEN"),
		AppID:               os.Getenv("DISCORD_APP_ID"),
		GuildID:             os.Getenv("DISCORD_GUILD_ID"),
		BoardChannelID:      os.Getenv("DISCORD_BOARD_CHANNEL_ID"),
		WaitingRoomID:       os.Getenv("DISCORD_WAITING_ROOM_ID"),
		AdminRoleIDs:        splitIDs(os.Getenv("ADMIN_ROLE_IDS")),
		CategoryName:        firstNonEmpty(os.Getenv("SCRIM_CATEGORY_NAME"), "SCRIMS"),
		RoomCapacity:        intEnv("SCRIM_ROOM_CAPACITY", 5),
		Grace:               time.Duration(intEnv("SCRIM_GRACE_SECONDS", 60)) * time.Second,
		SweepEvery:          time.Duration(intEnv("SCRIM_SWEEP_SECONDS", 20)) * time.Second,
		MatchTimeout:        time.Duration(intEnv("SCRIM_MATCH_TIMEOUT_MINUTES", 120)) * time.Minute,
		DataFile:            firstNonEmpty(os.Getenv("SCRIM_DATA_FILE"), "data/matches.json"),
		ReturnToWaitingRoom: boolEnv("SCRIM_RETURN_TO_WAITING_ROOM"),
	}

	if cfg.Token == "" {
		return nil, errors.New("missing DISCORD_BOT_TOKEN")
	}
	if cfg.AppID == "" {
		return nil, errors.New("missing DISCORD_APP_ID")
	}
	if cfg.GuildID == "" {
		return nil, errors.New("missing DISCORD_GUILD_ID")
	}
	if cfg.BoardChannelID == "" {
		return nil, errors.New("missing DISCORD_BOARD_CHANNEL_ID")
	}
	if cfg.WaitingRoomID == "" {
		return nil, errors.New("missing DISCORD_WAITING_ROOM_ID")
	}

	return cfg, nil
}

func firstNonEmpty(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func splitIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func boolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return v == "1" || strings.EqualFold(v, "true")
}

func (c *Config) Redacted() string {
	tok := "[set]"
	if c.Token == "" {
		tok = "[empty]"
	}
	return fmt.Sprintf(
		"appID=%s guildID=%s boardChannelID=%s waitingRoomID=%s category=%q grace=%s sweep=%s timeout=%s dataFile=%s token=%s",
		c.AppID, c.GuildID, c.BoardChannelID, c.WaitingRoomID, c.CategoryName,
		c.Grace, c.SweepEvery, c.MatchTimeout, c.DataFile, tok,
	)
}
