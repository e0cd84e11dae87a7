package save

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/julez-dev/chatbridge/twitch"
	"github.com/julez-dev/chatbridge/twitch/twitchirc"
)

const (
	settingsFileName = "settings.yaml"

	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

type Settings struct {
	IRC     IRCSettings     `yaml:"irc"`
	Helix   HelixSettings   `yaml:"helix"`
	ChatLog ChatLogSettings `yaml:"chat_log"`
	Redis   RedisSettings   `yaml:"redis"`
	Server  ServerSettings  `yaml:"server"`
	Debug   DebugSettings   `yaml:"debug"`
}

type IRCSettings struct {
	Transport         string        `yaml:"transport"`
	Address           string        `yaml:"address"`
	WebSocketURL      string        `yaml:"websocket_url"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	RejoinOnReconnect bool          `yaml:"rejoin_on_reconnect"`
	Channels          []string      `yaml:"channels"`
}

type HelixSettings struct {
	ClientID string `yaml:"client_id"`
	BaseURL  string `yaml:"base_url"`
	TokenURL string `yaml:"token_url"`
}

type ChatLogSettings struct {
	Enabled         bool     `yaml:"enabled"`
	IncludeChannels []string `yaml:"include_channels"`
	ExcludeChannels []string `yaml:"exclude_channels"`
}

type RedisSettings struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

type ServerSettings struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type DebugSettings struct {
	TracePayloads bool `yaml:"trace_payloads"`
}

func BuildDefaultSettings() Settings {
	return Settings{
		IRC: IRCSettings{
			Transport:         TransportTCP,
			Address:           twitchirc.DefaultAddress,
			WebSocketURL:      twitchirc.DefaultIRCWSURL,
			ReadTimeout:       twitchirc.DefaultReadTimeout,
			ReconnectDelay:    twitchirc.DefaultReconnectDelay,
			RejoinOnReconnect: true,
		},
		Helix: HelixSettings{
			BaseURL:  twitch.DefaultBaseURL,
			TokenURL: twitch.DefaultTokenURL,
		},
		Redis: RedisSettings{
			Addr:          "localhost:6379",
			ChannelPrefix: "chatbridge",
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8080",
		},
	}
}

func (s Settings) validate() error {
	if !slices.Contains([]string{TransportTCP, TransportWebSocket}, s.IRC.Transport) {
		return fmt.Errorf("irc.transport must be one of %q or %q, got %q", TransportTCP, TransportWebSocket, s.IRC.Transport)
	}

	if s.IRC.ReadTimeout < 0 || s.IRC.ReconnectDelay < 0 {
		return fmt.Errorf("irc.read_timeout and irc.reconnect_delay can't be negative")
	}

	if slices.Contains(s.IRC.Channels, "") {
		return fmt.Errorf("irc.channels entry can't be empty string")
	}

	if len(s.ChatLog.ExcludeChannels) > 0 && len(s.ChatLog.IncludeChannels) > 0 {
		return fmt.Errorf("cant't have both of include_channels and exclude_channels in settings.chat_log")
	}

	if s.Redis.Enabled && s.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	if s.Server.Enabled && s.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when the server is enabled")
	}

	return nil
}

// SettingsFromDisk reads settings.yaml from dir. A missing or empty file yields the defaults.
func SettingsFromDisk(fs afero.Fs, dir string) (Settings, error) {
	f, err := openCreateFile(fs, dir, settingsFileName)
	if err != nil {
		return Settings{}, err
	}

	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return Settings{}, err
	}

	if stat.Size() == 0 {
		return BuildDefaultSettings(), nil
	}

	b, err := io.ReadAll(f)
	if err != nil {
		return Settings{}, err
	}

	settings := BuildDefaultSettings()

	if err := yaml.Unmarshal(b, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse %s: %w", settingsFileName, err)
	}

	if err := settings.validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}
