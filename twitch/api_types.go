package twitch

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRequestFailed is matched by every APIError, it marks a non-2xx Helix response.
	ErrRequestFailed = errors.New("twitch: helix request failed")

	// ErrNotFound is returned when Helix answered successfully but the result set was empty.
	ErrNotFound = errors.New("twitch: resource not found")
)

// error response
type (
	APIError struct {
		ErrorText string `json:"error"`
		Status    int    `json:"status"`
		Message   string `json:"message"`
	}
)

func (a APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", a.ErrorText, a.Status, a.Message)
}

func (a APIError) Is(target error) bool {
	return target == ErrRequestFailed
}

type Pagination struct {
	Cursor string `json:"cursor"`
}

// https://dev.twitch.tv/docs/api/reference/#get-users
type (
	UserResponse struct {
		Data []UserData `json:"data"`
	}

	UserData struct {
		ID              string    `json:"id"`
		Login           string    `json:"login"`
		DisplayName     string    `json:"display_name"`
		Type            string    `json:"type"`
		BroadcasterType string    `json:"broadcaster_type"`
		Description     string    `json:"description"`
		ProfileImageURL string    `json:"profile_image_url"`
		OfflineImageURL string    `json:"offline_image_url"`
		ViewCount       int       `json:"view_count"`
		Email           string    `json:"email"`
		CreatedAt       time.Time `json:"created_at"`
	}
)

// https://dev.twitch.tv/docs/api/reference/#get-channel-information
type (
	GetChannelInformationResponse struct {
		Data []ChannelData `json:"data"`
	}

	ChannelData struct {
		BroadcasterID       string   `json:"broadcaster_id"`
		BroadcasterLogin    string   `json:"broadcaster_login"`
		BroadcasterName     string   `json:"broadcaster_name"`
		BroadcasterLanguage string   `json:"broadcaster_language"`
		GameID              string   `json:"game_id"`
		GameName            string   `json:"game_name"`
		Title               string   `json:"title"`
		Delay               int      `json:"delay"`
		Tags                []string `json:"tags"`
		IsBrandedContent    bool     `json:"is_branded_content"`
	}
)

// https://dev.twitch.tv/docs/api/reference/#get-streams
type (
	GetStreamsResponse struct {
		Data       []StreamData `json:"data"`
		Pagination Pagination   `json:"pagination"`
	}

	StreamData struct {
		ID           string    `json:"id"`
		UserID       string    `json:"user_id"`
		UserLogin    string    `json:"user_login"`
		UserName     string    `json:"user_name"`
		GameID       string    `json:"game_id"`
		GameName     string    `json:"game_name"`
		Type         string    `json:"type"`
		Title        string    `json:"title"`
		Tags         []string  `json:"tags"`
		ViewerCount  int       `json:"viewer_count"`
		StartedAt    time.Time `json:"started_at"`
		Language     string    `json:"language"`
		ThumbnailURL string    `json:"thumbnail_url"`
		IsMature     bool      `json:"is_mature"`
	}
)

// https://dev.twitch.tv/docs/authentication/getting-tokens-oauth/#client-credentials-grant-flow
type appTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}
