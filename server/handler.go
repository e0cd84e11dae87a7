package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/julez-dev/chatbridge/twitch"
	"github.com/julez-dev/chatbridge/twitch/twitchirc"
)

type ChannelsResponse struct {
	Nickname string   `json:"nickname"`
	Alive    bool     `json:"alive"`
	Channels []string `json:"channels"`
}

type CreateMessageRequest struct {
	Content string `json:"content"`
	ReplyTo string `json:"reply_to"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

var errChatLogDisabled = errors.New("chat log is disabled")

func (a *API) handleGetHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "UP")
	}
}

// handleGetReady reports whether the IRC connection is up.
func (a *API) handleGetReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.chat.IsAlive() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprint(w, "DOWN")
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "UP")
	}
}

func (a *API) handleGetChannels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channels := a.chat.JoinedChannels()
		if channels == nil {
			channels = []string{}
		}

		a.writeJSON(w, r, http.StatusOK, ChannelsResponse{
			Nickname: a.chat.Nickname(),
			Alive:    a.chat.IsAlive(),
			Channels: channels,
		})
	}
}

func (a *API) handleJoin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.chat.Join(r.Context(), chi.URLParam(r, "name")); err != nil {
			a.writeError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

func (a *API) handlePart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.chat.Part(r.Context(), chi.URLParam(r, "name")); err != nil {
			a.writeError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

func (a *API) handleCreateMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
			return
		}

		if strings.TrimSpace(req.Content) == "" {
			a.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "content is required"})
			return
		}

		msg, err := a.chat.CreateMessage(r.Context(), chi.URLParam(r, "name"), req.Content, req.ReplyTo)
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		a.writeJSON(w, r, http.StatusCreated, msg)
	}
}

func (a *API) handleGetChatLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.chatLog == nil {
			a.writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: errChatLogDisabled.Error()})
			return
		}

		entries, err := a.chatLog.MessagesFromUserInChannel(chi.URLParam(r, "user"), chi.URLParam(r, "name"))
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		a.writeJSON(w, r, http.StatusOK, entries)
	}
}

func (a *API) handleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.chat.FetchUser(r.Context(), chi.URLParam(r, "idOrLogin"))
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		a.writeJSON(w, r, http.StatusOK, user)
	}
}

func (a *API) handleGetChannel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel, err := a.chat.FetchChannel(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		a.writeJSON(w, r, http.StatusOK, channel)
	}
}

func (a *API) handleGetStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stream, err := a.chat.FetchStream(r.Context(), chi.URLParam(r, "idOrLogin"))
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		a.writeJSON(w, r, http.StatusOK, stream)
	}
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, twitchirc.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, twitchirc.ErrNotConnected), errors.Is(err, twitchirc.ErrNotJoined):
		return http.StatusConflict
	case errors.Is(err, twitch.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, twitch.ErrRequestFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)

	if status == http.StatusInternalServerError {
		logger := a.getLoggerFrom(r.Context())
		logger.Err(err).Msg("request failed")
	}

	a.writeJSON(w, r, status, ErrorResponse{Error: err.Error()})
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := a.getLoggerFrom(r.Context())
		logger.Err(err).Msg("could not encode response")
	}
}
