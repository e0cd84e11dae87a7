package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func router(logger zerolog.Logger, api *API) *chi.Mux {
	c := chi.NewMux()

	c.Use(
		middleware.RequestID,
		requestLogger(logger),
		middleware.RequestSize(5*1024),
		middleware.Recoverer,
	)

	c.Route("/internal", func(r chi.Router) {
		r.Get("/health", api.handleGetHealth())
		r.Get("/ready", api.handleGetReady())
	})

	c.Route("/channels", func(r chi.Router) {
		r.Get("/", api.handleGetChannels())
		r.Post("/{name}/join", api.handleJoin())
		r.Post("/{name}/part", api.handlePart())
		r.Post("/{name}/messages", api.handleCreateMessage())
		r.Get("/{name}/log/{user}", api.handleGetChatLog())
	})

	c.Get("/users/{idOrLogin}", api.handleGetUser())
	c.Get("/helix/channels/{id}", api.handleGetChannel())
	c.Get("/streams/{idOrLogin}", api.handleGetStream())

	return c
}
