/* server.go
 * Read-only HTTP surface over the live tournament directory: a health
 * endpoint plus JSON standings, for overlays and external scoreboards.
 */

package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/registry"
	"tourney-bot/tourney/rules"
)

// Config holds the configuration for the web server.
type Config struct {
	Addr   string
	Dir    *registry.Directory
	Logger *slog.Logger
}

// Server is the HTTP server exposing tournament state.
type Server struct {
	dir    *registry.Directory
	logger *slog.Logger
}

// NewServer builds the server and its router.
func NewServer(cfg Config) (*Server, http.Handler) {
	s := &Server{dir: cfg.Dir, logger: cfg.Logger}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/guilds/{guildID}/tournaments", s.handleTournaments)
	r.Get("/guilds/{guildID}/tournaments/{name}/standings", s.handleStandings)
	return s, r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config) error {
	_, handler := NewServer(cfg)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	cfg.Logger.Info("http server listening", slog.String("addr", cfg.Addr))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tournamentSummary is the list-endpoint shape.
type tournamentSummary struct {
	Name          string            `json:"name"`
	Status        rules.TournStatus `json:"status"`
	ActivePlayers int               `json:"active_players"`
}

func (s *Server) handleTournaments(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	summaries := []tournamentSummary{}
	for _, id := range s.dir.GuildTournaments(guildID) {
		_ = s.dir.With(id, func(g *coordinator.GuildTournament) error {
			summaries = append(summaries, tournamentSummary{
				Name:          g.Tourn.Name,
				Status:        g.Tourn.Status,
				ActivePlayers: g.Tourn.ActivePlayerCount(),
			})
			return nil
		})
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	name := chi.URLParam(r, "name")
	id, err := s.dir.ResolveName(guildID, name)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "tournament not found"})
		return
	}
	// ResolveName applies the chat shortcut that picks a guild's sole
	// tournament whatever was typed; a URL must name the right one.
	var standings []rules.Standing
	found := false
	err = s.dir.With(id, func(g *coordinator.GuildTournament) error {
		if !strings.EqualFold(g.Tourn.Name, name) {
			return nil
		}
		found = true
		standings = g.Tourn.Standings()
		return nil
	})
	if err != nil || !found {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "tournament not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, standings)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", slog.Any("error", err))
	}
}
