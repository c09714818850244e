package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/zmb3/spotify"

	"tunewave/internal/auth"
	"tunewave/internal/config"
	"tunewave/internal/library"
	"tunewave/internal/storage"
)

// LibraryClient is the slice of the music API the handlers use. It is
// satisfied by library.Client and by test stubs.
type LibraryClient interface {
	TopTracks() (*spotify.FullTrackPage, error)
	TopArtists() (*spotify.FullArtistPage, error)
	Playlists() (*spotify.SimplePlaylistPage, error)
	SavedAlbums() (*spotify.SavedAlbumPage, error)
	Playlist(id spotify.ID) (*spotify.FullPlaylist, error)
	Album(id spotify.ID) (*spotify.FullAlbum, error)
	Artist(id spotify.ID) (*spotify.FullArtist, error)
	ArtistTopTracks(id spotify.ID, country string) ([]spotify.FullTrack, error)
}

// Application holds all the major components of the service.
type Application struct {
	Config        *config.Config
	Logger        zerolog.Logger
	Session       *auth.Session
	Store         *storage.SQLiteStore
	HTTPServer    *http.Server
	MetricsServer *http.Server

	// newLibrary builds the music API client for a bearer token; tests
	// swap it for a stub.
	newLibrary func(token string) LibraryClient
}

// New creates and initializes a new Application instance.
func New(cfg *config.Config, logger zerolog.Logger) (*Application, error) {
	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	manager := auth.NewManager(auth.Config{
		ClientID:    cfg.Spotify.ClientID,
		RedirectURL: cfg.Spotify.RedirectURL,
		Scopes:      cfg.Spotify.Scopes,
	}, store)
	session := auth.NewSession(manager, store, logger)
	session.Resume(context.Background())

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Session: session,
		Store:   store,
		newLibrary: func(token string) LibraryClient {
			return library.New(token)
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", app.handleLogin)
	mux.HandleFunc("GET /callback", app.handleCallback)
	mux.HandleFunc("GET /logout", app.handleLogout)
	mux.Handle("GET /{$}", app.requireAuth(http.HandlerFunc(app.handleIndex)))

	mux.Handle("GET /api/me/top/tracks", app.requireToken(app.handleTopTracks))
	mux.Handle("GET /api/me/top/artists", app.requireToken(app.handleTopArtists))
	mux.Handle("GET /api/me/playlists", app.requireToken(app.handlePlaylists))
	mux.Handle("GET /api/me/albums", app.requireToken(app.handleSavedAlbums))
	mux.Handle("GET /api/playlists/{id}", app.requireToken(app.handlePlaylist))
	mux.Handle("GET /api/albums/{id}", app.requireToken(app.handleAlbum))
	mux.Handle("GET /api/artists/{id}", app.requireToken(app.handleArtist))
	mux.Handle("GET /api/artists/{id}/top-tracks", app.requireToken(app.handleArtistTopTracks))

	app.HTTPServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: mux,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	app.MetricsServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	return app, nil
}

// Start begins serving HTTP and metrics traffic.
func (a *Application) Start(ctx context.Context) error {
	go func() {
		a.Logger.Info().Str("addr", a.MetricsServer.Addr).Msg("starting metrics server")
		if err := a.MetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("metrics server failed")
		}
	}()

	a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("starting HTTP server")
	if err := a.HTTPServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the servers and closes the store.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.Info().Msg("stopping application")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("metrics server shutdown error")
	}
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("failed to close credential store: %w", err)
	}
	return nil
}
