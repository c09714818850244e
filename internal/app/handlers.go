package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zmb3/spotify"

	"tunewave/internal/library"
	"tunewave/internal/metrics"
)

//
// Authentication handlers
//

// handleLogin starts a fresh authorization attempt and redirects the browser
// to the accounts service.
func (a *Application) handleLogin(w http.ResponseWriter, r *http.Request) {
	if a.Session.Token(r.Context()) != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	authURL, err := a.Session.Login(r.Context())
	if err != nil {
		http.Error(w, "Cannot start login", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// handleCallback consumes the one-time code delivered on the redirect back.
// It always answers with a redirect to a code-free location, success or
// failure, so a reload or back-navigation never re-submits a consumed code.
func (a *Application) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		// Denied consent or a stray visit; nothing to exchange.
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if _, err := a.Session.HandleCallback(r.Context(), code); err != nil {
		a.Logger.Warn().Err(err).Msg("authorization callback failed")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout clears the session and sends the browser back to login.
func (a *Application) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.Session.Logout(r.Context()); err != nil {
		a.Logger.Error().Err(err).Msg("logout failed")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

//
// Library handlers
//

// handleIndex confirms the session and points at the library endpoints.
func (a *Application) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "logged_in",
		"endpoints": []string{
			"/api/me/top/tracks",
			"/api/me/top/artists",
			"/api/me/playlists",
			"/api/me/albums",
		},
	})
}

func (a *Application) handleTopTracks(w http.ResponseWriter, r *http.Request) {
	a.serveLibrary(w, r, "top_tracks", func(lib LibraryClient) (interface{}, error) {
		return lib.TopTracks()
	})
}

func (a *Application) handleTopArtists(w http.ResponseWriter, r *http.Request) {
	a.serveLibrary(w, r, "top_artists", func(lib LibraryClient) (interface{}, error) {
		return lib.TopArtists()
	})
}

func (a *Application) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	a.serveLibrary(w, r, "playlists", func(lib LibraryClient) (interface{}, error) {
		return lib.Playlists()
	})
}

func (a *Application) handleSavedAlbums(w http.ResponseWriter, r *http.Request) {
	a.serveLibrary(w, r, "albums", func(lib LibraryClient) (interface{}, error) {
		return lib.SavedAlbums()
	})
}

func (a *Application) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	id := spotify.ID(r.PathValue("id"))
	a.serveLibrary(w, r, "playlist", func(lib LibraryClient) (interface{}, error) {
		return lib.Playlist(id)
	})
}

func (a *Application) handleAlbum(w http.ResponseWriter, r *http.Request) {
	id := spotify.ID(r.PathValue("id"))
	a.serveLibrary(w, r, "album", func(lib LibraryClient) (interface{}, error) {
		return lib.Album(id)
	})
}

func (a *Application) handleArtist(w http.ResponseWriter, r *http.Request) {
	id := spotify.ID(r.PathValue("id"))
	a.serveLibrary(w, r, "artist", func(lib LibraryClient) (interface{}, error) {
		return lib.Artist(id)
	})
}

func (a *Application) handleArtistTopTracks(w http.ResponseWriter, r *http.Request) {
	id := spotify.ID(r.PathValue("id"))
	country := r.URL.Query().Get("country")
	if country == "" {
		country = "US"
	}
	a.serveLibrary(w, r, "artist_top_tracks", func(lib LibraryClient) (interface{}, error) {
		return lib.ArtistTopTracks(id, country)
	})
}

// serveLibrary performs one music API request with the current token. A 401
// from the API is the downstream authentication-failure signal: the session
// gets invalidated and the caller is told to log in again.
func (a *Application) serveLibrary(w http.ResponseWriter, r *http.Request, endpoint string, fetch func(LibraryClient) (interface{}, error)) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in"})
		return
	}

	result, err := fetch(a.newLibrary(token))
	if err != nil {
		if errors.Is(err, library.ErrUnauthorized) {
			metrics.LibraryRequests.WithLabelValues(endpoint, "unauthorized").Inc()
			if invErr := a.Session.Invalidate(r.Context()); invErr != nil {
				a.Logger.Error().Err(invErr).Msg("failed to invalidate session")
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session expired, log in again"})
			return
		}
		metrics.LibraryRequests.WithLabelValues(endpoint, "error").Inc()
		a.Logger.Error().Err(err).Str("endpoint", endpoint).Msg("library request failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "music service request failed"})
		return
	}

	metrics.LibraryRequests.WithLabelValues(endpoint, "success").Inc()
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
