// Package library is a thin wrapper over the Spotify Web API for the pages
// the application serves: top tracks and artists, playlists, saved albums.
// It treats response shapes as opaque and only inspects errors far enough to
// recognize a rejected token, which callers report back to the session.
package library

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

// ErrUnauthorized reports that the music API rejected the bearer token. The
// caller is expected to signal the session so the token gets cleared.
var ErrUnauthorized = errors.New("access token rejected")

// Client calls the Spotify Web API with a fixed bearer token.
type Client struct {
	api spotify.Client
}

// New builds a client that authenticates with the given access token.
func New(token string) *Client {
	api := spotify.Authenticator{}.NewClient(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
	return &Client{api: api}
}

// TopTracks returns the user's most played tracks.
func (c *Client) TopTracks() (*spotify.FullTrackPage, error) {
	page, err := c.api.CurrentUsersTopTracks()
	return page, wrap(err)
}

// TopArtists returns the user's most played artists.
func (c *Client) TopArtists() (*spotify.FullArtistPage, error) {
	page, err := c.api.CurrentUsersTopArtists()
	return page, wrap(err)
}

// Playlists returns the user's playlists.
func (c *Client) Playlists() (*spotify.SimplePlaylistPage, error) {
	page, err := c.api.CurrentUsersPlaylists()
	return page, wrap(err)
}

// SavedAlbums returns the albums saved in the user's library.
func (c *Client) SavedAlbums() (*spotify.SavedAlbumPage, error) {
	page, err := c.api.CurrentUsersAlbums()
	return page, wrap(err)
}

// Playlist returns a single playlist with its tracks.
func (c *Client) Playlist(id spotify.ID) (*spotify.FullPlaylist, error) {
	playlist, err := c.api.GetPlaylist(id)
	return playlist, wrap(err)
}

// Album returns a single album with its tracks.
func (c *Client) Album(id spotify.ID) (*spotify.FullAlbum, error) {
	album, err := c.api.GetAlbum(id)
	return album, wrap(err)
}

// Artist returns a single artist.
func (c *Client) Artist(id spotify.ID) (*spotify.FullArtist, error) {
	artist, err := c.api.GetArtist(id)
	return artist, wrap(err)
}

// ArtistTopTracks returns an artist's top tracks for a country code.
func (c *Client) ArtistTopTracks(id spotify.ID, country string) ([]spotify.FullTrack, error) {
	tracks, err := c.api.GetArtistsTopTracks(id, country)
	return tracks, wrap(err)
}

// wrap maps a 401 from the API onto ErrUnauthorized and leaves every other
// error unchanged.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}
