package catalog

import (
	"context"
	"strings"

	"Playshare/model"

	"github.com/pkg/errors"
)

// SearchResults holds the four independent result sets of a search.
// The slices are never nil.
type SearchResults struct {
	Query            string           `json:"query"`
	PlaylistsByTitle []model.Playlist `json:"playlistsByTitle"`
	PlaylistsByTag   []model.Playlist `json:"playlistsByTag"`
	SongsByTitle     []model.Song     `json:"songsByTitle"`
	SongsByTag       []model.Song     `json:"songsByTag"`
}

func emptyResults(q string) *SearchResults {
	return &SearchResults{
		Query:            q,
		PlaylistsByTitle: []model.Playlist{},
		PlaylistsByTag:   []model.Playlist{},
		SongsByTitle:     []model.Song{},
		SongsByTag:       []model.Song{},
	}
}

// Search matches q as a case-insensitive substring against playlist titles,
// tag names, song titles and the tags of each song's playlist.
// A blank q yields four empty sets.
func (s *Service) Search(ctx context.Context, q string) (*SearchResults, error) {
	q = strings.TrimSpace(q)
	results := emptyResults(q)
	if q == "" {
		return results, nil
	}

	var err error
	if results.PlaylistsByTitle, err = s.repos.Playlists.SearchByTitle(ctx, q); err != nil {
		return nil, errors.Wrap(err, "search playlists by title")
	}
	if results.PlaylistsByTag, err = s.repos.Playlists.SearchByTag(ctx, q); err != nil {
		return nil, errors.Wrap(err, "search playlists by tag")
	}
	if results.SongsByTitle, err = s.repos.Songs.SearchByTitle(ctx, q); err != nil {
		return nil, errors.Wrap(err, "search songs by title")
	}
	if results.SongsByTag, err = s.repos.Songs.SearchByPlaylistTag(ctx, q); err != nil {
		return nil, errors.Wrap(err, "search songs by tag")
	}
	return results, nil
}
