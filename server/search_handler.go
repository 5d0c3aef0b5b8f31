package server

import (
	"net/http"

	"Playshare/core/catalog"
)

// SearchHandler runs the four-way title and tag search for ?q=.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render(w, r, "search_results", map[string]interface{}{
		"query":            results.Query,
		"playlistsByTitle": toPlaylistDTOs(results.PlaylistsByTitle),
		"playlistsByTag":   toPlaylistDTOs(results.PlaylistsByTag),
		"songsByTitle":     toSongDTOs(results.SongsByTitle),
		"songsByTag":       toSongDTOs(results.SongsByTag),
	})
}

// SearchTagsHandler serves the tag select widget. The widget sends ?term=,
// ?q= is accepted as well.
func (h *APIHandler) SearchTagsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	term := query.Get("term")
	if term == "" {
		term = query.Get("q")
	}

	options, err := h.svc.SearchTags(r.Context(), term)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]catalog.TagOption{"results": options})
}
