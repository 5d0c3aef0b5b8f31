package server

import (
	"net/http"

	"Playshare/core/catalog"
)

// HomeHandler lists every playlist, newest first.
func (h *APIHandler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.svc.ListPlaylists(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render(w, r, "home", map[string]interface{}{"playlists": toPlaylistDTOs(playlists)})
}

// PlaylistDetailHandler shows a playlist with its tags and songs.
func (h *APIHandler) PlaylistDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, catalog.ErrNotFound)
		return
	}
	playlist, err := h.svc.GetPlaylist(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render(w, r, "playlist_detail", map[string]interface{}{"playlist": toPlaylistDTO(playlist)})
}

// playlistInput reads the playlist form. The returned func closes the uploaded file.
func (h *APIHandler) playlistInput(w http.ResponseWriter, r *http.Request) (catalog.PlaylistInput, func(), error) {
	noop := func() {}
	if err := h.parseForm(w, r); err != nil {
		return catalog.PlaylistInput{}, noop, err
	}
	tagIDs, err := formIDs(r, "tags")
	if err != nil {
		return catalog.PlaylistInput{}, noop, err
	}
	cover, file, err := formFile(r, "cover_image")
	if err != nil {
		return catalog.PlaylistInput{}, noop, err
	}
	closer := noop
	if file != nil {
		closer = func() { _ = file.Close() }
	}
	return catalog.PlaylistInput{
		Title:   r.FormValue("title"),
		TagIDs:  tagIDs,
		NewTags: r.FormValue("new_tags"),
		Cover:   cover,
	}, closer, nil
}

// CreatePlaylistHandler shows the empty form on GET and creates on POST.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		render(w, r, "playlist_form", map[string]interface{}{"title": "Create playlist", "playlist": nil})
		return
	}

	in, closeFile, err := h.playlistInput(w, r)
	defer closeFile()
	if err != nil {
		h.writeFormError(w, r, err)
		return
	}
	playlist, err := h.svc.CreatePlaylist(r.Context(), UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"playlist": toPlaylistDTO(playlist),
		"redirect": playlistPath(playlist.ID),
	})
}

// EditPlaylistHandler shows the filled form on GET and saves on POST.
func (h *APIHandler) EditPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, catalog.ErrNotFound)
		return
	}
	actor := UserFromContext(r.Context())

	if r.Method == http.MethodGet {
		playlist, err := h.svc.PlaylistForm(r.Context(), actor, id, catalog.ActionEditPlaylist)
		if err != nil {
			writeError(w, r, err)
			return
		}
		render(w, r, "playlist_form", map[string]interface{}{"title": "Edit playlist", "playlist": toPlaylistDTO(playlist)})
		return
	}

	// Check ownership before reading a potentially large body.
	if _, err := h.svc.PlaylistForm(r.Context(), actor, id, catalog.ActionEditPlaylist); err != nil {
		writeError(w, r, err)
		return
	}
	in, closeFile, err := h.playlistInput(w, r)
	defer closeFile()
	if err != nil {
		h.writeFormError(w, r, err)
		return
	}
	playlist, err := h.svc.UpdatePlaylist(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playlist": toPlaylistDTO(playlist),
		"redirect": playlistPath(playlist.ID),
	})
}

// DeletePlaylistHandler shows the confirmation on GET and deletes on POST.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, catalog.ErrNotFound)
		return
	}
	actor := UserFromContext(r.Context())

	if r.Method == http.MethodGet {
		playlist, err := h.svc.PlaylistForm(r.Context(), actor, id, catalog.ActionDeletePlaylist)
		if err != nil {
			writeError(w, r, err)
			return
		}
		render(w, r, "playlist_confirm_delete", map[string]interface{}{"playlist": toPlaylistDTO(playlist)})
		return
	}

	if err := h.svc.DeletePlaylist(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": "/"})
}
