package server

import (
	"net/http"

	"Playshare/core/catalog"
)

func (h *APIHandler) songInput(w http.ResponseWriter, r *http.Request) (catalog.SongInput, func(), error) {
	noop := func() {}
	if err := h.parseForm(w, r); err != nil {
		return catalog.SongInput{}, noop, err
	}
	audio, file, err := formFile(r, "audio_file")
	if err != nil {
		return catalog.SongInput{}, noop, err
	}
	closer := noop
	if file != nil {
		closer = func() { _ = file.Close() }
	}
	return catalog.SongInput{Title: r.FormValue("title"), Audio: audio}, closer, nil
}

// AddSongHandler shows the song form on GET and uploads on POST.
func (h *APIHandler) AddSongHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, catalog.ErrNotFound)
		return
	}
	actor := UserFromContext(r.Context())

	playlist, err := h.svc.PlaylistForm(r.Context(), actor, id, catalog.ActionAddSong)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.Method == http.MethodGet {
		render(w, r, "song_form", map[string]interface{}{"playlist": toPlaylistDTO(playlist)})
		return
	}

	in, closeFile, err := h.songInput(w, r)
	defer closeFile()
	if err != nil {
		h.writeFormError(w, r, err)
		return
	}
	song, err := h.svc.AddSong(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"song":     toSongDTO(song),
		"redirect": playlistPath(id),
	})
}

// EditSongHandler shows the edit form on GET and saves on POST.
func (h *APIHandler) EditSongHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, catalog.ErrNotFound)
		return
	}
	actor := UserFromContext(r.Context())

	song, err := h.svc.SongForm(r.Context(), actor, id, catalog.ActionEditSong)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.Method == http.MethodGet {
		render(w, r, "song_edit_form", map[string]interface{}{"song": toSongDTO(song)})
		return
	}

	in, closeFile, err := h.songInput(w, r)
	defer closeFile()
	if err != nil {
		h.writeFormError(w, r, err)
		return
	}
	updated, err := h.svc.UpdateSong(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"song":     toSongDTO(updated),
		"redirect": playlistPath(updated.PlaylistID),
	})
}

// DeleteSongHandler shows the confirmation on GET and deletes on POST.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, catalog.ErrNotFound)
		return
	}
	actor := UserFromContext(r.Context())

	if r.Method == http.MethodGet {
		song, err := h.svc.SongForm(r.Context(), actor, id, catalog.ActionDeleteSong)
		if err != nil {
			writeError(w, r, err)
			return
		}
		render(w, r, "song_confirm_delete", map[string]interface{}{"song": toSongDTO(song)})
		return
	}

	playlistID, err := h.svc.DeleteSong(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": playlistPath(playlistID)})
}
