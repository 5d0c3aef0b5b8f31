package catalog

import (
	"context"
	"strings"

	"Playshare/logger"
	"Playshare/model"
	"Playshare/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PlaylistInput is the playlist create/edit form.
type PlaylistInput struct {
	Title   string  `form:"title" validate:"required,max=200"`
	TagIDs  []int64 `form:"tags"`
	NewTags string  `form:"new_tags"`
	// Cover is required on create and optional on edit.
	Cover *Upload `form:"cover_image"`
}

// ListPlaylists returns every playlist, newest first.
func (s *Service) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	playlists, err := s.repos.Playlists.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list playlists")
	}
	return playlists, nil
}

// GetPlaylist loads a playlist with its creator, tags and songs.
func (s *Service) GetPlaylist(ctx context.Context, id int64) (*model.Playlist, error) {
	playlist, err := s.repos.Playlists.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load playlist %d", id)
	}
	if playlist == nil {
		return nil, ErrNotFound
	}
	return playlist, nil
}

// PlaylistForm loads a playlist for a guarded form and checks the actor may perform action.
func (s *Service) PlaylistForm(ctx context.Context, actor *model.User, id int64, action Action) (*model.Playlist, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	playlist, err := s.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, playlist.CreatorID, action); err != nil {
		return nil, err
	}
	return playlist, nil
}

type playlistForm struct {
	title    string
	selected []model.Tag
	newTags  []string
	cover    *storedFile
}

func (s *Service) checkPlaylist(ctx context.Context, in PlaylistInput, coverRequired bool) (*playlistForm, error) {
	in.Title = strings.TrimSpace(in.Title)
	verr := &ValidationError{}
	s.check(in, verr)

	form := &playlistForm{title: in.Title, newTags: ParseTagNames(in.NewTags)}
	checkTagNames(form.newTags, verr)

	selected, err := s.selectedTags(ctx, in.TagIDs, verr)
	if err != nil {
		return nil, err
	}
	form.selected = selected

	switch {
	case in.Cover != nil:
		form.cover = checkCover(in.Cover, verr)
	case coverRequired:
		verr.add("cover_image", "This field is required.")
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return form, nil
}

// CreatePlaylist stores the cover, then creates the playlist with its
// selected and new tags in one transaction.
func (s *Service) CreatePlaylist(ctx context.Context, actor *model.User, in PlaylistInput) (*model.Playlist, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	form, err := s.checkPlaylist(ctx, in, true)
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, form.cover); err != nil {
		return nil, err
	}

	playlist := &model.Playlist{
		Title:      form.title,
		CreatorID:  &actor.ID,
		CoverImage: form.cover.key,
	}
	var createdTags bool
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Playlists.Create(ctx, playlist); err != nil {
			return err
		}
		if err := tx.Playlists.AddTags(ctx, playlist.ID, form.selected); err != nil {
			return err
		}
		resolved, created, err := resolveTags(ctx, tx, form.newTags)
		if err != nil {
			return err
		}
		createdTags = created
		return tx.Playlists.AddTags(ctx, playlist.ID, resolved)
	})
	if err != nil {
		s.removeBlob(ctx, form.cover.key)
		return nil, errors.Wrap(err, "failed to create playlist")
	}
	if createdTags {
		s.invalidateTags(ctx)
	}

	logger.Info("Playlist created",
		logger.Int64("playlistId", playlist.ID),
		logger.Int64("userId", actor.ID))
	return s.GetPlaylist(ctx, playlist.ID)
}

// UpdatePlaylist replaces the title, the cover when a new one is uploaded,
// and the tag set with the selected tags followed by any new tags.
func (s *Service) UpdatePlaylist(ctx context.Context, actor *model.User, id int64, in PlaylistInput) (*model.Playlist, error) {
	playlist, err := s.PlaylistForm(ctx, actor, id, ActionEditPlaylist)
	if err != nil {
		return nil, err
	}
	form, err := s.checkPlaylist(ctx, in, false)
	if err != nil {
		return nil, err
	}

	oldCover := playlist.CoverImage
	playlist.Title = form.title
	if form.cover != nil {
		if err := s.put(ctx, form.cover); err != nil {
			return nil, err
		}
		playlist.CoverImage = form.cover.key
	}

	var createdTags bool
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Playlists.Update(ctx, playlist); err != nil {
			return err
		}
		if err := tx.Playlists.ReplaceTags(ctx, playlist.ID, form.selected); err != nil {
			return err
		}
		resolved, created, err := resolveTags(ctx, tx, form.newTags)
		if err != nil {
			return err
		}
		createdTags = created
		return tx.Playlists.AddTags(ctx, playlist.ID, resolved)
	})
	if err != nil {
		if form.cover != nil {
			s.removeBlob(ctx, form.cover.key)
		}
		return nil, errors.Wrapf(err, "failed to update playlist %d", id)
	}
	if createdTags {
		s.invalidateTags(ctx)
	}
	if form.cover != nil && oldCover != form.cover.key {
		s.removeBlob(ctx, oldCover)
	}

	return s.GetPlaylist(ctx, playlist.ID)
}

// DeletePlaylist removes the playlist and its songs, then their files.
func (s *Service) DeletePlaylist(ctx context.Context, actor *model.User, id int64) error {
	playlist, err := s.PlaylistForm(ctx, actor, id, ActionDeletePlaylist)
	if err != nil {
		return err
	}

	if err := s.repos.Playlists.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "failed to delete playlist %d", id)
	}

	s.removeBlob(ctx, playlist.CoverImage)
	for _, song := range playlist.Songs {
		s.removeBlob(ctx, song.AudioFile)
	}
	logger.Info("Playlist deleted",
		logger.Int64("playlistId", id),
		logger.Int("songs", len(playlist.Songs)))
	return nil
}
