package catalog

import (
	"context"
	"strings"

	"Playshare/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SongInput is the add/edit song form. Audio is required when adding.
type SongInput struct {
	Title string  `form:"title" validate:"required,max=200"`
	Audio *Upload `form:"audio_file"`
}

func (s *Service) checkSong(in SongInput, audioRequired bool) (string, *storedFile, error) {
	in.Title = strings.TrimSpace(in.Title)
	verr := &ValidationError{}
	s.check(in, verr)

	var audio *storedFile
	switch {
	case in.Audio != nil:
		audio = checkAudio(in.Audio, verr)
	case audioRequired:
		verr.add("audio_file", "This field is required.")
	}
	if err := verr.orNil(); err != nil {
		return "", nil, err
	}
	return in.Title, audio, nil
}

// SongForm loads a song with its playlist and checks the actor may perform action on it.
func (s *Service) SongForm(ctx context.Context, actor *model.User, id int64, action Action) (*model.Song, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	song, err := s.repos.Songs.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load song %d", id)
	}
	if song == nil || song.Playlist == nil {
		return nil, ErrNotFound
	}
	if err := Authorize(actor, song.Playlist.CreatorID, action); err != nil {
		return nil, err
	}
	return song, nil
}

// AddSong uploads the audio file and appends a song to the playlist.
func (s *Service) AddSong(ctx context.Context, actor *model.User, playlistID int64, in SongInput) (*model.Song, error) {
	playlist, err := s.PlaylistForm(ctx, actor, playlistID, ActionAddSong)
	if err != nil {
		return nil, err
	}
	title, audio, err := s.checkSong(in, true)
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, audio); err != nil {
		return nil, err
	}

	song := &model.Song{
		Title:        title,
		AudioFile:    audio.key,
		PlaylistID:   playlist.ID,
		UploadedByID: &actor.ID,
	}
	if err := s.repos.Songs.Create(ctx, song); err != nil {
		s.removeBlob(ctx, audio.key)
		return nil, errors.Wrapf(err, "failed to add song to playlist %d", playlistID)
	}
	return song, nil
}

// UpdateSong changes the title and, when a new file is uploaded, the audio.
func (s *Service) UpdateSong(ctx context.Context, actor *model.User, id int64, in SongInput) (*model.Song, error) {
	song, err := s.SongForm(ctx, actor, id, ActionEditSong)
	if err != nil {
		return nil, err
	}
	title, audio, err := s.checkSong(in, false)
	if err != nil {
		return nil, err
	}

	oldAudio := song.AudioFile
	song.Title = title
	if audio != nil {
		if err := s.put(ctx, audio); err != nil {
			return nil, err
		}
		song.AudioFile = audio.key
	}

	if err := s.repos.Songs.Update(ctx, song); err != nil {
		if audio != nil {
			s.removeBlob(ctx, audio.key)
		}
		return nil, errors.Wrapf(err, "failed to update song %d", id)
	}
	if audio != nil {
		s.removeBlob(ctx, oldAudio)
	}
	return song, nil
}

// DeleteSong removes the song and its file and returns the owning playlist's id.
func (s *Service) DeleteSong(ctx context.Context, actor *model.User, id int64) (int64, error) {
	song, err := s.SongForm(ctx, actor, id, ActionDeleteSong)
	if err != nil {
		return 0, err
	}
	if err := s.repos.Songs.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, errors.Wrapf(err, "failed to delete song %d", id)
	}
	s.removeBlob(ctx, song.AudioFile)
	return song.PlaylistID, nil
}
