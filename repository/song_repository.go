package repository

import (
	"context"
	"errors"
	"fmt"

	"Playshare/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SongRepository 歌曲数据访问接口
type SongRepository interface {
	Create(ctx context.Context, song *model.Song) error
	// GetByID loads the song with its playlist. (nil, nil) if missing.
	GetByID(ctx context.Context, id int64) (*model.Song, error)
	// Update saves title and audio file.
	Update(ctx context.Context, song *model.Song) error
	Delete(ctx context.Context, id int64) error

	SearchByTitle(ctx context.Context, q string) ([]model.Song, error)
	SearchByPlaylistTag(ctx context.Context, q string) ([]model.Song, error)
	AudioKeys(ctx context.Context) ([]string, error)
}

type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a GORM-backed SongRepository.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

func (r *gormSongRepository) Create(ctx context.Context, song *model.Song) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(song).Error; err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}
	return nil
}

func (r *gormSongRepository) GetByID(ctx context.Context, id int64) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).Preload("Playlist").First(&song, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get song %d: %w", id, err)
	}
	return &song, nil
}

func (r *gormSongRepository) Update(ctx context.Context, song *model.Song) error {
	res := r.db.WithContext(ctx).Model(&model.Song{}).
		Where("id = ?", song.ID).
		Updates(map[string]interface{}{
			"title":      song.Title,
			"audio_file": song.AudioFile,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update song %d: %w", song.ID, res.Error)
	}
	return nil
}

func (r *gormSongRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Song{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete song %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormSongRepository) SearchByTitle(ctx context.Context, q string) ([]model.Song, error) {
	songs := []model.Song{}
	err := r.db.WithContext(ctx).
		Preload("Playlist").
		Where("LOWER(title) LIKE ? ESCAPE '"+likeEscape+"'", containsPattern(q)).
		Order("id").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search songs by title: %w", err)
	}
	return songs, nil
}

func (r *gormSongRepository) SearchByPlaylistTag(ctx context.Context, q string) ([]model.Song, error) {
	songs := []model.Song{}
	db := r.db.WithContext(ctx)
	err := db.
		Preload("Playlist").
		Where("playlist_id IN (?)", taggedPlaylistIDs(db.Session(&gorm.Session{NewDB: true}), q)).
		Order("id").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search songs by playlist tag: %w", err)
	}
	return songs, nil
}

func (r *gormSongRepository) AudioKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&model.Song{}).Pluck("audio_file", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list audio files: %w", err)
	}
	return keys, nil
}
