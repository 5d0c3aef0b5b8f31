package repository

import (
	"context"
	"errors"
	"fmt"

	"Playshare/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaylistRepository 播放列表数据访问接口
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	// GetByID loads the playlist with creator, tags and songs. (nil, nil) if missing.
	GetByID(ctx context.Context, id int64) (*model.Playlist, error)
	List(ctx context.Context) ([]model.Playlist, error)
	// Update saves title and cover image.
	Update(ctx context.Context, playlist *model.Playlist) error
	AddTags(ctx context.Context, playlistID int64, tags []model.Tag) error
	ReplaceTags(ctx context.Context, playlistID int64, tags []model.Tag) error
	// Delete removes the playlist, its tag links and all of its songs.
	Delete(ctx context.Context, id int64) error

	SearchByTitle(ctx context.Context, q string) ([]model.Playlist, error)
	SearchByTag(ctx context.Context, q string) ([]model.Playlist, error)
	CoverKeys(ctx context.Context) ([]string, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a GORM-backed PlaylistRepository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func orderTagsByName(db *gorm.DB) *gorm.DB {
	return db.Order("tags.name")
}

func orderSongsByID(db *gorm.DB) *gorm.DB {
	return db.Order("songs.id")
}

func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(playlist).Error; err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

func (r *gormPlaylistRepository) GetByID(ctx context.Context, id int64) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Tags", orderTagsByName).
		Preload("Songs", orderSongsByID).
		First(&playlist, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playlist %d: %w", id, err)
	}
	return &playlist, nil
}

func (r *gormPlaylistRepository) List(ctx context.Context) ([]model.Playlist, error) {
	playlists := []model.Playlist{}
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Tags", orderTagsByName).
		Order("created_at DESC").Order("id DESC").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

func (r *gormPlaylistRepository) Update(ctx context.Context, playlist *model.Playlist) error {
	res := r.db.WithContext(ctx).Model(&model.Playlist{}).
		Where("id = ?", playlist.ID).
		Updates(map[string]interface{}{
			"title":       playlist.Title,
			"cover_image": playlist.CoverImage,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update playlist %d: %w", playlist.ID, res.Error)
	}
	return nil
}

func (r *gormPlaylistRepository) AddTags(ctx context.Context, playlistID int64, tags []model.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	links := make([]model.PlaylistTag, 0, len(tags))
	seen := make(map[int64]bool, len(tags))
	for _, tag := range tags {
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		links = append(links, model.PlaylistTag{PlaylistID: playlistID, TagID: tag.ID})
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	if err != nil {
		return fmt.Errorf("failed to tag playlist %d: %w", playlistID, err)
	}
	return nil
}

func (r *gormPlaylistRepository) ReplaceTags(ctx context.Context, playlistID int64, tags []model.Tag) error {
	if err := r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).Delete(&model.PlaylistTag{}).Error; err != nil {
		return fmt.Errorf("failed to clear tags of playlist %d: %w", playlistID, err)
	}
	return r.AddTags(ctx, playlistID, tags)
}

func (r *gormPlaylistRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&model.Song{}).Error; err != nil {
			return fmt.Errorf("failed to delete songs of playlist %d: %w", id, err)
		}
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistTag{}).Error; err != nil {
			return fmt.Errorf("failed to delete tag links of playlist %d: %w", id, err)
		}
		res := tx.Delete(&model.Playlist{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete playlist %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *gormPlaylistRepository) SearchByTitle(ctx context.Context, q string) ([]model.Playlist, error) {
	playlists := []model.Playlist{}
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Tags", orderTagsByName).
		Where("LOWER(title) LIKE ? ESCAPE '"+likeEscape+"'", containsPattern(q)).
		Order("id").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search playlists by title: %w", err)
	}
	return playlists, nil
}

// taggedPlaylistIDs selects ids of playlists having a tag whose name contains q.
func taggedPlaylistIDs(db *gorm.DB, q string) *gorm.DB {
	return db.Model(&model.PlaylistTag{}).
		Select("playlist_tags.playlist_id").
		Joins("JOIN tags ON tags.id = playlist_tags.tag_id").
		Where("LOWER(tags.name) LIKE ? ESCAPE '"+likeEscape+"'", containsPattern(q))
}

func (r *gormPlaylistRepository) SearchByTag(ctx context.Context, q string) ([]model.Playlist, error) {
	playlists := []model.Playlist{}
	db := r.db.WithContext(ctx)
	err := db.
		Preload("Creator").
		Preload("Tags", orderTagsByName).
		Where("id IN (?)", taggedPlaylistIDs(db.Session(&gorm.Session{NewDB: true}), q)).
		Order("id").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search playlists by tag: %w", err)
	}
	return playlists, nil
}

func (r *gormPlaylistRepository) CoverKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&model.Playlist{}).Pluck("cover_image", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list cover images: %w", err)
	}
	return keys, nil
}
