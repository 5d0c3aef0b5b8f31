package repository

import (
	"context"
	"errors"
	"fmt"

	"Playshare/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository is the tag store: unique names, case-insensitive lookup and creation.
type TagRepository interface {
	// GetOrCreate finds the tag whose name equals name ignoring case, or creates it
	// with name's casing. created reports whether a new row was inserted.
	GetOrCreate(ctx context.Context, name string) (tag *model.Tag, created bool, err error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Tag, error)
	// Search lists tags ordered by name; a non-empty term keeps only names containing it.
	Search(ctx context.Context, term string) ([]model.Tag, error)
}

type gormTagRepository struct {
	db *gorm.DB
}

// NewGormTagRepository creates a GORM-backed TagRepository.
func NewGormTagRepository(db *gorm.DB) TagRepository {
	return &gormTagRepository{db: db}
}

func (r *gormTagRepository) findByKey(ctx context.Context, key string, locking ...clause.Expression) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.WithContext(ctx).Clauses(locking...).Where("name_key = ?", key).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

func (r *gormTagRepository) GetOrCreate(ctx context.Context, name string) (*model.Tag, bool, error) {
	candidate := model.NewTag(name)
	if candidate.NameKey == "" {
		return nil, false, fmt.Errorf("empty tag name")
	}

	existing, err := r.findByKey(ctx, candidate.NameKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(candidate)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create tag %q: %w", name, res.Error)
	}
	if res.RowsAffected == 1 && candidate.ID != 0 {
		return candidate, true, nil
	}

	// Lost the race to a concurrent insert. A locking read sees the committed
	// row even from inside a REPEATABLE READ transaction whose snapshot predates it.
	existing, err = r.findByKey(ctx, candidate.NameKey, clause.Locking{Strength: "SHARE"})
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload tag %q: %w", name, err)
	}
	if existing == nil {
		return nil, false, fmt.Errorf("tag %q vanished after conflicting insert", name)
	}
	return existing, false, nil
}

func (r *gormTagRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Tag, error) {
	tags := []model.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to get tags by id: %w", err)
	}
	return tags, nil
}

func (r *gormTagRepository) Search(ctx context.Context, term string) ([]model.Tag, error) {
	tags := []model.Tag{}
	q := r.db.WithContext(ctx).Model(&model.Tag{})
	if term != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '"+likeEscape+"'", containsPattern(term))
	}
	if err := q.Order("name").Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to search tags: %w", err)
	}
	return tags, nil
}
