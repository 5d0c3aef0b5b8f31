package model

import (
	"strings"
	"time"
)

// Tag is a case-insensitive label attachable to playlists.
// Name keeps the casing it was first created with; NameKey carries the unique index.
type Tag struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:50;not null"`
	NameKey   string    `json:"-" gorm:"size:50;not null;uniqueIndex:idx_tag_name_key"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// TagKey normalizes a tag name for case-insensitive comparison.
func TagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewTag builds an unsaved tag from user input.
func NewTag(name string) *Tag {
	name = strings.TrimSpace(name)
	return &Tag{Name: name, NameKey: TagKey(name)}
}

// String renders the tag the way it is shown next to playlists.
func (t Tag) String() string {
	return "#" + t.Name
}
