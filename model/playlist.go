package model

import "time"

// Playlist is a titled, tagged collection of songs owned by a user.
// CreatorID is nil once the owning account has been removed.
type Playlist struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title      string    `json:"title" gorm:"size:200;not null"`
	CreatorID  *int64    `json:"creatorId" gorm:"index"`
	Creator    *User     `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	CoverImage string    `json:"coverImage" gorm:"size:255;not null"`
	Tags       []Tag     `json:"tags" gorm:"many2many:playlist_tags"`
	Songs      []Song    `json:"songs,omitempty" gorm:"foreignKey:PlaylistID"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistTag is the join row between playlists and tags.
// The composite primary key keeps a playlist's tag set free of duplicates.
type PlaylistTag struct {
	PlaylistID int64 `gorm:"primaryKey"`
	TagID      int64 `gorm:"primaryKey;index:idx_playlist_tags_tag_id"`
}

// TableName 指定表名
func (PlaylistTag) TableName() string {
	return "playlist_tags"
}

// CreatorName returns the owner's username or "N/A" for orphaned playlists.
func (p *Playlist) CreatorName() string {
	if p.Creator == nil {
		return "N/A"
	}
	return p.Creator.Username
}
