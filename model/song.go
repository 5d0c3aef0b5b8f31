package model

import "time"

// Song is an audio file entry belonging to exactly one playlist.
type Song struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title        string    `json:"title" gorm:"size:200;not null"`
	AudioFile    string    `json:"audioFile" gorm:"size:255;not null"`
	PlaylistID   int64     `json:"playlistId" gorm:"index;not null"`
	Playlist     *Playlist `json:"playlist,omitempty" gorm:"foreignKey:PlaylistID"`
	UploadedByID *int64    `json:"uploadedById" gorm:"index"`
	UploadedBy   *User     `json:"uploadedBy,omitempty" gorm:"foreignKey:UploadedByID"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Song) TableName() string {
	return "songs"
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Tag{}, &Playlist{}, &PlaylistTag{}, &Song{}}
}
