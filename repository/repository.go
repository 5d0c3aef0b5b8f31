package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Repositories groups the repositories that share one database handle.
type Repositories struct {
	db        *gorm.DB
	Users     UserRepository
	Tags      TagRepository
	Playlists PlaylistRepository
	Songs     SongRepository
}

// NewRepositories builds the GORM-backed repositories over db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:        db,
		Users:     NewGormUserRepository(db),
		Tags:      NewGormTagRepository(db),
		Playlists: NewGormPlaylistRepository(db),
		Songs:     NewGormSongRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

const likeEscape = "!"

var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern turns q into a lower-cased LIKE pattern matching any
// string that contains q. Use it with "LOWER(col) LIKE ? ESCAPE '!'".
func containsPattern(q string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(q)) + "%"
}
