package catalog

import "Playshare/model"

// Action names a guarded mutation.
type Action int

const (
	ActionEditPlaylist Action = iota
	ActionDeletePlaylist
	ActionAddSong
	ActionEditSong
	ActionDeleteSong
)

var forbiddenMessages = map[Action]string{
	ActionEditPlaylist:   "You cannot edit someone else's playlist.",
	ActionDeletePlaylist: "You cannot delete someone else's playlist.",
	ActionAddSong:        "You cannot add songs to someone else's playlist.",
	ActionEditSong:       "You cannot edit this track.",
	ActionDeleteSong:     "You cannot delete this track.",
}

// Authorize allows the playlist creator and superusers.
// A playlist without a creator can only be changed by a superuser.
func Authorize(actor *model.User, creatorID *int64, action Action) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.IsSuperuser {
		return nil
	}
	if creatorID != nil && *creatorID == actor.ID {
		return nil
	}
	return &ForbiddenError{Msg: forbiddenMessages[action]}
}
