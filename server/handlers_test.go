package server

import (
	"testing"

	"Playshare/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyDTO(t *testing.T) {
	var out UserDTO
	require.True(t, copyDTO(&out, &model.User{ID: 7, Username: "alice", IsSuperuser: true}))
	assert.Equal(t, UserDTO{ID: 7, Username: "alice", IsSuperuser: true}, out)

	// A non-pointer destination cannot be filled.
	assert.False(t, copyDTO(UserDTO{}, &model.User{ID: 7}))
}

func TestToPlaylistDTO_DerivedFields(t *testing.T) {
	p := &model.Playlist{
		ID:         3,
		Title:      "Mix",
		CoverImage: "playlist_covers/a.png",
		Tags:       []model.Tag{{ID: 1, Name: "Rock"}},
	}

	dto := toPlaylistDTO(p)
	assert.Equal(t, int64(3), dto.ID)
	assert.Equal(t, "N/A", dto.CreatorName)
	assert.Equal(t, "/media/playlist_covers/a.png", dto.CoverURL)
	require.Len(t, dto.Tags, 1)
	assert.Equal(t, "#Rock", dto.Tags[0].Label)
	assert.Nil(t, dto.Songs)
}
