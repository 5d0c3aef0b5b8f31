package catalog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"Playshare/cache"
	"Playshare/db/dbtest"
	"Playshare/model"
	"Playshare/repository"
	"Playshare/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc   *Service
	repos *repository.Repositories
	db    *gorm.DB
	blobs *storage.MemoryStore
	tags  *cache.TagCache
}

func newFixture(t *testing.T) *fixture {
	gdb := dbtest.New(t)
	repos := repository.NewRepositories(gdb)
	blobs := storage.NewMemoryStore()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	tags := cache.NewTagCache(client, time.Minute)

	return &fixture{
		svc:   NewService(repos, blobs, tags),
		repos: repos,
		db:    gdb,
		blobs: blobs,
		tags:  tags,
	}
}

func pngUpload(t *testing.T) *Upload {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &Upload{Filename: "cover.png", Reader: &buf}
}

func wavUpload() *Upload {
	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x44\xac\x00\x00\x88\x58\x01\x00\x02\x00\x10\x00data\x00\x00\x00\x00")
	return &Upload{Filename: "track.wav", Reader: bytes.NewReader(header)}
}

func (f *fixture) user(t *testing.T, name string, superuser bool) *model.User {
	u := &model.User{Username: name, PasswordHash: "x", IsSuperuser: superuser}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) playlist(t *testing.T, owner *model.User, title, newTags string) *model.Playlist {
	p, err := f.svc.CreatePlaylist(context.Background(), owner, PlaylistInput{
		Title:   title,
		NewTags: newTags,
		Cover:   pngUpload(t),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) song(t *testing.T, owner *model.User, playlistID int64, title string) *model.Song {
	s, err := f.svc.AddSong(context.Background(), owner, playlistID, SongInput{Title: title, Audio: wavUpload()})
	require.NoError(t, err)
	return s
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

func TestParseTagNames(t *testing.T) {
	assert.Equal(t, []string{"Rock", "rock", "80s"}, ParseTagNames(" Rock, rock ,,80s, "))
	assert.Nil(t, ParseTagNames(""))
	assert.Nil(t, ParseTagNames(" , ,"))
}

func TestAuthorize(t *testing.T) {
	owner := &model.User{ID: 1}
	other := &model.User{ID: 2}
	admin := &model.User{ID: 3, IsSuperuser: true}
	ownerID := owner.ID

	assert.NoError(t, Authorize(owner, &ownerID, ActionEditPlaylist))
	assert.NoError(t, Authorize(admin, &ownerID, ActionDeletePlaylist))
	assert.NoError(t, Authorize(admin, nil, ActionEditPlaylist))
	assert.ErrorIs(t, Authorize(nil, &ownerID, ActionEditPlaylist), ErrUnauthenticated)

	err := Authorize(other, &ownerID, ActionDeleteSong)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "You cannot delete this track.", err.Error())

	assert.ErrorIs(t, Authorize(other, nil, ActionAddSong), ErrForbidden)
}

func TestResolveTags_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.ResolveTags(ctx, []string{"Rock", "rock", "80s"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rock", "80s"}, tagNames(first))

	second, err := f.svc.ResolveTags(ctx, []string{"ROCK"})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	var count int64
	require.NoError(t, f.db.Model(&model.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCreatePlaylist_NewTagsCollapseCase(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)

	p := f.playlist(t, alice, "Road Trip", "Rock, rock, 80s")

	assert.Equal(t, "Road Trip", p.Title)
	assert.Equal(t, []string{"80s", "Rock"}, tagNames(p.Tags))
	require.NotNil(t, p.Creator)
	assert.Equal(t, "alice", p.CreatorName())
	assert.True(t, strings.HasPrefix(p.CoverImage, storage.CoverPrefix))
	assert.True(t, f.blobs.Has(p.CoverImage))
}

func TestCreatePlaylist_SelectedAndNewTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	existing, err := f.svc.ResolveTags(ctx, []string{"Jazz"})
	require.NoError(t, err)

	p, err := f.svc.CreatePlaylist(ctx, alice, PlaylistInput{
		Title:   "Evening",
		TagIDs:  []int64{existing[0].ID},
		NewTags: "jazz, Chill",
		Cover:   pngUpload(t),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chill", "Jazz"}, tagNames(p.Tags))
}

func TestCreatePlaylist_Validation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)

	_, err := f.svc.CreatePlaylist(context.Background(), alice, PlaylistInput{
		Title:   "   ",
		TagIDs:  []int64{404},
		NewTags: strings.Repeat("x", 51),
		Cover:   &Upload{Filename: "cover.png", Reader: strings.NewReader("not an image")},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "tags")
	assert.Contains(t, verr.Fields, "new_tags")
	assert.Contains(t, verr.Fields, "cover_image")
	assert.Zero(t, f.blobs.Len())
}

func TestCreatePlaylist_CoverRequired(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)

	_, err := f.svc.CreatePlaylist(context.Background(), alice, PlaylistInput{Title: "x"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This field is required.", verr.Fields["cover_image"])
}

func TestCreatePlaylist_TitleTooLong(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)

	_, err := f.svc.CreatePlaylist(context.Background(), alice, PlaylistInput{
		Title: strings.Repeat("a", 201),
		Cover: pngUpload(t),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Ensure this value has at most 200 characters.", verr.Fields["title"])
}

func TestCreatePlaylist_RequiresActor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePlaylist(context.Background(), nil, PlaylistInput{Title: "x", Cover: pngUpload(t)})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreatePlaylist_InvalidatesTagCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)

	before, err := f.svc.SearchTags(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, before)

	f.playlist(t, alice, "p", "Rock")

	after, err := f.svc.SearchTags(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []TagOption{{ID: after[0].ID, Text: "Rock"}}, after)
}

func TestUpdatePlaylist_ReplacesTagsThenAddsNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	p := f.playlist(t, alice, "Mix", "Rock, Pop")
	pop := p.Tags[0]
	require.Equal(t, "Pop", pop.Name)
	oldCover := p.CoverImage

	updated, err := f.svc.UpdatePlaylist(ctx, alice, p.ID, PlaylistInput{
		Title:   "Mix II",
		TagIDs:  []int64{pop.ID},
		NewTags: "Disco",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mix II", updated.Title)
	assert.Equal(t, []string{"Disco", "Pop"}, tagNames(updated.Tags))
	assert.Equal(t, oldCover, updated.CoverImage)
	assert.True(t, f.blobs.Has(oldCover))
}

func TestUpdatePlaylist_NewCoverReplacesOld(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)
	p := f.playlist(t, alice, "Mix", "")

	updated, err := f.svc.UpdatePlaylist(context.Background(), alice, p.ID, PlaylistInput{
		Title: "Mix",
		Cover: pngUpload(t),
	})
	require.NoError(t, err)
	assert.NotEqual(t, p.CoverImage, updated.CoverImage)
	assert.False(t, f.blobs.Has(p.CoverImage))
	assert.True(t, f.blobs.Has(updated.CoverImage))
}

func TestOwnershipMatrix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", false)
	other := f.user(t, "other", false)
	admin := f.user(t, "admin", true)
	p := f.playlist(t, owner, "Mine", "")
	s := f.song(t, owner, p.ID, "track")

	_, err := f.svc.UpdatePlaylist(ctx, other, p.ID, PlaylistInput{Title: "hijack"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.DeletePlaylist(ctx, other, p.ID), ErrForbidden)
	_, err = f.svc.AddSong(ctx, other, p.ID, SongInput{Title: "x", Audio: wavUpload()})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.UpdateSong(ctx, other, s.ID, SongInput{Title: "x"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.DeleteSong(ctx, other, s.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.PlaylistForm(ctx, other, p.ID, ActionEditPlaylist)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.SongForm(ctx, nil, s.ID, ActionEditSong)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.UpdatePlaylist(ctx, owner, p.ID, PlaylistInput{Title: "by owner"})
	assert.NoError(t, err)
	_, err = f.svc.UpdatePlaylist(ctx, admin, p.ID, PlaylistInput{Title: "by admin"})
	assert.NoError(t, err)
	_, err = f.svc.UpdateSong(ctx, admin, s.ID, SongInput{Title: "renamed"})
	assert.NoError(t, err)
	assert.NoError(t, f.svc.DeletePlaylist(ctx, admin, p.ID))
}

func TestDeletePlaylist_CascadesAndRemovesFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	p := f.playlist(t, alice, "Doomed", "Rock")
	a := f.song(t, alice, p.ID, "a")
	b := f.song(t, alice, p.ID, "b")

	require.NoError(t, f.svc.DeletePlaylist(ctx, alice, p.ID))

	_, err := f.svc.GetPlaylist(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var songs int64
	require.NoError(t, f.db.Model(&model.Song{}).Count(&songs).Error)
	assert.Zero(t, songs)
	assert.False(t, f.blobs.Has(p.CoverImage))
	assert.False(t, f.blobs.Has(a.AudioFile))
	assert.False(t, f.blobs.Has(b.AudioFile))

	tags, err := f.svc.SearchTags(ctx, "rock")
	require.NoError(t, err)
	assert.Len(t, tags, 1, "tags outlive playlists")
}

func TestGetPlaylist_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetPlaylist(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddSong(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	p := f.playlist(t, alice, "p", "")

	s := f.song(t, alice, p.ID, "  Intro ")
	assert.Equal(t, "Intro", s.Title)
	require.NotNil(t, s.UploadedByID)
	assert.Equal(t, alice.ID, *s.UploadedByID)
	assert.True(t, strings.HasSuffix(s.AudioFile, ".wav"))
	assert.True(t, f.blobs.Has(s.AudioFile))

	_, err := f.svc.AddSong(ctx, alice, p.ID, SongInput{Title: "no file"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "audio_file")

	_, err = f.svc.AddSong(ctx, alice, p.ID, SongInput{
		Title: "text",
		Audio: &Upload{Filename: "x.mp3", Reader: strings.NewReader("plain text")},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Upload a valid audio file.", verr.Fields["audio_file"])

	_, err = f.svc.AddSong(ctx, alice, 404, SongInput{Title: "x", Audio: wavUpload()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSong_ReplacesAudio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	p := f.playlist(t, alice, "p", "")
	s := f.song(t, alice, p.ID, "old")

	updated, err := f.svc.UpdateSong(ctx, alice, s.ID, SongInput{Title: "new", Audio: wavUpload()})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.NotEqual(t, s.AudioFile, updated.AudioFile)
	assert.False(t, f.blobs.Has(s.AudioFile))
	assert.True(t, f.blobs.Has(updated.AudioFile))
}

func TestDeleteSong_ReturnsPlaylist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	p := f.playlist(t, alice, "p", "")
	s := f.song(t, alice, p.ID, "gone")

	playlistID, err := f.svc.DeleteSong(ctx, alice, s.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, playlistID)
	assert.False(t, f.blobs.Has(s.AudioFile))

	_, err = f.svc.DeleteSong(ctx, alice, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	road := f.playlist(t, alice, "Road Trip", "Rock, Summer")
	study := f.playlist(t, alice, "Study rocks", "Lo-fi")
	f.song(t, alice, road.ID, "Highway Star")
	f.song(t, alice, study.ID, "Rocket Man")

	res, err := f.svc.Search(ctx, " rock ")
	require.NoError(t, err)
	assert.Equal(t, "rock", res.Query)
	require.Len(t, res.PlaylistsByTitle, 1)
	assert.Equal(t, study.ID, res.PlaylistsByTitle[0].ID)
	require.Len(t, res.PlaylistsByTag, 1)
	assert.Equal(t, road.ID, res.PlaylistsByTag[0].ID)
	require.Len(t, res.SongsByTitle, 1)
	assert.Equal(t, "Rocket Man", res.SongsByTitle[0].Title)
	require.Len(t, res.SongsByTag, 1)
	assert.Equal(t, "Highway Star", res.SongsByTag[0].Title)
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)
	f.playlist(t, alice, "Anything", "Rock")

	for _, q := range []string{"", "   "} {
		res, err := f.svc.Search(context.Background(), q)
		require.NoError(t, err)
		assert.NotNil(t, res.PlaylistsByTitle)
		assert.Empty(t, res.PlaylistsByTitle)
		assert.Empty(t, res.PlaylistsByTag)
		assert.Empty(t, res.SongsByTitle)
		assert.Empty(t, res.SongsByTag)
	}
}

func TestSearchTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.ResolveTags(ctx, []string{"Rock", "Punk Rock", "Jazz"})
	require.NoError(t, err)

	all, err := f.svc.SearchTags(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Jazz", all[0].Text)

	rock, err := f.svc.SearchTags(ctx, "ROCK")
	require.NoError(t, err)
	require.Len(t, rock, 2)
	assert.Equal(t, "Punk Rock", rock[0].Text)

	cached, _, ok, err := f.tags.Get(ctx, "rock")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, cached, 2)
}

func TestSearchTags_WithoutCache(t *testing.T) {
	gdb := dbtest.New(t)
	svc := NewService(repository.NewRepositories(gdb), storage.NewMemoryStore(), nil)
	_, err := svc.ResolveTags(context.Background(), []string{"Rock"})
	require.NoError(t, err)

	opts, err := svc.SearchTags(context.Background(), "ro")
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "Rock", opts[0].Text)
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Signup(ctx, SignupInput{Username: "carol", Password1: "s3cret-pass", Password2: "s3cret-pass"})
	require.NoError(t, err)
	assert.False(t, u.IsSuperuser)

	got, err := f.svc.Login(ctx, LoginInput{Username: "carol", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.svc.Login(ctx, LoginInput{Username: "carol", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, LoginInput{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Signup(ctx, SignupInput{Username: "carol", Password1: "another-pass", Password2: "another-pass"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "A user with that username already exists.", verr.Fields["username"])
}

func TestSignup_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Signup(context.Background(), SignupInput{Username: "no spaces", Password1: "short", Password2: "other"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["username"], "Enter a valid username")
	assert.Contains(t, verr.Fields["password1"], "at least 8")
	assert.Equal(t, "The two password fields didn't match.", verr.Fields["password2"])
}

func TestSignup_ShortUsernameAllowed(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Signup(context.Background(), SignupInput{Username: "q", Password1: "s3cret-pass", Password2: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "q", u.Username)
}

func TestDeleteUser_OrphansPlaylists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	admin := f.user(t, "admin", true)
	p := f.playlist(t, alice, "Left behind", "")

	require.NoError(t, f.svc.DeleteUser(ctx, "alice"))

	got, err := f.svc.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CreatorID)
	assert.Equal(t, "N/A", got.CreatorName())

	_, err = f.svc.UpdatePlaylist(ctx, alice, p.ID, PlaylistInput{Title: "mine?"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.UpdatePlaylist(ctx, admin, p.ID, PlaylistInput{Title: "rescued"})
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, "alice"), ErrNotFound)
}

func TestSetSuperuser(t *testing.T) {
	f := newFixture(t)
	f.user(t, "dave", false)

	u, err := f.svc.SetSuperuser(context.Background(), "dave", true)
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)

	_, err = f.svc.SetSuperuser(context.Background(), "ghost", true)
	assert.ErrorIs(t, err, ErrNotFound)
}
