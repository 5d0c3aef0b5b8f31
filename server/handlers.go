package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"Playshare/cache"
	"Playshare/config"
	"Playshare/core/auth"
	"Playshare/core/catalog"
	"Playshare/logger"
	"Playshare/model"
	"Playshare/storage"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	svc     *catalog.Service
	tokens  *auth.TokenManager
	revoked *cache.TokenStore
	blobs   storage.BlobStore
	cfg     *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	svc *catalog.Service,
	tokens *auth.TokenManager,
	revoked *cache.TokenStore,
	blobs storage.BlobStore,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		svc:     svc,
		tokens:  tokens,
		revoked: revoked,
		blobs:   blobs,
		cfg:     cfg,
	}
}

// UserDTO is the public view of an account.
type UserDTO struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"isSuperuser"`
}

type TagDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

type SongDTO struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	AudioURL      string    `json:"audioUrl"`
	PlaylistID    int64     `json:"playlistId"`
	PlaylistTitle string    `json:"playlistTitle,omitempty"`
	UploadedByID  *int64    `json:"uploadedById"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PlaylistDTO struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	CreatorID   *int64    `json:"creatorId"`
	CreatorName string    `json:"creator"`
	CoverURL    string    `json:"coverUrl"`
	Tags        []TagDTO  `json:"tags"`
	Songs       []SongDTO `json:"songs,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func mediaURL(key string) string {
	if key == "" {
		return ""
	}
	return "/media/" + key
}

// copyDTO fills a response DTO from a model. A failed copy leaves the
// zero fields in place and is logged; the caller still sets derived fields.
func copyDTO(to, from interface{}) bool {
	if err := copier.Copy(to, from); err != nil {
		logger.Warn("Failed to map model to response",
			logger.String("type", fmt.Sprintf("%T", from)),
			logger.ErrorField(err))
		return false
	}
	return true
}

func toUserDTO(u *model.User) *UserDTO {
	if u == nil {
		return nil
	}
	out := &UserDTO{}
	copyDTO(out, u)
	return out
}

func toTagDTOs(tags []model.Tag) []TagDTO {
	out := make([]TagDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagDTO{ID: t.ID, Name: t.Name, Label: t.String()})
	}
	return out
}

func toSongDTO(s *model.Song) SongDTO {
	var out SongDTO
	copyDTO(&out, s)
	out.AudioURL = mediaURL(s.AudioFile)
	if s.Playlist != nil {
		out.PlaylistTitle = s.Playlist.Title
	}
	return out
}

func toSongDTOs(songs []model.Song) []SongDTO {
	out := make([]SongDTO, 0, len(songs))
	for i := range songs {
		out = append(out, toSongDTO(&songs[i]))
	}
	return out
}

func toPlaylistDTO(p *model.Playlist) PlaylistDTO {
	var out PlaylistDTO
	copyDTO(&out, p)
	out.CreatorName = p.CreatorName()
	out.CoverURL = mediaURL(p.CoverImage)
	out.Tags = toTagDTOs(p.Tags)
	out.Songs = nil
	if len(p.Songs) > 0 {
		out.Songs = toSongDTOs(p.Songs)
	}
	return out
}

func toPlaylistDTOs(playlists []model.Playlist) []PlaylistDTO {
	out := make([]PlaylistDTO, 0, len(playlists))
	for i := range playlists {
		out = append(out, toPlaylistDTO(&playlists[i]))
	}
	return out
}

func playlistPath(id int64) string {
	return "/playlist/" + strconv.FormatInt(id, 10) + "/"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// isFragment reports whether the client asked for just the view data.
func isFragment(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// render answers a read-only view. Ajax requests get the bare data, others
// get the page envelope with the current user.
func render(w http.ResponseWriter, r *http.Request, page string, data interface{}) {
	if isFragment(r) {
		writeJSON(w, http.StatusOK, data)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"page": page,
		"user": toUserDTO(UserFromContext(r.Context())),
		"data": data,
	})
}

var errorStatus = map[error]int{
	catalog.ErrNotFound:           http.StatusNotFound,
	catalog.ErrForbidden:          http.StatusForbidden,
	catalog.ErrUnauthenticated:    http.StatusUnauthorized,
	catalog.ErrInvalidCredentials: http.StatusUnauthorized,
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": verr.Fields})
		return
	}
	var forbidden *catalog.ForbiddenError
	if errors.As(err, &forbidden) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": forbidden.Msg})
		return
	}
	for target, status := range errorStatus {
		if errors.Is(err, target) {
			writeJSON(w, status, map[string]string{"error": target.Error()})
			return
		}
	}

	logger.Error("Request failed",
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.ErrorField(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}
