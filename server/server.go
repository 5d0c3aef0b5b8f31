package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Playshare/cache"
	"Playshare/config"
	"Playshare/core/auth"
	"Playshare/core/catalog"
	"Playshare/db"
	"Playshare/job"
	"Playshare/logger"
	"Playshare/repository"
	"Playshare/storage"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(h.Identify)

	router.HandleFunc("/", h.HomeHandler).Methods(http.MethodGet)

	// 用户认证
	router.HandleFunc("/signup/", h.SignupHandler).Methods(http.MethodPost)
	router.HandleFunc("/login/", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/logout/", h.AuthMiddleware(h.LogoutHandler)).Methods(http.MethodPost)

	// 播放列表
	router.HandleFunc("/playlist/create/", h.AuthMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/playlist/{id:[0-9]+}/", h.PlaylistDetailHandler).Methods(http.MethodGet)
	router.HandleFunc("/playlist/{id:[0-9]+}/edit/", h.AuthMiddleware(h.EditPlaylistHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/playlist/{id:[0-9]+}/delete/", h.AuthMiddleware(h.DeletePlaylistHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/playlist/{id:[0-9]+}/add_song/", h.AuthMiddleware(h.AddSongHandler)).Methods(http.MethodGet, http.MethodPost)

	// 歌曲
	router.HandleFunc("/song/{id:[0-9]+}/edit/", h.AuthMiddleware(h.EditSongHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/song/{id:[0-9]+}/delete/", h.AuthMiddleware(h.DeleteSongHandler)).Methods(http.MethodGet, http.MethodPost)

	// 搜索
	router.HandleFunc("/tags/search/", h.SearchTagsHandler).Methods(http.MethodGet)
	router.HandleFunc("/search/", h.SearchHandler).Methods(http.MethodGet)

	router.HandleFunc("/media/{key:.+}", h.MediaHandler).Methods(http.MethodGet, http.MethodHead)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, catalog.ErrNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})
	return router
}

// NewHandler wraps the router with the middleware that must also see
// unmatched requests: access logging, CORS preflight and slash normalization.
func NewHandler(h *APIHandler) http.Handler {
	return accessLog(cors(trailingSlash(NewRouter(h))))
}

// Start connects every backend, runs the cron engine and serves HTTP until
// SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseGormDB(gdb)

	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}

	rdb, err := db.ConnectRedis(cfg)
	if err != nil {
		return err
	}
	defer db.CloseRedis(rdb)
	logger.Info("Successfully connected to Redis")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	blobs, err := storage.New(ctx, cfg)
	cancel()
	if err != nil {
		return errors.Wrap(err, "failed to initialize blob storage")
	}

	repos := repository.NewRepositories(gdb)
	svc := catalog.NewService(repos, blobs, cache.NewTagCache(rdb, cfg.TagCacheTTL))
	apiHandler := NewAPIHandler(svc, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), cache.NewTokenStore(rdb), blobs, cfg)

	cronManager := job.NewCronManager(cfg.CleanupSchedule, job.NewOrphanCleanupJob(repos, blobs, cfg.CleanupGrace))
	if err := cronManager.RegisterJobs(); err != nil {
		return errors.Wrap(err, "failed to register cron jobs")
	}
	cronManager.Start()
	defer cronManager.Stop()

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewHandler(apiHandler),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	case <-stop:
	}
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}
