package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset. Development only.
const DevJWTSecret = "playshare-dev-secret"

// Config stores the application configuration.
type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	StorageBackend string // "minio" or "memory"
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel      string
	LogPath       string // empty disables the rotated file output
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	MaxUploadMB     int64
	TagCacheTTL     time.Duration
	CleanupSchedule string // cron expression, empty disables the job
	CleanupGrace    time.Duration
}

// MaxUploadBytes is the multipart size limit derived from MaxUploadMB.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")

	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "playshare")

	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORAGE_BACKEND", "minio")
	v.SetDefault("MINIO_ENDPOINT", "127.0.0.1:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "playshare")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_REGION", "us-east-1")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PATH", "logs/playshare.log")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 30)
	v.SetDefault("LOG_COMPRESS", true)

	v.SetDefault("MAX_UPLOAD_MB", 64)
	v.SetDefault("TAG_CACHE_TTL", "1m")
	v.SetDefault("CLEANUP_SCHEDULE", "@hourly")
	v.SetDefault("CLEANUP_GRACE", "1h")
}

// Load reads .env (if present), then configs/config.yaml (if present), then the
// process environment. Later sources win.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("Ignoring unreadable config file: %v", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		// The fallback is public, so anyone can forge tokens against such a server.
		log.Println("JWT_SECRET is not set, using an insecure development secret.")
		jwtSecret = DevJWTSecret
	}

	return &Config{
		HTTPAddr: v.GetString("HTTP_ADDR"),

		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),

		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetString("REDIS_PORT"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		StorageBackend: strings.ToLower(v.GetString("STORAGE_BACKEND")),
		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),
		MinioUseSSL:    v.GetBool("MINIO_USE_SSL"),
		MinioRegion:    v.GetString("MINIO_REGION"),

		JWTSecret: jwtSecret,
		JWTTTL:    v.GetDuration("JWT_TTL"),

		LogLevel:      v.GetString("LOG_LEVEL"),
		LogPath:       v.GetString("LOG_PATH"),
		LogMaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		LogCompress:   v.GetBool("LOG_COMPRESS"),

		MaxUploadMB:     v.GetInt64("MAX_UPLOAD_MB"),
		TagCacheTTL:     v.GetDuration("TAG_CACHE_TTL"),
		CleanupSchedule: v.GetString("CLEANUP_SCHEDULE"),
		CleanupGrace:    v.GetDuration("CLEANUP_GRACE"),
	}
}
