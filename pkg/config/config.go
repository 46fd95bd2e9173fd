package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorageDriverCloudinary = "cloudinary"
	StorageDriverMinIO      = "minio"

	CapacityScopeProject  = "project"
	CapacityScopeCategory = "category"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Storage      StorageConfig
	Cloudinary   CloudinaryConfig
	MinIO        MinIOConfig
	Gallery      GalleryConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Storage.validate(cfg.Cloudinary, cfg.MinIO); err != nil {
		return nil, err
	}
	if err := cfg.Gallery.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"GURUDEV_APP_ENV" required:"true"`
	Port         string   `envconfig:"GURUDEV_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"GURUDEV_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"GURUDEV_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"GURUDEV_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"GURUDEV_DB_DSN"`
	SQLitePath string `envconfig:"GURUDEV_DB_SQLITE_PATH" default:"gallery.db"`

	LegacyHost     string `envconfig:"GURUDEV_DB_HOST"`
	LegacyPort     int    `envconfig:"GURUDEV_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GURUDEV_DB_USER"`
	LegacyPassword string `envconfig:"GURUDEV_DB_PASSWORD"`
	LegacyName     string `envconfig:"GURUDEV_DB_NAME"`
	LegacySSLMode  string `envconfig:"GURUDEV_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GURUDEV_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"GURUDEV_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"GURUDEV_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GURUDEV_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GURUDEV_REDIS_URL"`
	Address      string        `envconfig:"GURUDEV_REDIS_ADDR"`
	Password     string        `envconfig:"GURUDEV_REDIS_PASSWORD"`
	DB           int           `envconfig:"GURUDEV_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GURUDEV_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GURUDEV_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GURUDEV_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GURUDEV_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GURUDEV_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type StorageConfig struct {
	Driver      string        `envconfig:"GURUDEV_STORAGE_DRIVER" default:"cloudinary"`
	HTTPTimeout time.Duration `envconfig:"GURUDEV_STORAGE_HTTP_TIMEOUT" default:"30s"`
}

type CloudinaryConfig struct {
	CloudName    string `envconfig:"GURUDEV_CLOUDINARY_CLOUD_NAME"`
	APIKey       string `envconfig:"GURUDEV_CLOUDINARY_API_KEY"`
	APISecret    string `envconfig:"GURUDEV_CLOUDINARY_API_SECRET"`
	UploadPrefix string `envconfig:"GURUDEV_CLOUDINARY_UPLOAD_PREFIX" default:"https://api.cloudinary.com"`
	ResourceType string `envconfig:"GURUDEV_CLOUDINARY_RESOURCE_TYPE" default:"image"`
}

type MinIOConfig struct {
	Endpoint      string `envconfig:"GURUDEV_MINIO_ENDPOINT"`
	AccessKey     string `envconfig:"GURUDEV_MINIO_ACCESS_KEY"`
	SecretKey     string `envconfig:"GURUDEV_MINIO_SECRET_KEY"`
	Bucket        string `envconfig:"GURUDEV_MINIO_BUCKET" default:"gallery"`
	UseSSL        bool   `envconfig:"GURUDEV_MINIO_USE_SSL" default:"false"`
	PublicBaseURL string `envconfig:"GURUDEV_MINIO_PUBLIC_BASE_URL"`
	CreateBucket  bool   `envconfig:"GURUDEV_MINIO_CREATE_BUCKET" default:"true"`
}

type GalleryConfig struct {
	FolderRoot          string        `envconfig:"GURUDEV_GALLERY_FOLDER_ROOT" default:"gurudev-gallery"`
	RecordsFolder       string        `envconfig:"GURUDEV_GALLERY_RECORDS_FOLDER" default:"gallery"`
	MaxImagesPerProject int           `envconfig:"GURUDEV_GALLERY_MAX_IMAGES_PER_PROJECT" default:"10"`
	CapacityScope       string        `envconfig:"GURUDEV_GALLERY_CAPACITY_SCOPE" default:"project"`
	DefaultContent      bool          `envconfig:"GURUDEV_GALLERY_DEFAULT_CONTENT" default:"true"`
	MaxUploadMB         int           `envconfig:"GURUDEV_GALLERY_MAX_UPLOAD_MB" default:"10"`
	MaxBatchFiles       int           `envconfig:"GURUDEV_GALLERY_MAX_BATCH_FILES" default:"10"`
	SessionTTL          time.Duration `envconfig:"GURUDEV_GALLERY_SESSION_TTL" default:"30m"`
	PreviewDir          string        `envconfig:"GURUDEV_GALLERY_PREVIEW_DIR"`
}

// MaxUploadBytes converts the configured megabyte limit into bytes.
func (g GalleryConfig) MaxUploadBytes() int64 {
	if g.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(g.MaxUploadMB) << 20
}

// BatchFiles is the number of files one admin batch upload may carry.
func (g GalleryConfig) BatchFiles() int {
	if g.MaxBatchFiles <= 0 {
		return 10
	}
	return g.MaxBatchFiles
}

type RateLimitConfig struct {
	UploadWindow time.Duration `envconfig:"GURUDEV_RATE_LIMIT_UPLOAD_WINDOW" default:"1m"`
	UploadLimit  int           `envconfig:"GURUDEV_RATE_LIMIT_UPLOAD_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GURUDEV_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GURUDEV_AUTO_MIGRATE" default:"false"`
}

func (s StorageConfig) validate(cld CloudinaryConfig, mc MinIOConfig) error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StorageDriverCloudinary:
		missing := []string{}
		if cld.CloudName == "" {
			missing = append(missing, EnvCloudinaryCloudName)
		}
		if cld.APIKey == "" {
			missing = append(missing, EnvCloudinaryAPIKey)
		}
		if cld.APISecret == "" {
			missing = append(missing, EnvCloudinaryAPISecret)
		}
		if len(missing) > 0 {
			return fmt.Errorf("cloudinary storage requires %s", strings.Join(missing, ", "))
		}
	case StorageDriverMinIO:
		if mc.Endpoint == "" || mc.Bucket == "" {
			return fmt.Errorf("minio storage requires %s and %s", EnvMinIOEndpoint, EnvMinIOBucket)
		}
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvStorageDriver, StorageDriverCloudinary, StorageDriverMinIO, s.Driver)
	}
	return nil
}

func (g GalleryConfig) validate() error {
	if g.MaxImagesPerProject <= 0 {
		return fmt.Errorf("%s must be positive", EnvGalleryMaxPerProject)
	}
	if g.MaxBatchFiles < 0 {
		return fmt.Errorf("%s must not be negative", EnvGalleryMaxBatchFiles)
	}
	switch g.CapacityScope {
	case CapacityScopeProject, CapacityScopeCategory:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvGalleryCapacityScope, CapacityScopeProject, CapacityScopeCategory)
	}
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
