package config

const (
	EnvPrefix = "GURUDEV"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "GURUDEV_APP_ENV"
	EnvPort     = "GURUDEV_APP_PORT"
	EnvLogLevel = "GURUDEV_LOG_LEVEL"

	EnvDBDSN  = "GURUDEV_DB_DSN"
	EnvDBHost = "GURUDEV_DB_HOST"
	EnvDBUser = "GURUDEV_DB_USER"
	EnvDBName = "GURUDEV_DB_NAME"

	EnvRedisURL = "GURUDEV_REDIS_URL"

	EnvStorageDriver = "GURUDEV_STORAGE_DRIVER"

	EnvCloudinaryCloudName = "GURUDEV_CLOUDINARY_CLOUD_NAME"
	EnvCloudinaryAPIKey    = "GURUDEV_CLOUDINARY_API_KEY"
	EnvCloudinaryAPISecret = "GURUDEV_CLOUDINARY_API_SECRET"

	EnvMinIOEndpoint = "GURUDEV_MINIO_ENDPOINT"
	EnvMinIOBucket   = "GURUDEV_MINIO_BUCKET"

	EnvGalleryMaxPerProject = "GURUDEV_GALLERY_MAX_IMAGES_PER_PROJECT"
	EnvGalleryCapacityScope = "GURUDEV_GALLERY_CAPACITY_SCOPE"
	EnvGalleryMaxBatchFiles = "GURUDEV_GALLERY_MAX_BATCH_FILES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
