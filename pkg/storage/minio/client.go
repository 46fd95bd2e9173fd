package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gurudev-engicon/gallery-backend/pkg/config"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	_ "golang.org/x/image/webp"
)

const (
	pingTimeout = 5 * time.Second

	metaWidth  = "width"
	metaHeight = "height"
	amzMeta    = "x-amz-meta-"
)

// Client stores gallery assets as objects in a single S3-compatible bucket.
// Public IDs are object keys.
type Client struct {
	api        *minio.Client
	bucket     string
	publicBase string
	logg       *logger.Logger
}

var _ storage.Store = (*Client)(nil)

func NewClient(ctx context.Context, cfg config.MinIOConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	client := newClient(api, cfg, logg)

	if cfg.CreateBucket {
		if err := client.ensureBucket(ctx); err != nil {
			return nil, err
		}
	}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("minio health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"endpoint": cfg.Endpoint,
			"bucket":   cfg.Bucket,
		}), "minio client initialized")
	}
	return client, nil
}

func newClient(api *minio.Client, cfg config.MinIOConfig, logg *logger.Logger) *Client {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &Client{api: api, bucket: cfg.Bucket, publicBase: base, logg: logg}
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return unavailable(err, "check bucket")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return unavailable(err, "create bucket")
	}
	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "bucket", c.bucket), "minio bucket created")
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return unavailable(err, "ping bucket")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, fmt.Sprintf("bucket %q does not exist", c.bucket))
	}
	return nil
}

// Search lists objects stored directly under folder. Listing does not carry
// user metadata, so each object is stat'ed.
func (c *Client) Search(ctx context.Context, folder string) ([]storage.Asset, error) {
	prefix := strings.Trim(folder, "/") + "/"
	objects := c.api.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix})

	assets := []storage.Asset{}
	for obj := range objects {
		if obj.Err != nil {
			return nil, unavailable(obj.Err, "list objects")
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		if len(assets) == storage.MaxResults {
			continue
		}
		asset, found, err := c.Get(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		if found {
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

func (c *Client) Get(ctx context.Context, publicID string) (storage.Asset, bool, error) {
	if strings.TrimSpace(publicID) == "" {
		return storage.Asset{}, false, nil
	}
	info, err := c.api.StatObject(ctx, c.bucket, publicID, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return storage.Asset{}, false, nil
		}
		return storage.Asset{}, false, unavailable(err, "stat object")
	}
	return c.toAsset(info.Key, info.UserMetadata, info.LastModified), true, nil
}

// Upload decodes the image header for dimensions and stores the object under
// folder with a random key that keeps the original extension.
func (c *Client) Upload(ctx context.Context, folder string, in storage.UploadInput) (storage.Asset, error) {
	key := ObjectKey(folder, in.FileName)

	meta := in.Metadata.Clone()
	if width, height, ok := imageDimensions(in.Body); ok {
		meta[metaWidth] = strconv.Itoa(width)
		meta[metaHeight] = strconv.Itoa(height)
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(in.Body).String()
	}

	info, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(in.Body), int64(len(in.Body)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	if err != nil {
		return storage.Asset{}, unavailable(err, "put object")
	}
	created := info.LastModified
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return c.toAsset(key, meta, created), nil
}

// imageDimensions reads width and height from the image header. Formats
// without a registered decoder report ok=false.
func imageDimensions(body []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

func (c *Client) Destroy(ctx context.Context, publicID string) (storage.DestroyStatus, error) {
	_, found, err := c.Get(ctx, publicID)
	if err != nil {
		return 0, err
	}
	if !found {
		return storage.DestroyStatusNotFound, nil
	}
	if err := c.api.RemoveObject(ctx, c.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return 0, unavailable(err, "remove object")
	}
	return storage.DestroyStatusDeleted, nil
}

// UpdateMetadata replaces the object's user metadata in place through a
// server-side copy. Stored dimensions survive the rewrite.
func (c *Client) UpdateMetadata(ctx context.Context, publicID string, meta storage.Metadata) (storage.UpdateStatus, error) {
	current, found, err := c.Get(ctx, publicID)
	if err != nil {
		return 0, err
	}
	if !found {
		return storage.UpdateStatusNotFound, nil
	}

	next := meta.Clone()
	if current.Width > 0 {
		next[metaWidth] = strconv.Itoa(current.Width)
		next[metaHeight] = strconv.Itoa(current.Height)
	}

	_, err = c.api.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          c.bucket,
			Object:          publicID,
			UserMetadata:    next,
			ReplaceMetadata: true,
		},
		minio.CopySrcOptions{Bucket: c.bucket, Object: publicID},
	)
	if err != nil {
		if isNotFound(err) {
			return storage.UpdateStatusNotFound, nil
		}
		return 0, unavailable(err, "copy object")
	}
	return storage.UpdateStatusUpdated, nil
}

func (c *Client) toAsset(key string, raw map[string]string, created time.Time) storage.Asset {
	meta := NormalizeMetadata(raw)
	asset := storage.Asset{
		PublicID:  key,
		URL:       c.publicBase + "/" + key,
		Folder:    path.Dir(key),
		CreatedAt: created,
	}
	asset.Width, _ = strconv.Atoi(meta[metaWidth])
	asset.Height, _ = strconv.Atoi(meta[metaHeight])
	delete(meta, metaWidth)
	delete(meta, metaHeight)
	asset.Metadata = meta
	return asset
}

// ObjectKey builds a unique key below folder, keeping the file extension.
func ObjectKey(folder, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
}

// NormalizeMetadata lower-cases keys and strips the S3 user metadata prefix
// that some servers echo back.
func NormalizeMetadata(raw map[string]string) storage.Metadata {
	meta := make(storage.Metadata, len(raw))
	for k, v := range raw {
		key := strings.ToLower(k)
		key = strings.TrimPrefix(key, amzMeta)
		meta[key] = v
	}
	return meta
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket")
}

func unavailable(err error, op string) error {
	return pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "minio "+op+" failed")
}
