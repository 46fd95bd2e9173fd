package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	cldconfig "github.com/cloudinary/cloudinary-go/v2/config"

	"github.com/gurudev-engicon/gallery-backend/pkg/config"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
)

const pingTimeout = 5 * time.Second

// Client adapts the Cloudinary SDK to storage.Store.
type Client struct {
	sdk          *cld.Cloudinary
	resourceType string
	logg         *logger.Logger
}

var _ storage.Store = (*Client)(nil)

// NewClient validates credentials and verifies connectivity with a ping.
func NewClient(ctx context.Context, cfg config.CloudinaryConfig, timeout time.Duration, logg *logger.Logger) (*Client, error) {
	client, err := newClient(cfg, timeout, logg)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("cloudinary health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "cloud_name", cfg.CloudName), "cloudinary client initialized")
	}
	return client, nil
}

func newClient(cfg config.CloudinaryConfig, timeout time.Duration, logg *logger.Logger) (*Client, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary cloud name, api key and api secret are required")
	}
	conf, err := cldconfig.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	if prefix := strings.TrimRight(cfg.UploadPrefix, "/"); prefix != "" {
		conf.API.UploadPrefix = prefix
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	conf.API.Timeout = int64(timeout / time.Second)
	conf.API.UploadTimeout = int64(timeout / time.Second)

	sdk, err := cld.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	resourceType := cfg.ResourceType
	if resourceType == "" {
		resourceType = "image"
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{sdk: sdk, resourceType: resourceType, logg: logg}, nil
}

// Ping checks the admin API credentials.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	res, err := c.sdk.Admin.Ping(ctx)
	if err != nil || res == nil {
		return transportFailure("ping", err)
	}
	if failure := apiFailure("ping", nil, res.Error); failure != nil {
		return failure
	}
	if res.Status != "ok" {
		return pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, fmt.Sprintf("cloudinary ping returned %q", res.Status))
	}
	return nil
}

// Search lists the assets stored directly in folder.
func (c *Client) Search(ctx context.Context, folder string) ([]storage.Asset, error) {
	res, err := c.sdk.Admin.Search(ctx, search.Query{
		Expression: fmt.Sprintf("folder:%q", folder),
		WithField:  []string{"context"},
		MaxResults: storage.MaxResults,
	})
	if err != nil || res == nil {
		return nil, transportFailure("search", err)
	}
	if failure := apiFailure("search", nil, res.Error); failure != nil {
		return nil, failure
	}

	assets := make([]storage.Asset, 0, len(res.Assets))
	for _, a := range res.Assets {
		assets = append(assets, toAsset(a.PublicID, a.SecureURL, a.Width, a.Height, a.CreatedAt, anyMap(a.Context)))
	}
	return assets, nil
}

// Get fetches a single asset with its context metadata.
func (c *Client) Get(ctx context.Context, publicID string) (storage.Asset, bool, error) {
	if strings.TrimSpace(publicID) == "" {
		return storage.Asset{}, false, nil
	}
	res, err := c.sdk.Admin.Asset(ctx, admin.AssetParams{
		AssetType:    api.AssetType(c.resourceType),
		DeliveryType: api.Upload,
		PublicID:     publicID,
	})
	if err != nil || res == nil {
		if isNotFound(err, api.ErrorResp{}) {
			return storage.Asset{}, false, nil
		}
		return storage.Asset{}, false, transportFailure("get asset", err)
	}
	if isNotFound(nil, res.Error) {
		return storage.Asset{}, false, nil
	}
	if failure := apiFailure("get asset", nil, res.Error); failure != nil {
		return storage.Asset{}, false, failure
	}
	return toAsset(res.PublicID, res.SecureURL, res.Width, res.Height, res.CreatedAt, anyMap(res.Context.Custom)), true, nil
}

// Upload stores the binary in folder with metadata attached as context.
func (c *Client) Upload(ctx context.Context, folder string, in storage.UploadInput) (storage.Asset, error) {
	params := uploader.UploadParams{
		Folder:       folder,
		ResourceType: c.resourceType,
	}
	if len(in.Metadata) > 0 {
		params.Context = api.CldAPIMap(in.Metadata.Clone())
	}

	res, err := c.sdk.Upload.Upload(ctx, bytes.NewReader(in.Body), params)
	if err != nil || res == nil {
		return storage.Asset{}, transportFailure("upload", err)
	}
	if failure := apiFailure("upload", nil, res.Error); failure != nil {
		return storage.Asset{}, failure
	}
	asset := toAsset(res.PublicID, res.SecureURL, res.Width, res.Height, res.CreatedAt, res.Context)
	if len(asset.Metadata) == 0 {
		asset.Metadata = in.Metadata.Clone()
	}
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"public_id": asset.PublicID,
		"file_name": in.FileName,
	}), "cloudinary asset uploaded")
	return asset, nil
}

// Destroy removes the asset; a "not found" result is a status, not an error.
func (c *Client) Destroy(ctx context.Context, publicID string) (storage.DestroyStatus, error) {
	res, err := c.sdk.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: c.resourceType,
	})
	if err != nil || res == nil {
		return 0, transportFailure("destroy", err)
	}
	if failure := apiFailure("destroy", nil, res.Error); failure != nil {
		return 0, failure
	}
	switch res.Result {
	case "ok":
		return storage.DestroyStatusDeleted, nil
	case "not found":
		return storage.DestroyStatusNotFound, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, fmt.Sprintf("cloudinary destroy result %q", res.Result))
	}
}

// UpdateMetadata rewrites the context of an existing asset via the explicit API.
func (c *Client) UpdateMetadata(ctx context.Context, publicID string, meta storage.Metadata) (storage.UpdateStatus, error) {
	res, err := c.sdk.Upload.Explicit(ctx, uploader.ExplicitParams{
		PublicID:     publicID,
		Type:         api.Upload,
		ResourceType: c.resourceType,
		Context:      api.CldAPIMap(meta.Clone()),
	})
	if err != nil || res == nil {
		if isNotFound(err, api.ErrorResp{}) {
			return storage.UpdateStatusNotFound, nil
		}
		return 0, transportFailure("explicit", err)
	}
	if isNotFound(nil, res.Error) {
		return storage.UpdateStatusNotFound, nil
	}
	if failure := apiFailure("explicit", nil, res.Error); failure != nil {
		return 0, failure
	}
	return storage.UpdateStatusUpdated, nil
}

// anyMap adapts the SDK's typed string maps to the generic context shape.
func anyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
