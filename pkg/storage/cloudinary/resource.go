package cloudinary

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"

	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
)

func toAsset(publicID, secureURL string, width, height int, createdAt time.Time, context map[string]any) storage.Asset {
	folder := ""
	if idx := strings.LastIndex(publicID, "/"); idx > 0 {
		folder = publicID[:idx]
	}
	return storage.Asset{
		PublicID:  publicID,
		URL:       secureURL,
		Width:     width,
		Height:    height,
		Folder:    folder,
		CreatedAt: createdAt,
		Metadata:  decodeContext(context),
	}
}

// decodeContext accepts both the search shape ({"title": ...}) and the
// upload/admin shape ({"custom": {"title": ...}}).
func decodeContext(raw map[string]any) storage.Metadata {
	if custom, ok := raw["custom"].(map[string]any); ok {
		return flatten(custom)
	}
	return flatten(raw)
}

func flatten(values map[string]any) storage.Metadata {
	meta := make(storage.Metadata, len(values))
	for k, v := range values {
		switch typed := v.(type) {
		case string:
			meta[k] = typed
		case nil:
		default:
			meta[k] = fmt.Sprint(typed)
		}
	}
	return meta
}

func isNotFound(err error, apiErr api.ErrorResp) bool {
	if err != nil && isNotFoundMessage(err.Error()) {
		return true
	}
	return isNotFoundMessage(apiErr.Message)
}

func isNotFoundMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "not found")
}

// apiFailure folds transport errors and error payloads into one upstream
// error. The SDK reports API errors in the result, not in err.
func apiFailure(op string, err error, apiErr api.ErrorResp) error {
	switch {
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "cloudinary "+op+" failed")
	case apiErr.Message != "":
		return pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "cloudinary "+op+": "+apiErr.Message)
	}
	return nil
}

// transportFailure covers calls that produced no result at all.
func transportFailure(op string, err error) error {
	if err == nil {
		return pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "cloudinary "+op+" returned no result")
	}
	return apiFailure(op, err, api.ErrorResp{})
}
