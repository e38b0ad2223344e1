package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

type AssetKind string

const (
	AssetKindLogo      AssetKind = "logo"
	AssetKindHeroImage AssetKind = "hero"
)

// Asset is one uploaded file. Filename is kept for logging only; it never
// influences the storage path.
type Asset struct {
	Kind     AssetKind
	MIME     string
	Filename string
	Data     []byte
}

type AssetLimits struct {
	MaxLogoBytes      int64
	MaxHeroImageBytes int64
	// AllowSVG admits image/svg+xml. SVG can carry script and the bucket
	// is public.
	AllowSVG bool
}

// AssetURLs holds the public URLs of whatever was uploaded.
type AssetURLs struct {
	LogoURL      *string
	HeroImageURL *string
}

// AssetIngestor validates claim images and uploads them one at a time.
type AssetIngestor struct {
	store  ObjectStore
	limits AssetLimits
	newID  func() string
}

func NewAssetIngestor(store ObjectStore, limits AssetLimits) *AssetIngestor {
	return &AssetIngestor{store: store, limits: limits, newID: uuid.NewString}
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
	"image/heic": ".heic",
}

const svgMIME = "image/svg+xml"

func (a *AssetIngestor) extensionFor(mime string) (string, bool) {
	if mime == svgMIME {
		return ".svg", a.limits.AllowSVG
	}
	ext, ok := imageExtensions[mime]
	return ext, ok
}

// Validate checks the MIME allow-list and per-kind ceilings. It makes no
// network calls.
func (a *AssetIngestor) Validate(assets []Asset) error {
	seen := make(map[AssetKind]bool, len(assets))
	for _, as := range assets {
		limit, ok := a.limitFor(as.Kind)
		if !ok {
			return fmt.Errorf("%w: unknown asset kind %q", utils.ErrValidation, as.Kind)
		}
		if seen[as.Kind] {
			return fmt.Errorf("%w: more than one %s supplied", utils.ErrValidation, as.Kind)
		}
		seen[as.Kind] = true

		if _, ok := a.extensionFor(normalizeMIME(as.MIME)); !ok {
			return fmt.Errorf("%w: %s must be a supported image, got %q", utils.ErrValidation, as.Kind, as.MIME)
		}
		if len(as.Data) == 0 {
			return fmt.Errorf("%w: %s is empty", utils.ErrValidation, as.Kind)
		}
		if int64(len(as.Data)) > limit {
			return fmt.Errorf("%w: %s is %d bytes, limit is %d", utils.ErrValidation, as.Kind, len(as.Data), limit)
		}
	}
	return nil
}

// Ingest validates every asset first, then uploads them sequentially under
// claims/<tenant>/<businessID>/. Any failure is reported as ErrUploadFailed;
// the caller owns rollback.
func (a *AssetIngestor) Ingest(
	ctx context.Context,
	tenant string,
	businessID uuid.UUID,
	assets []Asset,
) (AssetURLs, error) {
	var urls AssetURLs
	if err := a.Validate(assets); err != nil {
		return urls, fmt.Errorf("%w: %v", utils.ErrUploadFailed, err)
	}

	for _, as := range assets {
		mime := normalizeMIME(as.MIME)
		ext, _ := a.extensionFor(mime)
		path := AssetPath(tenant, businessID, as.Kind, a.newID(), ext)

		url, err := a.store.Upload(ctx, as.Data, mime, path)
		if err != nil {
			utils.Logger.WithFields(logrus.Fields{
				"business_id": businessID.String(),
				"asset_kind":  as.Kind,
				"filename":    as.Filename,
			}).WithError(err).Error("Claim asset upload failed")
			return urls, fmt.Errorf("%w: %s: %v", utils.ErrUploadFailed, as.Kind, err)
		}

		switch as.Kind {
		case AssetKindLogo:
			urls.LogoURL = &url
		case AssetKindHeroImage:
			urls.HeroImageURL = &url
		}
	}
	return urls, nil
}

func (a *AssetIngestor) limitFor(kind AssetKind) (int64, bool) {
	switch kind {
	case AssetKindLogo:
		return a.limits.MaxLogoBytes, true
	case AssetKindHeroImage:
		return a.limits.MaxHeroImageBytes, true
	default:
		return 0, false
	}
}

// AssetPath builds the object path from trusted values only.
func AssetPath(tenant string, businessID uuid.UUID, kind AssetKind, id, ext string) string {
	return fmt.Sprintf("claims/%s/%s/%s-%s%s",
		pathSegment(tenant), businessID.String(), kind, pathSegment(id), ext)
}

func normalizeMIME(m string) string {
	m = utils.NormalizeKey(m)
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}

// pathSegment keeps [a-z0-9-_] and replaces everything else with '-'.
func pathSegment(s string) string {
	s = utils.NormalizeKey(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
