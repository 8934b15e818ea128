package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/wovenlane/wovenlane-backend/pkg/config"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
)

const maxUploadBytes = 10 * 1024 * 1024

// allowedImageTypes is the content-type whitelist for product imagery.
var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

type urlSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

// Service issues signed upload and download URLs for product images. The
// bytes themselves never pass through the API.
type Service interface {
	PresignUpload(ctx context.Context, input PresignInput) (*PresignOutput, error)
	PresignDownload(ctx context.Context, objectKey string) (*DownloadOutput, error)
}

type service struct {
	signer      urlSigner
	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

// NewService constructs a media service backed by the provided signer.
func NewService(signer urlSigner, cfg config.GCSConfig) (Service, error) {
	if signer == nil {
		return nil, fmt.Errorf("url signer required")
	}
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if cfg.UploadURLExpiry <= 0 {
		return nil, fmt.Errorf("upload url expiry must be positive")
	}
	if cfg.DownloadURLExpiry <= 0 {
		return nil, fmt.Errorf("download url expiry must be positive")
	}
	return &service{
		signer:      signer,
		bucket:      cfg.BucketName,
		uploadTTL:   cfg.UploadURLExpiry,
		downloadTTL: cfg.DownloadURLExpiry,
	}, nil
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// PresignOutput is handed back to the admin console. ObjectKey is what
// gets stored on the product image row once the upload completes.
type PresignOutput struct {
	ObjectKey   string    `json:"object_key"`
	UploadURL   string    `json:"upload_url"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DownloadOutput carries a time-limited read URL for a stored object.
type DownloadOutput struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *service) PresignUpload(_ context.Context, input PresignInput) (*PresignOutput, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("size_bytes must not exceed %d bytes", maxUploadBytes))
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content_type is required")
	}
	if !isAllowedImageType(contentType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content_type not allowed for product images")
	}

	objectKey := buildObjectKey(fileName)
	signedURL, err := s.signer.SignedURL(s.bucket, objectKey, contentType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		ObjectKey:   objectKey,
		UploadURL:   signedURL,
		ContentType: contentType,
		ExpiresAt:   time.Now().Add(s.uploadTTL),
	}, nil
}

func (s *service) PresignDownload(_ context.Context, objectKey string) (*DownloadOutput, error) {
	key := strings.TrimSpace(objectKey)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object_key is required")
	}
	if !strings.HasPrefix(key, "products/") || strings.Contains(key, "..") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object_key outside the product images prefix")
	}

	signedURL, err := s.signer.SignedReadURL(s.bucket, key, s.downloadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}
	return &DownloadOutput{
		URL:       signedURL,
		ExpiresAt: time.Now().Add(s.downloadTTL),
	}, nil
}

func isAllowedImageType(contentType string) bool {
	for _, candidate := range allowedImageTypes {
		if strings.EqualFold(candidate, contentType) {
			return true
		}
	}
	return false
}

func buildObjectKey(fileName string) string {
	clean := sanitizeFileName(fileName)
	id := uuid.New()
	if clean == "" {
		clean = id.String()
	}
	return fmt.Sprintf("products/%s/%s", id.String(), clean)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
