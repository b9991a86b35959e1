// Package service issues presigned S3 PUT URLs so browser clients upload
// media directly to object storage instead of proxying bytes through the API.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"atelier/internal/platform/config"
	"atelier/internal/platform/middleware"
	dErrors "atelier/pkg/domain-errors"
	audit "atelier/pkg/platform/audit"
)

// Presigner abstracts the S3 presign client so tests can stub signing.
type Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// AuditPublisher records upload events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Folders the API will sign uploads into. Anything else is rejected.
var allowedFolders = map[string]struct{}{
	"article-covers": {},
	"avatars":        {},
	"categories":     {},
}

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type PresignRequest struct {
	Folder      string `json:"folder"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type PresignResult struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	ExpiresIn int    `json:"expiresIn"`
}

type Service struct {
	presigner Presigner
	cfg       config.S3Config
	audit     AuditPublisher
	logger    *slog.Logger
}

func New(presigner Presigner, cfg config.S3Config, auditPub AuditPublisher, logger *slog.Logger) *Service {
	return &Service{
		presigner: presigner,
		cfg:       cfg,
		audit:     auditPub,
		logger:    logger,
	}
}

// NewPresignerFromConfig builds a real S3 presign client. Returns nil when the
// bucket is not configured so the feature can be left off in development.
func NewPresignerFromConfig(ctx context.Context, cfg config.S3Config) (Presigner, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewPresignClient(s3.NewFromConfig(awsCfg)), nil
}

// Presign validates the request and signs a PUT URL for a storage key derived
// from the folder, the current date, and a random UUID.
func (s *Service) Presign(ctx context.Context, req PresignRequest, actorID uuid.UUID) (*PresignResult, error) {
	if s.presigner == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "uploads are not configured")
	}
	if _, ok := allowedFolders[req.Folder]; !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown upload folder "+req.Folder)
	}
	ext, ok := allowedContentTypes[strings.ToLower(req.ContentType)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported content type "+req.ContentType)
	}
	if e := strings.ToLower(path.Ext(req.FileName)); e != "" && e != ext && !(e == ".jpeg" && ext == ".jpg") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "file extension does not match content type")
	}

	key := storageKey(req.Folder, ext)
	signed, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "presign upload", err)
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		ActorID:  actorID.String(),
		Subject:  key,
		Action:   string(audit.EventUploadPresigned),
	})

	return &PresignResult{
		UploadURL: signed.URL,
		Key:       key,
		PublicURL: s.publicURL(key),
		ExpiresIn: int(s.cfg.PresignTTL / time.Second),
	}, nil
}

func (s *Service) publicURL(key string) string {
	if s.cfg.PublicBaseURL == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
	}
	return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + key
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = middleware.GetRequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func storageKey(folder, ext string) string {
	now := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%s%s", folder, now.Year(), now.Month(), uuid.New(), ext)
}
