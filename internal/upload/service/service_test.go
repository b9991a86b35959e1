package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"atelier/internal/platform/config"
	dErrors "atelier/pkg/domain-errors"
	auditpub "atelier/pkg/platform/audit/publisher"
	auditmemory "atelier/pkg/platform/audit/store/memory"
)

type stubPresigner struct {
	lastInput *s3.PutObjectInput
	err       error
}

func (p *stubPresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.lastInput = in
	return &v4.PresignedHTTPRequest{URL: "https://signed.example.com/" + *in.Key}, nil
}

type UploadServiceSuite struct {
	suite.Suite
	ctx       context.Context
	presigner *stubPresigner
	audit     *auditmemory.InMemoryStore
	svc       *Service
	actor     uuid.UUID
}

func TestUploadServiceSuite(t *testing.T) {
	suite.Run(t, new(UploadServiceSuite))
}

func (s *UploadServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.presigner = &stubPresigner{}
	s.audit = auditmemory.NewInMemoryStore()
	s.actor = uuid.New()

	cfg := config.S3Config{
		Bucket:        "atelier-media",
		Region:        "eu-west-1",
		PublicBaseURL: "https://cdn.example.com",
		PresignTTL:    10 * time.Minute,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(s.presigner, cfg, auditpub.NewPublisher(s.audit), logger)
}

func (s *UploadServiceSuite) TestPresign() {
	s.Run("signs a key inside the requested folder", func() {
		result, err := s.svc.Presign(s.ctx, PresignRequest{
			Folder:      "article-covers",
			FileName:    "cover.png",
			ContentType: "image/png",
		}, s.actor)
		s.Require().NoError(err)

		s.True(strings.HasPrefix(result.Key, "article-covers/"))
		s.True(strings.HasSuffix(result.Key, ".png"))
		s.Equal("https://signed.example.com/"+result.Key, result.UploadURL)
		s.Equal("https://cdn.example.com/"+result.Key, result.PublicURL)
		s.Equal(600, result.ExpiresIn)
		s.Equal("atelier-media", *s.presigner.lastInput.Bucket)
	})

	s.Run("rejects folders outside the whitelist", func() {
		_, err := s.svc.Presign(s.ctx, PresignRequest{
			Folder:      "../../etc",
			FileName:    "x.png",
			ContentType: "image/png",
		}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects non-image content types", func() {
		_, err := s.svc.Presign(s.ctx, PresignRequest{
			Folder:      "avatars",
			FileName:    "payload.html",
			ContentType: "text/html",
		}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects extension mismatch", func() {
		_, err := s.svc.Presign(s.ctx, PresignRequest{
			Folder:      "avatars",
			FileName:    "photo.png",
			ContentType: "image/jpeg",
		}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("jpeg extension variants accepted", func() {
		_, err := s.svc.Presign(s.ctx, PresignRequest{
			Folder:      "avatars",
			FileName:    "photo.jpeg",
			ContentType: "image/jpeg",
		}, s.actor)
		s.Require().NoError(err)
	})

	s.Run("emits an audit event", func() {
		before := s.audit.Len()
		_, err := s.svc.Presign(s.ctx, PresignRequest{
			Folder:      "categories",
			FileName:    "icon.webp",
			ContentType: "image/webp",
		}, s.actor)
		s.Require().NoError(err)
		s.Equal(before+1, s.audit.Len())
	})
}

func (s *UploadServiceSuite) TestUnconfigured() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(nil, config.S3Config{}, auditpub.NewPublisher(s.audit), logger)

	_, err := svc.Presign(s.ctx, PresignRequest{
		Folder:      "avatars",
		FileName:    "x.png",
		ContentType: "image/png",
	}, s.actor)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
