package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/config"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

// Upload describes a file handed to the media store.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaStore puts uploaded files into an S3-compatible bucket and hands back
// their public URL.
type MediaStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewMediaStore(cfg config.MediaConfig, logger *zap.Logger) (*MediaStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media client: %w", err)
	}
	return &MediaStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    logger.Named("media_store"),
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("bucket created", zap.String("bucket", s.bucket))
	return nil
}

// Put stores the upload and returns its public URL.
func (s *MediaStore) Put(ctx context.Context, up Upload) (string, error) {
	if !AllowedContentType(up.ContentType) {
		return "", apperr.Invalid([]apperr.FieldError{{Field: "file", Message: "only images and videos can be uploaded"}})
	}
	object := s.objectName(up.Filename)

	info, err := s.client.PutObject(ctx, s.bucket, object, up.Body, up.Size, minio.PutObjectOptions{
		ContentType: up.ContentType,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "failed to store media")
	}
	s.logger.Info("media stored", zap.String("object", object), zap.Int64("size", info.Size))
	return s.publicURL + "/" + object, nil
}

// objectName keeps only the extension of the client's filename.
func (s *MediaStore) objectName(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return fmt.Sprintf("uploads/%s/%s%s", s.now().UTC().Format("2006/01"), s.newID(), ext)
}

func AllowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}
