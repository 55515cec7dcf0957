// Package media stages auction images in S3-compatible storage and returns
// the public URL the auction listing refers to.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/logging"
)

var ErrDisabled = errors.New("media uploads are not configured")

type Config struct {
	Bucket        string
	Region        string
	BaseEndpoint  string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// seams for tests
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig
	newS3Client          = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
	now = time.Now
)

type Uploader struct {
	cfg    Config
	client objectPutter
	log    logging.Logger
}

// New builds an uploader. It returns ErrDisabled when no bucket is set.
func New(ctx context.Context, cfg Config, logger logging.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = logging.Nop()
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3Client(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return &Uploader{cfg: cfg, client: client, log: logger.With("component", "media")}, nil
}

// Upload stores the image at path and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		verr := &common.ValidationError{}
		verr.Add("image", fmt.Sprintf("%s is %s, not an image", filepath.Base(path), contentType))
		return "", verr
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	key := ObjectKey(now(), filepath.Ext(path))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %w", common.ErrTransport, err)
	}

	url := u.URL(key)
	u.log.Info(ctx, "image uploaded", "key", key, "bytes", info.Size())
	return url, nil
}

// ObjectKey is auctions/<yyyy>/<mm>/<dd>/<uuid><ext>.
func ObjectKey(t time.Time, ext string) string {
	t = t.UTC()
	return fmt.Sprintf("auctions/%04d/%02d/%02d/%s%s", t.Year(), int(t.Month()), t.Day(), uuid.NewString(), strings.ToLower(ext))
}

// URL returns where key can be fetched from.
func (u *Uploader) URL(key string) string {
	switch {
	case u.cfg.PublicBaseURL != "":
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + key
	case u.cfg.BaseEndpoint != "":
		return strings.TrimRight(u.cfg.BaseEndpoint, "/") + "/" + u.cfg.Bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
	}
}
