package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/blindauction/internal/common"
)

// 1x1 transparent PNG header is enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	opts s3.Options
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func withFakes(t *testing.T, put *fakePutter) {
	t.Helper()
	origLoad, origNew, origNow := loadDefaultAWSConfig, newS3Client, now
	t.Cleanup(func() { loadDefaultAWSConfig, newS3Client, now = origLoad, origNew, origNow })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-north-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{Region: lo.Region}, nil
	}
	newS3Client = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		for _, fn := range optFns {
			fn(&put.opts)
		}
		return put
	}
	now = func() time.Time { return time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC) }
}

func testConfig() Config {
	return Config{
		Bucket:       "auctions",
		Region:       "eu-north-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestUpload(t *testing.T) {
	put := &fakePutter{}
	withFakes(t, put)

	u, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	assert.True(t, put.opts.UsePathStyle)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(put.opts.BaseEndpoint))

	url, err := u.Upload(context.Background(), writeFile(t, "vase.PNG", pngBytes))
	require.NoError(t, err)

	key := aws.ToString(put.in.Key)
	assert.True(t, strings.HasPrefix(key, "auctions/2025/03/07/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "auctions", aws.ToString(put.in.Bucket))
	assert.Equal(t, "image/png", aws.ToString(put.in.ContentType))
	assert.Equal(t, int64(len(pngBytes)), aws.ToInt64(put.in.ContentLength))
	assert.Equal(t, pngBytes, put.body, "body is sent from the start")
	assert.Equal(t, "http://127.0.0.1:9000/auctions/"+key, url)
}

func TestUpload_RejectsNonImage(t *testing.T) {
	put := &fakePutter{}
	withFakes(t, put)
	u, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), writeFile(t, "notes.txt", []byte("hello world")))
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Nil(t, put.in)
}

func TestUpload_PutError(t *testing.T) {
	put := &fakePutter{err: errors.New("403 forbidden")}
	withFakes(t, put)
	u, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), writeFile(t, "a.png", pngBytes))
	assert.ErrorIs(t, err, common.ErrTransport)

	_, err = u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestNew_Disabled(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNew_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}
	_, err := New(context.Background(), testConfig(), nil)
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	u := &Uploader{cfg: Config{Bucket: "b", Region: "us-east-1", PublicBaseURL: "https://cdn.example.com/"}}
	assert.Equal(t, "https://cdn.example.com/k", u.URL("k"))

	u.cfg.PublicBaseURL = ""
	assert.Equal(t, "https://b.s3.us-east-1.amazonaws.com/k", u.URL("k"))
}
