// Package exports writes print manifests of issued credentials to
// S3-compatible storage and hands back a presigned download URL for the
// badge renderer.
package exports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/benbjohnson/clock"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// URLExpiry is how long a presigned manifest URL stays usable.
const URLExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Settings is the storage part of the server configuration.
type Settings struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// Row is one printable credential.
type Row struct {
	SessionID string `json:"sessionId"`
	Wire      string `json:"wire"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Manifest is the document stored per export.
type Manifest struct {
	GeneratedAt int64 `json:"generatedAt"`
	Rows        []Row `json:"rows"`
}

// Exporter is satisfied by S3Exporter; services depend on this.
type Exporter interface {
	Export(ctx context.Context, rows []Row) (key string, url string, err error)
}

type S3Exporter struct {
	settings Settings
	clock    clock.Clock
}

func NewS3Exporter(settings Settings, clk clock.Clock) *S3Exporter {
	if clk == nil {
		clk = clock.New()
	}
	return &S3Exporter{settings: settings, clock: clk}
}

// ManifestKey returns the object key for a manifest generated at t.
func ManifestKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("manifests/%04d/%02d/%02d/%s.json", t.Year(), int(t.Month()), t.Day(), uuid.New())
}

func (e *S3Exporter) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(e.settings.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.settings.AccessKey,
			e.settings.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if e.settings.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(e.settings.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Export uploads rows as a JSON manifest and returns its key together with a
// presigned GET URL valid for URLExpiry.
func (e *S3Exporter) Export(ctx context.Context, rows []Row) (string, string, error) {
	now := e.clock.Now()

	body, err := json.Marshal(Manifest{GeneratedAt: now.UnixMilli(), Rows: rows})
	if err != nil {
		return "", "", fmt.Errorf("encode manifest: %w", err)
	}

	client, err := e.client(ctx)
	if err != nil {
		return "", "", fmt.Errorf("s3 config: %w", err)
	}

	bucket := e.settings.Bucket
	key := ManifestKey(now)

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return "", "", fmt.Errorf("upload manifest: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(URLExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign manifest: %w", err)
	}

	return key, req.URL, nil
}
