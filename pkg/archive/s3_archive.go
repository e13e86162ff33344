package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"go-jobalert-scheduler/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds configuration for S3-compatible storage
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint is set for S3-compatible providers (Wasabi, MinIO); empty means AWS.
	Endpoint  string
	KeyPrefix string
}

// Putter is the subset of the S3 client the archive uses.
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client creates an S3 client with the given config.
// A custom endpoint switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint == "" {
		return s3.NewFromConfig(awsCfg), nil
	}

	endpoint := cfg.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

// S3Archive writes pass summaries as JSON objects, one per run.
type S3Archive struct {
	client Putter
	bucket string
	prefix string
}

func NewS3Archive(client Putter, cfg Config) *S3Archive {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "alert-passes"
	}
	return &S3Archive{client: client, bucket: cfg.Bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key of a summary: <prefix>/<yyyy>/<mm>/<dd>/<type>-<run id>.json
func (a *S3Archive) Key(summary *domain.PassSummary) string {
	day := summary.StartedAt.UTC().Format("2006/01/02")
	return path.Join(a.prefix, day, fmt.Sprintf("%s-%s.json", summary.Type, summary.RunID))
}

func (a *S3Archive) Archive(ctx context.Context, summary *domain.PassSummary) error {
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pass summary: %w", err)
	}
	sum := sha256.Sum256(body)

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(summary)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"run-id": summary.RunID,
			"sha256": hex.EncodeToString(sum[:]),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write pass summary to S3: %w", err)
	}
	return nil
}
