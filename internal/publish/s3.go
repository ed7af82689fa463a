// Package publish uploads run outputs to object storage.
package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/JonMunkholm/salesetl/internal/logging"
)

// Publisher copies finished output files somewhere durable and returns their
// locations.
type Publisher interface {
	Publish(ctx context.Context, runID string, files ...string) ([]string, error)
}

// S3Publisher uploads files to <bucket>/<prefix>/<run id>/<file name>.
type S3Publisher struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
}

// NewS3Publisher creates a publisher using the default AWS credential chain.
func NewS3Publisher(region, bucket, prefix string) (*S3Publisher, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return NewS3PublisherWithUploader(s3manager.NewUploader(sess), bucket, prefix), nil
}

// NewS3PublisherWithUploader wraps an existing uploader.
func NewS3PublisherWithUploader(u s3manageriface.UploaderAPI, bucket, prefix string) *S3Publisher {
	return &S3Publisher{uploader: u, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key for file in run runID.
func (p *S3Publisher) Key(runID, file string) string {
	return path.Join(p.prefix, runID, filepath.Base(file))
}

// Publish uploads each file in order and stops at the first failure.
func (p *S3Publisher) Publish(ctx context.Context, runID string, files ...string) ([]string, error) {
	logger := logging.WithFields(ctx, "bucket", p.bucket)

	var locations []string
	for _, file := range files {
		loc, err := p.upload(ctx, runID, file)
		if err != nil {
			logger.Error("failed to publish file", "file", file, "error", err)
			return locations, err
		}
		logger.Info("file published", "file", file, "location", loc)
		locations = append(locations, loc)
	}
	return locations, nil
}

func (p *S3Publisher) upload(ctx context.Context, runID, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	result, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.Key(runID, file)),
		Body:        f,
		ContentType: aws.String(contentType(file)),
		Metadata: map[string]*string{
			"run-id":      aws.String(runID),
			"source-file": aws.String(filepath.Base(file)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", file, err)
	}
	return result.Location, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".pdf":
		return "application/pdf"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
