package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	bucket, key, contentType, body string
	metadata                       map[string]string
}

type fakeUploader struct {
	uploads []upload
	failKey string
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(ctx aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	key := aws.StringValue(in.Key)
	if key == f.failKey {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, upload{
		bucket:      aws.StringValue(in.Bucket),
		key:         key,
		contentType: aws.StringValue(in.ContentType),
		body:        string(body),
		metadata:    aws.StringValueMap(in.Metadata),
	})
	return &s3manager.UploadOutput{Location: "s3://" + aws.StringValue(in.Bucket) + "/" + key}, nil
}

func writeFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	pdf := filepath.Join(dir, "relatorio.pdf")
	snap := filepath.Join(dir, "resumo.parquet")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.3"), 0o644))
	require.NoError(t, os.WriteFile(snap, []byte("PAR1"), 0o644))
	return pdf, snap
}

func TestS3Publisher_Publish(t *testing.T) {
	pdf, snap := writeFiles(t)
	u := &fakeUploader{}
	p := NewS3PublisherWithUploader(u, "bucket", "/reports/")

	locs, err := p.Publish(context.Background(), "run-1", snap, pdf)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s3://bucket/reports/run-1/resumo.parquet",
		"s3://bucket/reports/run-1/relatorio.pdf",
	}, locs)

	require.Len(t, u.uploads, 2)
	assert.Equal(t, "application/vnd.apache.parquet", u.uploads[0].contentType)
	assert.Equal(t, "PAR1", u.uploads[0].body)
	assert.Equal(t, "application/pdf", u.uploads[1].contentType)
	assert.Equal(t, map[string]string{"run-id": "run-1", "source-file": "relatorio.pdf"}, u.uploads[1].metadata)
}

func TestS3Publisher_StopsOnFailure(t *testing.T) {
	pdf, snap := writeFiles(t)
	u := &fakeUploader{failKey: "reports/run-1/resumo.parquet"}
	p := NewS3PublisherWithUploader(u, "bucket", "reports")

	locs, err := p.Publish(context.Background(), "run-1", snap, pdf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Empty(t, locs)
	assert.Empty(t, u.uploads)
}

func TestS3Publisher_MissingFile(t *testing.T) {
	p := NewS3PublisherWithUploader(&fakeUploader{}, "bucket", "")
	_, err := p.Publish(context.Background(), "run-1", filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
	assert.Equal(t, "run-1/nope.pdf", p.Key("run-1", "/tmp/nope.pdf"))
}
