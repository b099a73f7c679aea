//go:build integration

package source

import (
	"bytes"
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coveway/textvec/internal/testutil"
)

func setupBucket(ctx context.Context, t *testing.T, rc *testutil.RustFSContainer, bucket string, objects map[string]string) {
	src, err := NewS3Source(ctx, S3SourceConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     rc.AccessKey,
		SecretAccessKey: rc.SecretKey,
		Bucket:          bucket,
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	_, err = src.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err)

	for key, body := range objects {
		_, err := src.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader([]byte(body)),
		})
		require.NoError(t, err)
	}
}

func newTestS3Source(ctx context.Context, t *testing.T, rc *testutil.RustFSContainer, bucket, prefix string) *S3Source {
	src, err := NewS3Source(ctx, S3SourceConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     rc.AccessKey,
		SecretAccessKey: rc.SecretKey,
		Bucket:          bucket,
		Prefix:          prefix,
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	return src
}

func TestS3Source_Load(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	setupBucket(ctx, t, rc, "docs", map[string]string{
		"alpha.txt":     "hello world",
		"nested/b.txt":  "nested text",
		"ignored.pdf":   "binary stuff",
		"also_ignored/": "",
	})

	src := newTestS3Source(ctx, t, rc, "docs", "")

	docs, failures, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, docs, 2)

	byName := map[string]string{}
	for _, d := range docs {
		byName[d.Name] = d.Text
	}
	assert.Equal(t, "hello world", byName["alpha.txt"])
	assert.Equal(t, "nested text", byName["b.txt"])
}

func TestS3Source_PrefixFilters(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	setupBucket(ctx, t, rc, "docs", map[string]string{
		"in/scope.txt":    "inside",
		"out/ignored.txt": "outside",
	})

	src := newTestS3Source(ctx, t, rc, "docs", "in/")

	docs, failures, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, docs, 1)
	assert.Equal(t, "scope.txt", docs[0].Name)
	assert.Equal(t, "inside", docs[0].Text)
}

func TestS3Source_MissingBucketAborts(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	src := newTestS3Source(ctx, t, rc, "no-such-bucket", "")

	docs, failures, err := src.Load(ctx)
	require.Error(t, err)
	assert.Nil(t, docs)
	assert.Nil(t, failures)
}
