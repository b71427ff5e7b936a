package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	sink := FileSink{Dir: dir}

	p, err := sink.Put(context.Background(), "tile_1/network.geojson", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tile_1", "network.geojson"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFileSinkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FileSink{Dir: t.TempDir()}.Put(ctx, "x.png", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	fake := &fakeS3{}
	sink := &S3Sink{Client: fake, Bucket: "maps", Prefix: "runs/42"}

	key, err := PutReader(context.Background(), sink, "network.geojson", strings.NewReader(`{"type":"FeatureCollection"}`))
	require.NoError(t, err)
	assert.Equal(t, "runs/42/network.geojson", key)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "maps", aws.ToString(in.Bucket))
	assert.Equal(t, "runs/42/network.geojson", aws.ToString(in.Key))
	assert.Equal(t, "application/geo+json", aws.ToString(in.ContentType))
	assert.Equal(t, `{"type":"FeatureCollection"}`, fake.bodies[0])
}

func TestS3SinkError(t *testing.T) {
	sink := &S3Sink{Client: &fakeS3{err: errors.New("denied")}, Bucket: "maps"}
	_, err := sink.Put(context.Background(), "overlay.png", []byte{1})
	assert.ErrorContains(t, err, "denied")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("overlay.png"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}

func TestNewS3SinkNeedsBucket(t *testing.T) {
	t.Setenv("AWS_BUCKET", "")
	_, err := NewS3Sink(context.Background(), "")
	assert.Error(t, err)
}
