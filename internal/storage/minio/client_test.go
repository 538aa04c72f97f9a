package minio

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vkn-server/internal/model"
)

// fakeObjects implements objectAPI in memory.
type fakeObjects struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      string

	objects map[string]string
	getErr  error
	statErr error
}

func (f *fakeObjects) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}

func (f *fakeObjects) MakeBucket(_ context.Context, bucket string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = bucket
	return f.makeBucketErr
}

func (f *fakeObjects) GetObject(_ context.Context, _, key string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, noSuchKey()
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeObjects) StatObject(_ context.Context, _, key string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	if f.statErr != nil {
		return minioLib.ObjectInfo{}, f.statErr
	}
	if _, ok := f.objects[key]; !ok {
		return minioLib.ObjectInfo{}, noSuchKey()
	}
	return minioLib.ObjectInfo{Key: key}, nil
}

func noSuchKey() error {
	return minioLib.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		api        *fakeObjects
		wantErr    bool
		wantMadeIt bool
	}{
		{name: "bucket exists", api: &fakeObjects{bucketExists: true}},
		{name: "bucket created", api: &fakeObjects{}, wantMadeIt: true},
		{name: "exists check fails", api: &fakeObjects{bucketExistsErr: errors.New("boom")}, wantErr: true},
		{name: "create fails", api: &fakeObjects{makeBucketErr: errors.New("fail")}, wantErr: true, wantMadeIt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newClient(ctx, tt.api, "templates")
			if tt.wantErr {
				assert.Nil(t, c)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to ensure bucket exists")
			} else {
				require.NoError(t, err)
				assert.Equal(t, "templates", c.bucket)
			}
			if tt.wantMadeIt {
				assert.Equal(t, "templates", tt.api.madeBucket)
			} else {
				assert.Empty(t, tt.api.madeBucket)
			}
		})
	}
}

func TestClient_Download(t *testing.T) {
	ctx := context.Background()
	c := &Client{api: &fakeObjects{objects: map[string]string{"verify-email.html": "<p>hi</p>"}}, bucket: "b"}

	t.Run("found", func(t *testing.T) {
		rc, err := c.Download(ctx, "verify-email.html")
		require.NoError(t, err)
		defer rc.Close()

		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", string(body))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := c.Download(ctx, "reset-password.html")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("backend error", func(t *testing.T) {
		broken := &Client{api: &fakeObjects{getErr: errors.New("down")}, bucket: "b"}
		_, err := broken.Download(ctx, "verify-email.html")
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrNotFound)
		assert.Contains(t, err.Error(), "failed to get object")
	})
}

func TestClient_Exists(t *testing.T) {
	ctx := context.Background()
	c := &Client{api: &fakeObjects{objects: map[string]string{"a": "1"}}, bucket: "b"}

	ok, err := c.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)

	broken := &Client{api: &fakeObjects{statErr: errors.New("down")}, bucket: "b"}
	_, err = broken.Exists(ctx, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat object")
}
