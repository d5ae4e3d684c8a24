package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	deleteErr error
	headErr   error
	deleted   []string
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, _ *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Storage_Delete(t *testing.T) {
	client := &fakeS3{}
	s := newS3Storage(client, "bucket", "https://cdn.example.com/")

	require.NoError(t, s.Delete(context.Background(), "places/a.jpg"))
	assert.Equal(t, []string{"places/a.jpg"}, client.deleted)
}

func TestS3Storage_DeleteNoSuchKeyIsOK(t *testing.T) {
	client := &fakeS3{deleteErr: awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)}
	s := newS3Storage(client, "bucket", "")

	assert.NoError(t, s.Delete(context.Background(), "places/a.jpg"))
}

func TestS3Storage_DeleteError(t *testing.T) {
	client := &fakeS3{deleteErr: errors.New("connection reset")}
	s := newS3Storage(client, "bucket", "")

	assert.Error(t, s.Delete(context.Background(), "places/a.jpg"))
}

func TestS3Storage_Exists(t *testing.T) {
	client := &fakeS3{headErr: awserr.New("NotFound", "not found", nil)}
	s := newS3Storage(client, "bucket", "")

	ok, err := s.Exists(context.Background(), "places/a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	client.headErr = nil
	ok, err = s.Exists(context.Background(), "places/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestS3Storage_GetURL(t *testing.T) {
	s := newS3Storage(&fakeS3{}, "bucket", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/places/a.jpg", s.GetURL("places/a.jpg"))
}

func TestNewCloudflareR2Storage_RequiresEndpoint(t *testing.T) {
	_, err := NewCloudflareR2Storage(Config{Bucket: "b"})
	assert.Error(t, err)
}
