package blobstore

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts      []*s3.PutObjectInput
	bodies    [][]byte
	deletes   []*s3.DeleteObjectInput
	putErr    error
	deleteErr error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
	key     string
}

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	f.key = aws.ToString(in.Key)
	return &v4.PresignedHTTPRequest{
		URL:    "https://" + aws.ToString(in.Bucket) + ".s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Expires=3600",
		Method: "GET",
	}, nil
}

func TestS3PutSetsAttributes(t *testing.T) {
	client := &fakeS3{}
	st := NewS3Store(client, &fakePresigner{}, "tasks-attachments-bucket")

	err := st.Put(context.Background(), "tasks/t/f.txt", []byte("hello"), PutOptions{
		ContentType: "text/plain",
		Metadata:    map[string]string{"taskId": "t", "originalFileName": "résumé.txt"},
	})
	require.NoError(t, err)
	require.Len(t, client.puts, 1)

	in := client.puts[0]
	assert.Equal(t, "tasks-attachments-bucket", aws.ToString(in.Bucket))
	assert.Equal(t, "tasks/t/f.txt", aws.ToString(in.Key))
	assert.Equal(t, "text/plain", aws.ToString(in.ContentType))
	assert.Equal(t, int64(5), aws.ToInt64(in.ContentLength))
	assert.Equal(t, "hello", string(client.bodies[0]))
	assert.Equal(t, "t", in.Metadata["taskId"])
	assert.Equal(t, url.QueryEscape("résumé.txt"), in.Metadata["originalFileName"])
}

func TestS3PutDefaultsContentType(t *testing.T) {
	client := &fakeS3{}
	st := NewS3Store(client, &fakePresigner{}, "b")
	require.NoError(t, st.Put(context.Background(), "k", []byte("x"), PutOptions{}))
	assert.Equal(t, "application/octet-stream", aws.ToString(client.puts[0].ContentType))
	assert.Nil(t, client.puts[0].Metadata)
}

func TestS3PresignGet(t *testing.T) {
	presigner := &fakePresigner{}
	st := NewS3Store(&fakeS3{}, presigner, "b")

	link, err := st.PresignGet(context.Background(), "tasks/t/f.txt", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, link, "tasks/t/f.txt")
	assert.Equal(t, time.Hour, presigner.expires)
	assert.Equal(t, "tasks/t/f.txt", presigner.key)
}

func TestS3DeleteAndErrors(t *testing.T) {
	client := &fakeS3{}
	st := NewS3Store(client, &fakePresigner{}, "b")
	ctx := context.Background()

	require.NoError(t, st.Delete(ctx, "tasks/t/f.txt"))
	require.Len(t, client.deletes, 1)
	assert.Equal(t, "tasks/t/f.txt", aws.ToString(client.deletes[0].Key))

	client.deleteErr = errors.New("access denied")
	err := st.Delete(ctx, "tasks/t/f.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	assert.ErrorIs(t, st.Put(ctx, "", nil, PutOptions{}), ErrInvalidKey)
}
