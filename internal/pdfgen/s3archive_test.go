package pdfgen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	getErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func TestS3Archive(t *testing.T) {
	ctx := context.Background()
	api := &fakeS3{objects: map[string][]byte{}}
	a := newS3Archive(api, S3Options{Bucket: "forms", Prefix: "/pdfs/"})

	require.NoError(t, a.Save(ctx, "01HX", []byte("%PDF-1")))
	require.NoError(t, a.Save(ctx, "01HX", []byte("%PDF-2")))

	require.Len(t, api.puts, 2)
	assert.Equal(t, "pdfs/01HX.pdf", aws.ToString(api.puts[0].Key))
	assert.Equal(t, "application/pdf", aws.ToString(api.puts[0].ContentType))
	assert.Equal(t, s3types.ServerSideEncryptionAes256, api.puts[0].ServerSideEncryption)

	rc, size, err := a.Open(ctx, "01HX")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF-2", string(body))
	assert.Equal(t, int64(6), size)

	_, _, err = a.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = a.Open(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, a.Save(ctx, "a/b", nil), ErrInvalidKey)
}

func TestS3Archive_KMSAndErrors(t *testing.T) {
	ctx := context.Background()
	api := &fakeS3{objects: map[string][]byte{}}
	a := newS3Archive(api, S3Options{Bucket: "forms", KMSKeyID: " key-1 "})

	require.NoError(t, a.Save(ctx, "X", []byte("%PDF-")))
	assert.Equal(t, "X.pdf", aws.ToString(api.puts[0].Key))
	assert.Equal(t, s3types.ServerSideEncryptionAwsKms, api.puts[0].ServerSideEncryption)
	assert.Equal(t, "key-1", aws.ToString(api.puts[0].SSEKMSKeyId))

	api.getErr = errors.New("connection reset")
	_, _, err := a.Open(ctx, "X")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewS3Archive_RequiresBucket(t *testing.T) {
	_, err := NewS3Archive(context.Background(), S3Options{})
	assert.Error(t, err)
}
