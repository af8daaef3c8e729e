package pdfgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options: pdf.archive.* の S3 部分。Endpoint を入れると MinIO 等の互換ストレージ向けに path-style になる
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	KMSKeyID string
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Archive は PDF を <prefix>/<申請ID>.pdf に置く
type S3Archive struct {
	client   s3API
	bucket   string
	prefix   string
	kmsKeyID string
}

var _ ArchiveStore = (*S3Archive)(nil)

func NewS3Archive(ctx context.Context, o S3Options) (*S3Archive, error) {
	if strings.TrimSpace(o.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(o.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return newS3Archive(client, o), nil
}

func newS3Archive(client s3API, o S3Options) *S3Archive {
	return &S3Archive{
		client:   client,
		bucket:   o.Bucket,
		prefix:   strings.Trim(strings.TrimSpace(o.Prefix), "/"),
		kmsKeyID: strings.TrimSpace(o.KMSKeyID),
	}
}

func (a *S3Archive) objectKey(id string) (string, error) {
	if err := validKey(id); err != nil {
		return "", err
	}
	if a.prefix == "" {
		return id + ".pdf", nil
	}
	return a.prefix + "/" + id + ".pdf", nil
}

// Save: 同じキーへの PutObject は上書き（再生成）
func (a *S3Archive) Save(ctx context.Context, id string, pdf []byte) error {
	key, err := a.objectKey(id)
	if err != nil {
		return err
	}
	in := &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(pdf),
		ContentLength: aws.Int64(int64(len(pdf))),
		ContentType:   aws.String("application/pdf"),
	}
	if a.kmsKeyID != "" {
		in.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		in.SSEKMSKeyId = aws.String(a.kmsKeyID)
	} else {
		in.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}
	if _, err := a.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 put object bucket=%s key=%s: %w", a.bucket, key, err)
	}
	return nil
}

func (a *S3Archive) Open(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	key, err := a.objectKey(id)
	if err != nil {
		return nil, 0, err
	}
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if isNoSuchKey(err) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("s3 get object bucket=%s key=%s: %w", a.bucket, key, err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
