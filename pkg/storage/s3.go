package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/brimdata/arbor"
)

// S3Engine stores objects in S3.  Batches are small enough that objects
// are read and written whole.
type S3Engine struct {
	client s3iface.S3API
}

var _ Engine = (*S3Engine)(nil)

func NewS3() *S3Engine {
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	return NewS3WithClient(s3.New(sess))
}

func NewS3WithClient(client s3iface.S3API) *S3Engine {
	return &S3Engine{client: client}
}

func bucketKey(u *URI) (*string, *string) {
	return aws.String(u.Host), aws.String(strings.TrimPrefix(u.Path, "/"))
}

func (s *S3Engine) Get(ctx context.Context, u *URI) (Reader, error) {
	bucket, key := bucketKey(u)
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{Bucket: bucket, Key: key})
	if err != nil {
		return nil, wrapErr(u, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	return newObjectReader(u, b), nil
}

func (s *S3Engine) Put(ctx context.Context, u *URI) (io.WriteCloser, error) {
	return &s3Writer{ctx: ctx, engine: s, uri: u}, nil
}

func (s *S3Engine) PutIfNotExists(context.Context, *URI, []byte) error {
	return ErrNotSupported
}

func (s *S3Engine) Delete(ctx context.Context, u *URI) error {
	bucket, key := bucketKey(u)
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: key})
	return wrapErr(u, err)
}

func (s *S3Engine) DeleteByPrefix(ctx context.Context, u *URI) error {
	bucket, prefix := bucketKey(u)
	var keys []*string
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{Bucket: bucket, Prefix: prefix},
		func(page *s3.ListObjectsV2Output, _ bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, obj.Key)
			}
			return true
		})
	if err != nil {
		return wrapErr(u, err)
	}
	for _, key := range keys {
		if _, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: key}); err != nil {
			return wrapErr(u, err)
		}
	}
	return nil
}

func (s *S3Engine) head(ctx context.Context, u *URI) (*s3.HeadObjectOutput, error) {
	bucket, key := bucketKey(u)
	out, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{Bucket: bucket, Key: key})
	return out, wrapErr(u, err)
}

func (s *S3Engine) Size(ctx context.Context, u *URI) (int64, error) {
	out, err := s.head(ctx, u)
	if err != nil {
		return 0, err
	}
	return aws.Int64Value(out.ContentLength), nil
}

func (s *S3Engine) Exists(ctx context.Context, u *URI) (bool, error) {
	_, err := s.head(ctx, u)
	if errors.Is(err, arbor.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *S3Engine) List(ctx context.Context, u *URI) ([]Info, error) {
	bucket, prefix := bucketKey(u)
	dir := strings.TrimSuffix(*prefix, "/") + "/"
	var infos []Info
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    bucket,
		Prefix:    aws.String(dir),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			infos = append(infos, Info{
				Name: strings.TrimPrefix(aws.StringValue(obj.Key), dir),
				Size: aws.Int64Value(obj.Size),
			})
		}
		return true
	})
	if err != nil {
		return nil, wrapErr(u, err)
	}
	return infos, nil
}

func wrapErr(u *URI, err error) error {
	var reqerr awserr.RequestFailure
	if errors.As(err, &reqerr) && reqerr.StatusCode() == http.StatusNotFound {
		return arbor.E(arbor.NotFound, "%s", u)
	}
	return err
}

type s3Writer struct {
	bytes.Buffer
	ctx    context.Context
	engine *S3Engine
	uri    *URI
}

func (w *s3Writer) Close() error {
	bucket, key := bucketKey(w.uri)
	_, err := w.engine.client.PutObjectWithContext(w.ctx, &s3.PutObjectInput{
		Bucket: bucket,
		Key:    key,
		Body:   bytes.NewReader(w.Bytes()),
	})
	return wrapErr(w.uri, err)
}
