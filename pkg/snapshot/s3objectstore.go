package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	. "github.com/weberc2/nachofs/pkg/types"
)

// imageContentType is attached to every uploaded snapshot so S3 consoles
// don't try to render a disk image as text.
const imageContentType = "application/octet-stream"

// S3ObjectStore keeps snapshot images in S3.
type S3ObjectStore struct {
	Client *s3.S3
}

// NewS3ObjectStore builds a client from the environment's AWS
// configuration. An empty `region` defers to that configuration too.
func NewS3ObjectStore(region string) (*S3ObjectStore, error) {
	config := aws.NewConfig()
	if region != "" {
		config = config.WithRegion(region)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &S3ObjectStore{Client: s3.New(sess)}, nil
}

func (store *S3ObjectStore) PutObject(
	bucket string,
	key string,
	image io.ReadSeeker,
) error {
	if _, err := store.Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        image,
		ContentType: aws.String(imageContentType),
	}); err != nil {
		return fmt.Errorf(
			"uploading snapshot `%s` to bucket `%s`: %w",
			key,
			bucket,
			err,
		)
	}
	return nil
}

func (store *S3ObjectStore) GetObject(
	bucket string,
	key string,
) (io.ReadCloser, error) {
	rsp, err := store.Client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translate(bucket, key, "downloading", err)
	}
	return rsp.Body, nil
}

// ListObjects returns every key under `prefix`, following continuation
// tokens until the listing is exhausted.
func (store *S3ObjectStore) ListObjects(
	bucket string,
	prefix string,
) ([]string, error) {
	var keys []string
	if err := store.Client.ListObjectsV2Pages(
		&s3.ListObjectsV2Input{
			Bucket: aws.String(bucket),
			Prefix: aws.String(prefix),
		},
		func(page *s3.ListObjectsV2Output, _ bool) bool {
			for _, object := range page.Contents {
				keys = append(keys, aws.StringValue(object.Key))
			}
			return true
		},
	); err != nil {
		return keys, fmt.Errorf(
			"listing snapshots in bucket `%s` under `%s`: %w",
			bucket,
			prefix,
			err,
		)
	}
	return keys, nil
}

// DeleteObject removes the snapshot at `key`. S3 deletes are idempotent, so
// the key is checked first to report a missing snapshot the same way
// GetObject does.
func (store *S3ObjectStore) DeleteObject(bucket, key string) error {
	if _, err := store.Client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return translate(bucket, key, "deleting", err)
	}
	if _, err := store.Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return translate(bucket, key, "deleting", err)
	}
	return nil
}

// translate maps S3's missing-key codes onto ObjectNotFoundErr. GetObject
// reports NoSuchKey; HeadObject has no body, so it reports a bare NotFound.
func translate(bucket, key, verb string, err error) error {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return &ObjectNotFoundErr{Bucket: bucket, Key: key}
		}
	}
	return fmt.Errorf(
		"%s snapshot `%s` in bucket `%s`: %w",
		verb,
		key,
		bucket,
		err,
	)
}
