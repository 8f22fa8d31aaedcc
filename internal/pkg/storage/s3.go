package storage

import (
	"bytes"
	"context"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

//S3Options keeps AWS connection settings
type S3Options struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	// Endpoint is for S3 compatible stores, empty for AWS
	Endpoint string
}

//S3Saver puts objects into the S3 bucket
type S3Saver struct {
	client s3iface.S3API
	bucket string
}

//NewS3Saver creates S3Saver. Static credentials are used if provided, the default AWS chain otherwise
func NewS3Saver(opt S3Options) (*S3Saver, error) {
	if opt.Bucket == "" {
		return nil, errors.New("No bucket")
	}
	cfg := &aws.Config{}
	if opt.Region != "" {
		cfg.Region = aws.String(opt.Region)
	}
	if opt.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opt.AccessKeyID, opt.SecretAccessKey, "")
	}
	if opt.Endpoint != "" {
		cfg.Endpoint = aws.String(opt.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "Can't init aws session")
	}
	cmdapp.Log.Infof("S3 bucket: %s, region: %s", opt.Bucket, opt.Region)
	return newS3Saver(s3.New(sess), opt.Bucket), nil
}

func newS3Saver(client s3iface.S3API, bucket string) *S3Saver {
	return &S3Saver{client: client, bucket: bucket}
}

//Save puts the object into the bucket
func (s *S3Saver) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrapf(err, "Can't put s3://%s/%s", s.bucket, key)
	}
	cmdapp.Log.Infof("Uploaded s3://%s/%s. Size = %d", s.bucket, key, len(data))
	return nil
}

//Healthy checks if the bucket is reachable
func (s *S3Saver) Healthy() error {
	_, err := s.client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return errors.Wrapf(err, "Can't reach bucket %s", s.bucket)
}
