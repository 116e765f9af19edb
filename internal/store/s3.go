package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	awsSession "github.com/aws/aws-sdk-go/aws/session"
	awsS3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// SpacesConfig describes an S3-compatible bucket (e.g. a DigitalOcean Spaces bucket)
type SpacesConfig struct {
	AccessKeyId    string `env:"SPACES_ACCESS_KEY_ID"`
	SecretKey      string `env:"SPACES_SECRET_KEY"`
	EndpointOrigin string `env:"SPACES_ENDPOINT_URL"`
	RegionName     string `env:"SPACES_REGION_NAME"`
	BucketName     string `env:"SPACES_BUCKET_NAME"`
	Prefix         string `env:"SPACES_KEY_PREFIX" default:"overlay"`
}

// s3API is the subset of the S3 client used by S3Store
type s3API interface {
	GetObjectWithContext(ctx aws.Context, input *awsS3.GetObjectInput, opts ...request.Option) (*awsS3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *awsS3.PutObjectInput, opts ...request.Option) (*awsS3.PutObjectOutput, error)
	DeleteObjectWithContext(ctx aws.Context, input *awsS3.DeleteObjectInput, opts ...request.Option) (*awsS3.DeleteObjectOutput, error)
}

var _ s3API = (*awsS3.S3)(nil)

// S3Store keeps each value as a private JSON object in a bucket: the key
// "chatStyles/foo" is stored at "<prefix>/chatStyles/foo.json"
type S3Store struct {
	s3         s3API
	bucketName string
	prefix     string
}

func NewS3Store(config SpacesConfig) (*S3Store, error) {
	awsConfig := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(config.AccessKeyId, config.SecretKey, ""),
		Endpoint:         aws.String(fmt.Sprintf("https://%s", config.EndpointOrigin)),
		Region:           aws.String(config.RegionName),
		S3ForcePathStyle: aws.Bool(false),
	}
	session, err := awsSession.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "create aws session")
	}
	return &S3Store{
		s3:         awsS3.New(session),
		bucketName: config.BucketName,
		prefix:     config.Prefix,
	}, nil
}

func (s *S3Store) Load(ctx context.Context, key string) ([]byte, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	output, err := s.s3.GetObjectWithContext(ctx, &awsS3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get object")
	}
	defer output.Body.Close()
	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read object")
	}
	return data, nil
}

// Save relies on S3 PUTs being atomic: readers see the whole old object or the whole
// new one
func (s *S3Store) Save(ctx context.Context, key string, data []byte) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.s3.PutObjectWithContext(ctx, &awsS3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ACL:         aws.String("private"),
		ContentType: aws.String("application/json"),
	})
	return errors.Wrap(err, "put object")
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.s3.DeleteObjectWithContext(ctx, &awsS3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	return errors.Wrap(err, "delete object")
}

func (s *S3Store) objectKey(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return path.Join(s.prefix, key+".json"), nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case awsS3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

var _ Store = (*S3Store)(nil)
