package store

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	awsS3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
)

func Test_S3Store(t *testing.T) {
	bucket := &mockS3{objects: map[string][]byte{}}
	s := &S3Store{s3: bucket, bucketName: "golden-vcr-overlay", prefix: "overlay"}
	testStore(t, s)

	assert.NoError(t, s.Save(t.Context(), "chatStyles/somechannel", []byte(`{}`)))
	_, ok := bucket.objects["overlay/chatStyles/somechannel.json"]
	assert.True(t, ok)
}

type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *mockS3) GetObjectWithContext(ctx aws.Context, input *awsS3.GetObjectInput, opts ...request.Option) (*awsS3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, awserr.New(awsS3.ErrCodeNoSuchKey, "not found", nil)
	}
	return &awsS3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObjectWithContext(ctx aws.Context, input *awsS3.PutObjectInput, opts ...request.Option) (*awsS3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*input.Key] = data
	return &awsS3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObjectWithContext(ctx aws.Context, input *awsS3.DeleteObjectInput, opts ...request.Option) (*awsS3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &awsS3.DeleteObjectOutput{}, nil
}

var _ s3API = (*mockS3)(nil)
