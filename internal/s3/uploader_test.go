package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestUploadFile(t *testing.T) {
	tests := []struct {
		name       string
		cloudFront string
		wantURL    string
	}{
		{name: "bucket url", wantURL: "https://herd.s3.ap-southeast-1.amazonaws.com/animals/f1/a1/x.png"},
		{name: "cloudfront", cloudFront: "cdn.example.com/", wantURL: "https://cdn.example.com/animals/f1/a1/x.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := &fakeObjects{}
			u := &Uploader{Client: objects, Bucket: "herd", Region: "ap-southeast-1", CloudFrontDomain: tt.cloudFront}

			url, err := u.UploadFile(context.Background(), strings.NewReader("png-bytes"), "animals/f1/a1/x.png", "image/png")
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, url)
			assert.Equal(t, "herd", aws.ToString(objects.input.Bucket))
			assert.Equal(t, "animals/f1/a1/x.png", aws.ToString(objects.input.Key))
			assert.Equal(t, "image/png", aws.ToString(objects.input.ContentType))
			assert.Equal(t, "png-bytes", objects.body)
		})
	}
}

func TestUploadFile_Error(t *testing.T) {
	u := &Uploader{Client: &fakeObjects{err: errors.New("access denied")}, Bucket: "herd", Region: "r"}

	_, err := u.UploadFile(context.Background(), strings.NewReader("x"), "k", "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
