package spaces

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/DMarby/additive-mask/internal/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// HeadObject reports a missing key with a bare 404 instead of NoSuchKey
const errCodeNotFound = "NotFound"

// Provider implements a digitalocean spaces based image storage
type Provider struct {
	spaces *s3.S3
	space  string
}

// New returns a new Provider instance
func New(space, endpoint, accessKey, secretKey string, forcePathStyle bool) (*Provider, error) {
	spacesSession, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"), // Needs to be us-east-1 for Spaces, or it'll fail
		S3ForcePathStyle: aws.Bool(forcePathStyle),
	})
	if err != nil {
		return nil, err
	}

	spaces := s3.New(spacesSession)

	if _, err := spaces.HeadBucket(&s3.HeadBucketInput{Bucket: &space}); err != nil {
		return nil, err
	}

	return &Provider{
		spaces: spaces,
		space:  space,
	}, nil
}

func key(path string) *string {
	return aws.String(strings.TrimPrefix(path, "/"))
}

func isNotFound(err error) bool {
	aerr, ok := err.(awserr.Error)
	return ok && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == errCodeNotFound)
}

// Exists reports whether an object exists at path
func (p *Provider) Exists(ctx context.Context, path string) (bool, error) {
	_, err := p.spaces.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &p.space,
		Key:    key(path),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Open returns a reader for the object at path
func (p *Provider) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	output, err := p.spaces.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &p.space,
		Key:    key(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return output.Body, nil
}

// Put uploads data to path, replacing any existing object
func (p *Provider) Put(ctx context.Context, path string, data []byte) error {
	_, err := p.spaces.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: &p.space,
		Key:    key(path),
		Body:   bytes.NewReader(data),
	})

	return err
}
