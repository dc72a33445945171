// Package audioarchive is an optional S3 archive for sound-pack audio
// files referenced by PlayAudioFile effects, for users who keep their
// sound pack in object storage rather than on the machine running the
// reactor. Grounded on the teacher's internal/storage S3Store/TieredStore
// shape: an S3-backed store plus a local on-disk resolution chain in front
// of it, generalized from the teacher's trunk-recorder audio layout to a
// flat sound-pack key space.
package audioarchive

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Store is an S3-backed archive of sound-pack audio files.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	log    zerolog.Logger
}

// Options configures New.
type Options struct {
	Bucket   string
	Region   string
	Endpoint string // non-empty for an S3-compatible endpoint (e.g. MinIO)
	Prefix   string
	Log      zerolog.Logger
}

// New builds a Store from the default AWS credential chain plus opts.
func New(ctx context.Context, opts Options) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, err
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Store{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: opts.Bucket,
		prefix: opts.Prefix,
		log:    opts.Log.With().Str("component", "audioarchive").Logger(),
	}, nil
}

// HeadBucket verifies the bucket is reachable with the configured
// credentials, for a startup check and for health reporting.
func (s *Store) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	return err
}

// Download fetches key into memory.
func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	objKey := s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objKey})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Upload stores data under key.
func (s *Store) Upload(ctx context.Context, key string, data []byte) error {
	objKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &objKey,
		Body:   bytes.NewReader(data),
	})
	return err
}

// Exists checks whether key is present in the bucket.
func (s *Store) Exists(ctx context.Context, key string) bool {
	objKey := s.objectKey(key)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &objKey})
	return err == nil
}

func (s *Store) objectKey(key string) string {
	if s.prefix != "" {
		return s.prefix + "/" + key
	}
	return key
}
