// Package s3 implements a store on Amazon S3 or any S3-compatible service.
// Every key is stored as its own object under a common prefix.
package s3

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/sitesync/pkg/errors"
)

const (
	objectSuffix = ".json"
	contentType  = "application/json"
)

// API is the subset of the S3 client used by Store. It lets tests swap in a
// mock client.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput,
		optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput,
		optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Options configures the S3 client created by New.
type Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	AppID    string
}

// Store maps keys to objects named `<prefix><escaped key>.json`.
type Store struct {
	client API
	bucket string
	prefix string
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, opts Options) (*Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AppID != "" {
		loadOpts = append(loadOpts, awsconfig.WithAppID(opts.AppID))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.WithContext(err, "load aws config")
	}

	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, opts.Bucket, opts.Prefix), nil
}

// NewWithClient creates a Store over an existing client.
func NewWithClient(client API, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) objectKey(key string) string {
	return s.prefix + url.PathEscape(key) + objectSuffix
}

func (s *Store) keyFromObject(objectKey string) (string, bool) {
	name := strings.TrimPrefix(objectKey, s.prefix)
	if name == objectKey && s.prefix != "" {
		return "", false
	}

	if !strings.HasSuffix(name, objectSuffix) {
		return "", false
	}

	key, err := url.PathUnescape(strings.TrimSuffix(name, objectSuffix))
	if err != nil {
		log.WithError(err).WithField("object", objectKey).Debug(
			"Ignoring object with an unparseable name")
		return "", false
	}
	return key, true
}

// Get downloads the object for `key`.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, errors.WithContext(err, "get object")
	}
	defer out.Body.Close()

	value, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return nil, false, errors.WithContext(err, "read object")
	}
	return value, true, nil
}

// Set uploads `value` as the object for `key`.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.WithContext(err, "put object")
	}
	return nil
}

// Keys lists every key stored under the prefix.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.WithContext(err, "list objects")
		}

		for _, obj := range page.Contents {
			if key, ok := s.keyFromObject(aws.ToString(obj.Key)); ok {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}
