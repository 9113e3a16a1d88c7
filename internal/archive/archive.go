// internal/archive/archive.go
// Package archive preserves accepted events in object storage so they can
// be replayed or audited later. Archiving is best-effort: a write failure
// is counted and logged, never surfaced to ingest.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/trigger"
)

// ObjectStore is the slice of object storage the archiver needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader) error
}

// Config locates the archive bucket.
type Config struct {
	Bucket      string
	Prefix      string
	Region      string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Compression string
}

// Archiver writes one object per accepted event.
type Archiver struct {
	store   ObjectStore
	prefix  string
	codec   Codec
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

// New creates an archiver over an S3-compatible bucket.
func New(ctx context.Context, cfg Config, collector *metrics.Collector, logger *zap.Logger) (*Archiver, error) {
	store, err := newS3Store(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStore(store, cfg, collector, logger)
}

// NewWithStore creates an archiver over any object store.
func NewWithStore(store ObjectStore, cfg Config, collector *metrics.Collector, logger *zap.Logger) (*Archiver, error) {
	codec, err := NewCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "events"
	}
	return &Archiver{
		store:   store,
		prefix:  prefix,
		codec:   codec,
		metrics: collector,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Archive stores one event. Keys shard by type and day so replay tooling
// can list a bounded range: {prefix}/{type}/{yyyy/mm/dd}/{id}.json{ext}.
func (a *Archiver) Archive(ctx context.Context, event trigger.Event) {
	err := a.write(ctx, event)
	a.metrics.RecordArchiveWrite(err)
	if err != nil {
		a.logger.Warn("event archive write failed",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

func (a *Archiver) write(ctx context.Context, event trigger.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	body, err := a.codec.Encode(data)
	if err != nil {
		return fmt.Errorf("compress event: %w", err)
	}
	key := a.key(event)
	if err := a.store.Put(ctx, key, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (a *Archiver) key(event trigger.Event) string {
	day := a.now().UTC().Format("2006/01/02")
	return fmt.Sprintf("%s/%s/%s/%s.json%s", a.prefix, event.Type, day, event.ID, a.codec.Ext())
}

// s3Store adapts the AWS SDK client to ObjectStore.
type s3Store struct {
	client *s3.Client
	bucket string
}

func newS3Store(ctx context.Context, cfg Config) (*s3Store, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", s.bucket, key, err)
	}
	return nil
}
