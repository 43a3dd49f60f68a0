// Package snapshotexport serializes a yachtsql.Table to an object-storage
// object, the backup half of StorageBackend's language-agnostic encoding.
// Grounded on the AWS SDK v2 usage: its
// config.LoadDefaultConfig/credentials.NewStaticCredentialsProvider setup in
// internal/e2e_harness/fixtures.go's UploadFileToS3, and
// manager.NewUploader's upload-manager pattern for streaming a body to S3.
package snapshotexport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/yachtsql/yachtsql"
)

// Config names the bucket/endpoint a Snapshotter writes to, generalizing
// UploadFileToS3's endpoint/accessKey/secretKey/bucket parameter list into a
// reusable struct rather than five positional arguments.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // set for S3-compatible stores (MinIO, RustFS); empty uses AWS's default resolver
	AccessKey string
	SecretKey string
}

// Snapshot is a named, timestamped capture of a table's rows, the unit
// TableToSnapshot produces and Snapshotter.Upload ships to blob storage.
type Snapshot struct {
	Name      string          `json:"name"`
	Schema    yachtsql.Schema `json:"schema"`
	Rows      []yachtsql.Record `json:"rows"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshotter uploads Snapshot values to S3 (or an S3-compatible store)
// using the AWS SDK v2 upload manager, the same client/uploader pairing
// internal/e2e_harness/fixtures.go's UploadFileToS3 builds.
type Snapshotter struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewSnapshotter resolves AWS config (static credentials plus an optional
// custom endpoint for S3-compatible stores) and constructs a path-style S3
// client, then ensures the target bucket exists, mirroring UploadFileToS3's
// HeadBucket-then-CreateBucket idempotent bucket check.
func NewSnapshotter(ctx context.Context, cfg Config) (*Snapshotter, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		if _, cerr := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.Bucket)}); cerr != nil {
			var apiErr smithy.APIError
			if errors.As(cerr, &apiErr) {
				code := apiErr.ErrorCode()
				if code != "BucketAlreadyOwnedByYou" && code != "BucketAlreadyExists" {
					return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, cerr)
				}
			} else {
				return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, cerr)
			}
		}
	}

	return &Snapshotter{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// objectKey derives the snapshot's storage key from its name and creation
// time, the same "<prefix>/<name>/<timestamp>.json" layout as the
// CDC flusher's "<prefix>/delta/<schema_id>/<uuid>.parquet" key scheme,
// substituting a snapshot name for a schema id and JSON for parquet (the
// in-memory engine has no parquet writer of its own).
func (sn *Snapshotter) objectKey(snap Snapshot) string {
	prefix := sn.prefix
	if prefix != "" {
		prefix = prefix + "/"
	}
	return fmt.Sprintf("%s%s/%d.json", prefix, snap.Name, snap.CreatedAt.UnixMilli())
}

// Upload JSON-encodes snap and streams it to the configured bucket through
// the AWS SDK v2 upload manager.
func (sn *Snapshotter) Upload(ctx context.Context, snap Snapshot) (string, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot %s: %w", snap.Name, err)
	}

	key := sn.objectKey(snap)
	uploader := manager.NewUploader(sn.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(sn.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot %s: %w", snap.Name, err)
	}
	return key, nil
}

// Download fetches and decodes a previously uploaded snapshot.
func (sn *Snapshotter) Download(ctx context.Context, key string) (Snapshot, error) {
	out, err := sn.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(sn.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("download snapshot %s: %w", key, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot body %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(buf.Bytes(), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
	}
	return snap, nil
}

// TableToSnapshot captures a Table's current rows as a named Snapshot.
func TableToSnapshot(name string, table *yachtsql.Table, createdAt time.Time) Snapshot {
	return Snapshot{
		Name:      name,
		Schema:    table.TableSchema(),
		Rows:      table.Rows(),
		CreatedAt: createdAt,
	}
}
