package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/erazemk/inventar/internal/model"
)

// S3Config describes the bucket snapshots are uploaded to.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for MinIO and other S3-compatible stores
	Prefix    string
	PathStyle bool
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores CSV and JSON snapshots of the inventory in a bucket.
type Uploader struct {
	client objectPutter
	bucket string
	prefix string
	labels Labels
}

// NewUploader builds an S3 client from the default AWS credential chain.
func NewUploader(ctx context.Context, cfg S3Config, labels Labels) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newUploader(client, cfg.Bucket, cfg.Prefix, labels), nil
}

func newUploader(client objectPutter, bucket, prefix string, labels Labels) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: prefix, labels: labels}
}

// Snapshot uploads both export formats under <prefix>/<UTC timestamp>/ and
// returns the object keys written.
func (u *Uploader) Snapshot(ctx context.Context, items []model.Item, at time.Time) ([]string, error) {
	dir := path.Join(u.prefix, at.UTC().Format("20060102T150405Z"))

	var csvBuf, jsonBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, items, u.labels); err != nil {
		return nil, err
	}
	if err := WriteJSON(&jsonBuf, items); err != nil {
		return nil, err
	}

	objects := []struct {
		key         string
		body        []byte
		contentType string
	}{
		{path.Join(dir, "inventory.csv"), csvBuf.Bytes(), "text/csv; charset=utf-8"},
		{path.Join(dir, "inventory.json"), jsonBuf.Bytes(), "application/json"},
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(obj.key),
			Body:        bytes.NewReader(obj.body),
			ContentType: aws.String(obj.contentType),
		})
		if err != nil {
			return keys, fmt.Errorf("uploading %s: %w", obj.key, err)
		}
		keys = append(keys, obj.key)
	}
	return keys, nil
}
