package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

// MinIOArchiver stores each dispatch event as one JSON object.
type MinIOArchiver struct {
	client *minio.Client
	bucket string
}

func NewMinIOArchiver(ctx context.Context, endpoint, accessKey, secretKey, bucket string) (*MinIOArchiver, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &MinIOArchiver{client: client, bucket: bucket}, nil
}

func (m *MinIOArchiver) Archive(ctx context.Context, ev model.DispatchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = m.client.PutObject(ctx, m.bucket, ObjectPath(ev), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload to minio: %w", err)
	}
	return nil
}

// ObjectPath lays events out as year/month/day/<id>.json.
func ObjectPath(ev model.DispatchEvent) string {
	ts := ev.CreatedAt.UTC()
	return fmt.Sprintf("%d/%02d/%02d/%s.json", ts.Year(), ts.Month(), ts.Day(), ev.ID)
}
