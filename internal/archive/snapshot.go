package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Snapshot é o lote de eventos recebido do CRM em uma execução de sync.
type Snapshot struct {
	ContactID string    `json:"contact_id"`
	Trigger   string    `json:"trigger"`
	FetchedAt time.Time `json:"fetched_at"`
	Events    any       `json:"events"`
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store grava snapshots em s3://bucket/snapshots/{contact}/{date}/{id}.json.
// Um *S3Store nil não grava nada.
type S3Store struct {
	api    putObjectAPI
	bucket string
}

type S3Config struct {
	Bucket           string
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	EndpointOverride string
}

func NewS3Store(cfg S3Config) *S3Store {
	if cfg.Bucket == "" {
		return nil
	}

	opts := s3.Options{
		Region: cfg.Region,
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.EndpointOverride != "" {
		opts.BaseEndpoint = aws.String(cfg.EndpointOverride)
		opts.UsePathStyle = true
	}

	return &S3Store{api: s3.New(opts), bucket: cfg.Bucket}
}

func (s *S3Store) Put(ctx context.Context, snap Snapshot) (string, error) {
	if s == nil {
		return "", nil
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("snapshot encode: %w", err)
	}

	key := ObjectKey(snap)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("snapshot put %s: %w", key, err)
	}
	return key, nil
}

func ObjectKey(snap Snapshot) string {
	return fmt.Sprintf(
		"snapshots/%s/%s/%s.json",
		snap.ContactID,
		snap.FetchedAt.UTC().Format("2006-01-02"),
		uuid.NewString(),
	)
}
