package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/harshaislive/bespoke/internal/config"
	"github.com/harshaislive/bespoke/internal/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveService uploads completed-session transcripts to object storage.
// Entirely best-effort: callers log and move on when it fails.
type ArchiveService struct {
	client *minio.Client
	bucket string
}

func NewArchiveService(cfg config.ArchiveConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &ArchiveService{client: client, bucket: cfg.Bucket}, nil
}

// StoreTranscript writes the session as a JSON document keyed by id.
func (s *ArchiveService) StoreTranscript(ctx context.Context, session *model.Session) error {
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	objectName := fmt.Sprintf("transcripts/%s.json", session.ID)
	_, err = s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}
