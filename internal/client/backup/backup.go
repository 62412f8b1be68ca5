// Package backup uploads JSON snapshots of the local store to an
// S3-compatible bucket.
package backup

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
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

var ErrNotConfigured = errors.New("backup bucket is not configured")

type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

// Uploader is the subset of the S3 client used for backups.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type NoteLister interface {
	ListByOwner(ctx context.Context, ownerID string, includeArchived, includeDeleted bool) ([]models.Note, error)
}

type OperationLister interface {
	PeekPending(ctx context.Context) ([]models.SyncOperation, error)
	ListFailed(ctx context.Context) ([]models.SyncOperation, error)
}

// Snapshot is the uploaded document.
type Snapshot struct {
	OwnerID    string           `json:"owner_id"`
	TakenAt    time.Time        `json:"taken_at"`
	Notes      []noteRecord     `json:"notes"`
	Operations []operationEntry `json:"operations"`
}

type noteRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	Archived     bool      `json:"archived"`
	Deleted      bool      `json:"deleted"`
}

type operationEntry struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	NoteID     string `json:"note_id"`
	Status     string `json:"status"`
	RetryCount int    `json:"retry_count"`
	LastError  string `json:"last_error,omitempty"`
}

type Backup struct {
	uploader Uploader
	bucket   string
	now      func() time.Time
}

func New(uploader Uploader, bucket string) *Backup {
	return &Backup{uploader: uploader, bucket: bucket, now: time.Now}
}

// NewS3 builds a Backup that talks to the configured endpoint with static
// credentials.
func NewS3(ctx context.Context, c Config) (*Backup, error) {
	if c.Bucket == "" {
		return nil, ErrNotConfigured
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, c.Bucket), nil
}

// StorageKey places snapshots under the owner and the day they were taken.
func StorageKey(ownerID string, d time.Time) string {
	return fmt.Sprintf("backups/%s/%d/%02d/%02d/%s.json", ownerID, d.Year(), d.Month(), d.Day(), uuid.NewString())
}

// Run takes a snapshot of the owner's notes and queued operations and uploads
// it. It returns the object key.
func (b *Backup) Run(ctx context.Context, ownerID string, notes NoteLister, ops OperationLister) (string, error) {
	snap, err := b.snapshot(ctx, ownerID, notes, ops)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding snapshot: %w", err)
	}

	key := StorageKey(ownerID, snap.TakenAt)
	_, err = b.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading snapshot: %w", err)
	}
	return key, nil
}

func (b *Backup) snapshot(ctx context.Context, ownerID string, notes NoteLister, ops OperationLister) (*Snapshot, error) {
	all, err := notes.ListByOwner(ctx, ownerID, true, true)
	if err != nil {
		return nil, fmt.Errorf("error retrieving notes: %w", err)
	}
	pending, err := ops.PeekPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving operations: %w", err)
	}
	failed, err := ops.ListFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving operations: %w", err)
	}

	snap := &Snapshot{
		OwnerID:    ownerID,
		TakenAt:    b.now().UTC(),
		Notes:      make([]noteRecord, 0, len(all)),
		Operations: make([]operationEntry, 0, len(pending)+len(failed)),
	}
	for _, n := range all {
		snap.Notes = append(snap.Notes, noteRecord{
			ID:           n.ID,
			Title:        n.Title,
			Body:         n.Body,
			CreatedAt:    n.CreatedAt,
			LastModified: n.LastModified,
			Archived:     n.Archived,
			Deleted:      n.Deleted,
		})
	}
	for _, op := range append(pending, failed...) {
		snap.Operations = append(snap.Operations, operationEntry{
			ID:         op.ID,
			Kind:       string(op.Kind),
			NoteID:     op.NoteID,
			Status:     string(op.Status),
			RetryCount: op.RetryCount,
			LastError:  op.LastError,
		})
	}
	return snap, nil
}
