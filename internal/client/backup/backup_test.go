package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeUploader) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

type fakeNotes struct {
	notes []models.Note
	err   error
}

func (f fakeNotes) ListByOwner(ctx context.Context, ownerID string, includeArchived, includeDeleted bool) ([]models.Note, error) {
	return f.notes, f.err
}

type fakeOps struct {
	pending, failed []models.SyncOperation
}

func (f fakeOps) PeekPending(ctx context.Context) ([]models.SyncOperation, error) { return f.pending, nil }
func (f fakeOps) ListFailed(ctx context.Context) ([]models.SyncOperation, error) { return f.failed, nil }

func TestRun_UploadsSnapshot(t *testing.T) {
	up := &fakeUploader{}
	b := New(up, "notes-backup")
	taken := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return taken }

	notes := fakeNotes{notes: []models.Note{
		{ID: "n1", OwnerID: "u1", Title: "A", Body: "x", CreatedAt: taken, LastModified: taken, Archived: true},
	}}
	ops := fakeOps{
		pending: []models.SyncOperation{{ID: "op1", Kind: models.OperationUpdate, NoteID: "n1", Status: models.StatusPending}},
		failed:  []models.SyncOperation{{ID: "op2", Kind: models.OperationDelete, NoteID: "n2", Status: models.StatusFailed, RetryCount: 3, LastError: "boom"}},
	}

	key, err := b.Run(context.Background(), "u1", notes, ops)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "backups/u1/2025/03/09/"), key)
	assert.True(t, strings.HasSuffix(key, ".json"), key)

	require.NotNil(t, up.in)
	assert.Equal(t, "notes-backup", aws.ToString(up.in.Bucket))
	assert.Equal(t, key, aws.ToString(up.in.Key))
	assert.Equal(t, "application/json", aws.ToString(up.in.ContentType))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(up.body, &snap))
	assert.Equal(t, "u1", snap.OwnerID)
	require.Len(t, snap.Notes, 1)
	assert.True(t, snap.Notes[0].Archived)
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, "failed", snap.Operations[1].Status)
	assert.Equal(t, 3, snap.Operations[1].RetryCount)
}

func TestRun_Errors(t *testing.T) {
	b := New(&fakeUploader{}, "bucket")
	_, err := b.Run(context.Background(), "u1", fakeNotes{err: errors.New("disk")}, fakeOps{})
	require.ErrorContains(t, err, "error retrieving notes")

	b = New(&fakeUploader{err: errors.New("denied")}, "bucket")
	_, err = b.Run(context.Background(), "u1", fakeNotes{}, fakeOps{})
	require.ErrorContains(t, err, "error uploading snapshot")
}

func TestNewS3(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var region string
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		return aws.Config{Region: lo.Region}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	b, err := NewS3(context.Background(), Config{
		Region:       "us-east-1",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		BaseEndpoint: "http://127.0.0.1:9000",
		Bucket:       "notes",
	})
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "us-east-1", region)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), Config{Region: "us-east-1"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewS3_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3(context.Background(), Config{Bucket: "b"})
	require.ErrorContains(t, err, "error loading aws config")
}
