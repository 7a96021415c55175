package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fruitscan/apiserver/internal/logging"
	"github.com/fruitscan/apiserver/internal/store"
	"github.com/fruitscan/apiserver/types"
	"github.com/google/uuid"
)

// ScanRepository defines persistence operations for scan records.
type ScanRepository interface {
	Create(ctx context.Context, userID string, record types.ScanRecord) (types.ScanRecord, error)
	Get(ctx context.Context, userID, scanID string) (types.ScanRecord, error)
	List(ctx context.Context, userID, fruitName, scanResult string) ([]types.ScanRecord, error)
	Delete(ctx context.Context, userID, scanID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// ScanService encapsulates scan-history use-cases.
type ScanService struct {
	users UserRepository
	scans ScanRepository
	blobs BlobStorage
	log   logging.Logger
}

func NewScanService(users UserRepository, scans ScanRepository, blobs BlobStorage, log logging.Logger) *ScanService {
	return &ScanService{
		users: users,
		scans: scans,
		blobs: blobs,
		log:   log,
	}
}

// AddRecord uploads the scan image and, only on a successful upload,
// writes the metadata record referencing it.
func (s *ScanService) AddRecord(ctx context.Context, userID, fruitName, scanResult string, data []byte, filename, contentType string) (types.ScanRecord, error) {
	key := fmt.Sprintf("scans/%s/%s_%s", userID, uuid.NewString(), filename)
	url, err := s.blobs.Upload(ctx, key, data, contentType)
	if err != nil {
		return types.ScanRecord{}, err
	}

	record := types.ScanRecord{
		ID:              uuid.NewString(),
		FruitName:       fruitName,
		ScanResult:      scanResult,
		ScannedImageURL: url,
		CreatedAt:       time.Now().UTC(),
	}
	return s.scans.Create(ctx, userID, record)
}

// ListRecords returns the user's scan history, optionally filtered by
// exact match on fruit name and/or scan result (combined with AND).
// Zero matches is reported as store.ErrNotFound.
func (s *ScanService) ListRecords(ctx context.Context, userID, fruitName, scanResult string) ([]types.ScanRecord, error) {
	records, err := s.scans.List(ctx, userID, fruitName, scanResult)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrNotFound
	}
	return records, nil
}

// DeleteRecord removes one record and its blob. Unlike bulk deletion,
// a failed blob delete aborts the call and keeps the metadata.
func (s *ScanService) DeleteRecord(ctx context.Context, userID, scanID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	record, err := s.scans.Get(ctx, userID, scanID)
	if err != nil {
		return err
	}

	key, ok := s.blobs.KeyForURL(record.ScannedImageURL)
	if !ok {
		return fmt.Errorf("scanned image url not recognized: %s", record.ScannedImageURL)
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		return fmt.Errorf("deleting scanned image: %w", err)
	}
	return s.scans.Delete(ctx, userID, scanID)
}

// DeleteAllRecords removes every record of the user. Blob deletions are
// best-effort: failures are logged and never block the metadata batch.
func (s *ScanService) DeleteAllRecords(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	records, err := s.scans.List(ctx, userID, "", "")
	if err != nil {
		return err
	}

	for _, record := range records {
		key, ok := s.blobs.KeyForURL(record.ScannedImageURL)
		if !ok {
			s.log.Warn(ctx, "scanned image url not recognized", "userID", userID, "scanID", record.ID, "url", record.ScannedImageURL)
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "failed to delete scanned image", "userID", userID, "scanID", record.ID, "key", key, "error", err)
		}
	}

	return s.scans.DeleteAll(ctx, userID)
}
