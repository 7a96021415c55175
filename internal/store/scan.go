package store

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/fruitscan/apiserver/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const scansCollection = "scans"

// ScanRepository handles persistence for scan records. Records are stored
// in a per-user subcollection: users/<userID>/scans/<scanID>.
type ScanRepository struct {
	client *firestore.Client
}

func NewScanRepository(client *firestore.Client) *ScanRepository {
	return &ScanRepository{client: client}
}

func (r *ScanRepository) scans(userID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(scansCollection)
}

func (r *ScanRepository) Create(ctx context.Context, userID string, record types.ScanRecord) (types.ScanRecord, error) {
	if _, err := r.scans(userID).Doc(record.ID).Create(ctx, record); err != nil {
		return types.ScanRecord{}, err
	}
	return record, nil
}

func (r *ScanRepository) Get(ctx context.Context, userID, scanID string) (types.ScanRecord, error) {
	snap, err := r.scans(userID).Doc(scanID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.ScanRecord{}, ErrNotFound
		}
		return types.ScanRecord{}, err
	}

	var record types.ScanRecord
	if err := snap.DataTo(&record); err != nil {
		return types.ScanRecord{}, err
	}
	record.ID = snap.Ref.ID
	return record, nil
}

// List returns the user's scan records, optionally narrowed by exact-match
// filters on fruit name and scan result. Empty filter values are ignored.
func (r *ScanRepository) List(ctx context.Context, userID, fruitName, scanResult string) ([]types.ScanRecord, error) {
	query := r.scans(userID).Query
	if fruitName != "" {
		query = query.Where("fruitName", "==", fruitName)
	}
	if scanResult != "" {
		query = query.Where("scanResult", "==", scanResult)
	}

	it := query.Documents(ctx)
	defer it.Stop()

	var records []types.ScanRecord
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		var record types.ScanRecord
		if err := snap.DataTo(&record); err != nil {
			return nil, err
		}
		record.ID = snap.Ref.ID
		records = append(records, record)
	}
	return records, nil
}

func (r *ScanRepository) Delete(ctx context.Context, userID, scanID string) error {
	_, err := r.scans(userID).Doc(scanID).Delete(ctx)
	return err
}

// DeleteAll removes every scan record of the user in a single write batch.
// The batch commit is the durability boundary for bulk deletion.
func (r *ScanRepository) DeleteAll(ctx context.Context, userID string) error {
	it := r.scans(userID).Documents(ctx)
	defer it.Stop()

	batch := r.client.Batch()
	count := 0
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		batch.Delete(snap.Ref)
		count++
	}
	if count == 0 {
		return nil
	}

	_, err := batch.Commit(ctx)
	return err
}
