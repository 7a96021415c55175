package types

import "time"

// ScanRecord is one entry in a user's scan history. Records live in a
// per-user subcollection keyed by the owning user's ID.
type ScanRecord struct {
	// ID is the unique identifier of the record, also its document ID.
	ID string `json:"scanID" firestore:"-"`

	// FruitName is the fruit identified by the scan.
	FruitName string `json:"fruitName" firestore:"fruitName"`

	// ScanResult is the classification outcome reported by the client.
	ScanResult string `json:"scanResult" firestore:"scanResult"`

	// ScannedImageURL is the public URL of the uploaded scan image.
	ScannedImageURL string `json:"scannedImageURL" firestore:"scannedImageURL"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
