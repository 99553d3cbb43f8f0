// File: database/repository/ledger/interface.go
package ledgerRepo

import (
	"context"

	"autoshop/models"
)

// LedgerRepository is the durable store of booking requests.
//
// Append always stores the record as Pending. List returns entries in insertion order and
// treats a store that does not exist yet as empty. UpdateStatus changes only the status of
// the record at id and fails with models.NotFoundError when id is out of range.
type LedgerRepository interface {
	Append(ctx context.Context, record models.BookingRecord) (models.RecordID, error)
	List(ctx context.Context) ([]models.LedgerEntry, error)
	Get(ctx context.Context, id models.RecordID) (*models.LedgerEntry, error)
	UpdateStatus(ctx context.Context, id models.RecordID, status models.BookingStatus) error
}

func notFound(id models.RecordID) error {
	return &models.NotFoundError{Resource: "booking", Key: idKey(id)}
}
