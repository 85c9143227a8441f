package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

// LedgerStore is the keyed persistence substrate holding one JSON document per student.
// Get reports found=false for absent keys.
type LedgerStore interface {
	Get(ctx context.Context, key string) (value json.RawMessage, found bool, err error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

func loadLedger(ctx context.Context, store LedgerStore, usn string) (models.Ledger, error) {
	key := LedgerKey(usn)
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, storeUnavailable(err, "failed to read ledger")
	}
	if !found || len(raw) == 0 {
		return models.Ledger{}, nil
	}
	var ledger models.Ledger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		return nil, appErrors.Wrap(fmt.Errorf("decode %s: %w", key, err), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt ledger document")
	}
	if ledger == nil {
		ledger = models.Ledger{}
	}
	return ledger, nil
}

func saveLedger(ctx context.Context, store LedgerStore, usn string, ledger models.Ledger) error {
	payload, err := json.Marshal(ledger)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode ledger")
	}
	if err := store.Set(ctx, LedgerKey(usn), payload); err != nil {
		return storeUnavailable(err, "failed to write ledger")
	}
	return nil
}

func storeUnavailable(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, message)
}
