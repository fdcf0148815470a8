package history

import (
	"context"
	"errors"

	"github.com/guillermoBallester/askdb/internal/core/port"
)

// Tee fans every entry out to several recorders.
type Tee []port.HistoryRecorder

func (t Tee) Record(ctx context.Context, entry port.HistoryEntry) {
	for _, r := range t {
		r.Record(ctx, entry)
	}
}

// Close closes every recorder and joins their errors.
func (t Tee) Close() error {
	var errs []error
	for _, r := range t {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
