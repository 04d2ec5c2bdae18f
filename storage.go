package irrigate

import (
	"time"

	"github.com/cenkalti/backoff"
)

// RetryingStorage wraps a Storage collaborator so a persistence
// failure after an AUTO daily update is retried with bounded backoff
// rather than failing the decision outright. The failure is non-fatal
// and logged at warn, with in-memory state remaining correct
// regardless of the outcome.
type RetryingStorage struct {
	Backend Storage
	Log     Logger
	// MaxElapsed bounds how long a single save attempt is retried
	// before giving up for this cycle; the caller's daily loop will
	// try again next cycle regardless.
	MaxElapsed time.Duration
}

// SaveChannelWaterBalance implements Storage, retrying transient
// failures and logging (never returning) a failure that persists past
// MaxElapsed.
func (r *RetryingStorage) SaveChannelWaterBalance(id int, wb WaterBalance) error {
	if r.Backend == nil {
		return nil
	}
	b := backoff.NewExponentialBackOff()
	if r.MaxElapsed > 0 {
		b.MaxElapsedTime = r.MaxElapsed
	} else {
		b.MaxElapsedTime = 5 * time.Second
	}
	err := backoff.Retry(func() error {
		return r.Backend.SaveChannelWaterBalance(id, wb)
	}, b)
	if err != nil {
		log := r.Log
		if log == nil {
			log = NoopLogger{}
		}
		log.Warnf("irrigate: persistence failed for channel %d, will retry next cycle: %v", id, err)
	}
	return nil
}
