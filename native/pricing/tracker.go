package pricing

import (
	"errors"
	"math/big"

	"ricks/core/events"
)

var errNilState = errors.New("price history: state not configured")

type engineState interface {
	PriceHistory() (*History, error)
	PutPriceHistory(*History) error
}

// Tracker persists the rolling price window and publishes recorded prices.
type Tracker struct {
	state   engineState
	window  uint64
	emitter events.Emitter
}

// NewTracker constructs a tracker averaging over window prices.
func NewTracker(window uint64) *Tracker {
	if window == 0 {
		window = DefaultWindow
	}
	return &Tracker{window: window, emitter: events.NoopEmitter{}}
}

// SetState wires the tracker to the external persistence layer.
func (t *Tracker) SetState(state engineState) { t.state = state }

// SetEmitter configures the event emitter. Nil restores the no-op emitter.
func (t *Tracker) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	t.emitter = emitter
}

// Window returns the configured averaging window.
func (t *Tracker) Window() uint64 { return t.window }

// History loads the persisted history, returning an empty window when none
// has been recorded yet.
func (t *Tracker) History() (*History, error) {
	if t.state == nil {
		return nil, errNilState
	}
	history, err := t.state.PriceHistory()
	if err != nil {
		return nil, err
	}
	if history == nil || history.Window == 0 {
		return NewHistory(t.window)
	}
	return history, nil
}

// Record appends a settled price observed at settledAt.
func (t *Tracker) Record(price *big.Int, settledAt uint64) error {
	history, err := t.History()
	if err != nil {
		return err
	}
	if err := history.Record(price); err != nil {
		return err
	}
	if err := t.state.PutPriceHistory(history); err != nil {
		return err
	}
	t.emitter.Emit(events.PriceRecorded{Price: new(big.Int).Set(price), Settled: settledAt})
	return nil
}

// Average returns the mean of the window or ErrInsufficientHistory.
func (t *Tracker) Average() (*big.Int, error) {
	history, err := t.History()
	if err != nil {
		return nil, err
	}
	return history.Average()
}

// Settled reports how many auctions have ever been recorded.
func (t *Tracker) Settled() (uint64, error) {
	history, err := t.History()
	if err != nil {
		return 0, err
	}
	return history.Settled, nil
}
