package pricing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"ricks/core/events"
)

var ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func etherTimes(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), ether)
}

func TestAverageRequiresFullWindow(t *testing.T) {
	history, err := NewHistory(5)
	require.NoError(t, err)

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, history.Record(big.NewInt(i)))
		_, err := history.Average()
		require.ErrorIs(t, err, ErrInsufficientHistory)
	}
	require.NoError(t, history.Record(big.NewInt(5)))
	avg, err := history.Average()
	require.NoError(t, err)
	require.Equal(t, "3", avg.String())
}

func TestAverageTruncatesPerSharePrices(t *testing.T) {
	history, err := NewHistory(5)
	require.NoError(t, err)

	shareCount := big.NewInt(7)
	expectedSum := new(big.Int)
	for i := int64(1); i <= 5; i++ {
		price := new(big.Int).Quo(etherTimes(i), shareCount)
		expectedSum.Add(expectedSum, price)
		require.NoError(t, history.Record(price))
	}
	avg, err := history.Average()
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Quo(expectedSum, big.NewInt(5)), avg)
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	history, err := NewHistory(3)
	require.NoError(t, err)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, history.Record(big.NewInt(i*10)))
	}
	require.Equal(t, uint64(5), history.Settled)
	values := history.Values()
	require.Len(t, values, 3)
	require.Equal(t, []string{"30", "40", "50"}, []string{values[0].String(), values[1].String(), values[2].String()})

	avg, err := history.Average()
	require.NoError(t, err)
	require.Equal(t, "40", avg.String())
}

func TestRecordRejectsNegativePrice(t *testing.T) {
	history, err := NewHistory(2)
	require.NoError(t, err)
	require.ErrorIs(t, history.Record(big.NewInt(-1)), ErrInvalidPrice)
	require.Zero(t, history.Settled)

	_, err = NewHistory(0)
	require.Error(t, err)
}

type memState struct{ history *History }

func (m *memState) PriceHistory() (*History, error) { return m.history.Clone(), nil }

func (m *memState) PutPriceHistory(h *History) error {
	m.history = h.Clone()
	return nil
}

type captureEmitter struct{ events []events.Event }

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func TestTrackerPersistsAndEmits(t *testing.T) {
	state := &memState{}
	emitter := &captureEmitter{}
	tracker := NewTracker(2)
	tracker.SetState(state)
	tracker.SetEmitter(emitter)

	require.NoError(t, tracker.Record(big.NewInt(4), 100))
	_, err := tracker.Average()
	require.ErrorIs(t, err, ErrInsufficientHistory)

	require.NoError(t, tracker.Record(big.NewInt(7), 200))
	avg, err := tracker.Average()
	require.NoError(t, err)
	require.Equal(t, "5", avg.String())

	settled, err := tracker.Settled()
	require.NoError(t, err)
	require.Equal(t, uint64(2), settled)

	require.Len(t, emitter.events, 2)
	recorded := emitter.events[1].(events.PriceRecorded)
	require.Equal(t, uint64(200), recorded.Settled)
}
