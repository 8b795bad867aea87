package explorer

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"ricks/core/events"
)

func TestExportParquet(t *testing.T) {
	archive := newTestArchive(t)
	for i := int64(1); i <= 3; i++ {
		_, err := archive.Append(context.Background(), events.PriceRecorded{Price: big.NewInt(20 + i), Settled: uint64(i)})
		require.NoError(t, err)
	}
	_, err := archive.Append(context.Background(), events.Staked{Account: [20]byte{0x01}, Amount: big.NewInt(5), TotalStaked: big.NewInt(5)})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "prices.parquet")
	written, err := archive.ExportParquet(context.Background(), path, Filter{Type: events.TypePriceRecorded})
	require.NoError(t, err)
	require.Equal(t, 3, written)

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(parquetRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	require.Equal(t, int64(3), pr.GetNumRows())

	rows := make([]parquetRow, 3)
	require.NoError(t, pr.Read(&rows))
	require.Equal(t, int64(1), rows[0].Sequence)
	require.Equal(t, "Price recorded", rows[2].Label)
	require.NotEmpty(t, rows[2].Digest)
}
