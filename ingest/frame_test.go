package ingest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportHeader = "Trade #,Type,Signal,Date/Time,Price USD,Contracts,Profit USD,Profit %,Cum. Profit USD,Cum. Profit %,Run-up USD,Run-up %,Drawdown USD,Drawdown %\n"

func TestReadFrame(t *testing.T) {
	t.Parallel()

	input := "\xef\xbb\xbf" + exportHeader +
		"1,Exit Long,Close,2024-05-06 09:45,78.10,2,150.00,0.5,150,0.5,200,0.6,-20,-0.1\n" +
		"1,Entry Long,Long,2024-05-06 09:31,77.35,2,150.00,0.5,150,0.5,200,0.6,-20,-0.1\n"

	frame, err := ReadFrame(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Trade #", frame.Columns[0])
	require.Len(t, frame.Rows, 2)
	assert.Equal(t, "Entry Long", frame.Rows[1][ColType])
	assert.Equal(t, "2024-05-06 09:31", frame.Rows[1][ColDateTime])
	assert.Equal(t, "150.00", frame.Rows[1][ColProfit])
}

func TestReadFrameShortRow(t *testing.T) {
	t.Parallel()

	frame, err := ReadFrame(strings.NewReader("Type,Date/Time,Contracts,Profit USD\nEntry Long,2024-05-06 09:31\n"))
	require.NoError(t, err)
	require.Len(t, frame.Rows, 1)
	_, ok := frame.Rows[0][ColProfit]
	assert.False(t, ok)
}

func TestReadFrameMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty file"},
		{"missing columns", "Trade #,Type,Price USD\n1,Entry Long,77\n", "Date/Time, Contracts, Profit USD"},
		{"bad quoting", "Type,Date/Time,Contracts,Profit USD\n\"Entry,2024-05-06,1,2\n", "line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadFrame(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedInput)
}
