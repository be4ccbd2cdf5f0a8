package vmem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapReadWrite(t *testing.T) {
	data, err := Map(100)
	require.NoError(t, err)
	require.Len(t, data, PageSize(), "mapping should be rounded to one page")

	for i := range data {
		require.Zero(t, data[i], "fresh mapping should be zeroed at %d", i)
	}
	data[0] = 0xde
	data[len(data)-1] = 0xad
	require.Equal(t, byte(0xde), data[0])
	require.Equal(t, byte(0xad), data[len(data)-1])

	require.NoError(t, Unmap(data))
}

func TestMapInvalidLength(t *testing.T) {
	_, err := Map(0)
	require.ErrorIs(t, err, ErrInvalidLength)
	_, err = Map(-5)
	require.ErrorIs(t, err, ErrInvalidLength)
	_, err = Map(math.MaxInt)
	require.ErrorIs(t, err, ErrInvalidLength, "length that cannot be page-rounded")
}

func TestRoundUp(t *testing.T) {
	page := PageSize()
	require.Equal(t, page, RoundUp(1))
	require.Equal(t, page, RoundUp(page))
	require.Equal(t, 2*page, RoundUp(page+1))
}

func TestUnmapEmpty(t *testing.T) {
	require.NoError(t, Unmap(nil))
}
