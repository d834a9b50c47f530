package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0tShaman/idxreduce/idx"
)

func TestReadCSV_Labelled(t *testing.T) {
	in := "label,p0,p1,p2,p3\n7,0,10,20,255\n3,1,2,3,4\n"

	c, err := ReadCSV(strings.NewReader(in), 2, 2, true, idx.MagicImages)
	require.NoError(t, err)
	assert.Equal(t, idx.Header{Magic: idx.MagicImages, Items: 2, Rows: 2, Cols: 2}, c.Header)
	assert.Equal(t, []uint8{0, 10, 20, 255}, c.Images[0])
	assert.Equal(t, uint8(4), c.At(1, 1, 1))
}

func TestReadCSV_Unlabelled(t *testing.T) {
	c, err := ReadCSV(strings.NewReader("1,2,3\n4,5,6\n"), 1, 3, false, 99)
	require.NoError(t, err)
	assert.Equal(t, int32(99), c.Magic)
	assert.Equal(t, [][]uint8{{1, 2, 3}, {4, 5, 6}}, c.Images)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"short record", "1,2,3\n4,5\n"},
		{"out of range", "1,2,300\n"},
		{"not a number", "1,2,3\n4,x,6\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), 1, 3, false, idx.MagicImages)
			assert.Error(t, err)
		})
	}
}
