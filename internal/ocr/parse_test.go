package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "comma separated with suffix", raw: "8,000원", want: 8000},
		{name: "plain digits", raw: "9500", want: 9500},
		{name: "surrounding whitespace", raw: " 12,000원 ", want: 12000},
		{name: "suffix only", raw: "7000원", want: 7000},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
		{name: "non numeric", raw: "시가", wantErr: true},
		{name: "mixed garbage", raw: "8천원", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePrice(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitMenuLines(t *testing.T) {
	raw := "김치찌개 8,000원\n\n순두부찌개 9500\n시가\n  제육볶음  10,000  \n"

	lines := splitMenuLines(raw)

	require.Len(t, lines, 4)

	assert.Equal(t, "김치찌개", lines[0].name)
	assert.Equal(t, "8,000", lines[0].priceRaw)

	assert.Equal(t, "순두부찌개", lines[1].name)
	assert.Equal(t, "9500", lines[1].priceRaw)

	// no price on the line: name-only item
	assert.Equal(t, "시가", lines[2].name)
	assert.Equal(t, "", lines[2].priceRaw)

	assert.Equal(t, "제육볶음", lines[3].name)
	assert.Equal(t, "10,000", lines[3].priceRaw)
}

func TestSplitMenuLines_Empty(t *testing.T) {
	assert.Empty(t, splitMenuLines(""))
	assert.Empty(t, splitMenuLines("\n \n\t\n"))
}

func TestComputeResultHash_Deterministic(t *testing.T) {
	image := []byte("fake-jpeg-bytes")

	h1 := computeResultHash(image, "김치찌개 8,000원")
	h2 := computeResultHash(image, "김치찌개 8,000원")
	h3 := computeResultHash(image, "된장찌개 8,000원")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestImageKey_DistinctImages(t *testing.T) {
	k1 := imageKey([]byte("image-a"))
	k2 := imageKey([]byte("image-b"))

	assert.NotEqual(t, k1, k2)
	assert.Contains(t, k1, "ocr:image:")
}
