package bluraysup

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPalette() *BluRaySupPalette {
	palette := NewBluRaySupPalette(0, 0, true)
	palette.SetAlpha(1, 255)
	palette.SetYCbCr(1, 235, 128, 128)
	palette.SetAlpha(2, 128)
	palette.SetYCbCr(2, 16, 128, 128)

	return palette
}

func alphaRows(t *testing.T, rle []byte, width, height int) []string {
	t.Helper()

	img, _, err := DecodeRle(rle, width, height, testPalette(), 0)
	require.NoError(t, err)

	rows := make([]string, img.Rect.Dy())
	for y := range rows {
		row := make([]byte, width)
		for x := 0; x < width; x++ {
			switch img.NRGBAAt(x, y).A {
			case 0:
				row[x] = '.'
			case 255:
				row[x] = '#'
			default:
				row[x] = '+'
			}
		}
		rows[y] = string(row)
	}

	return rows
}

func TestDecodeRle_CodeForms(t *testing.T) {
	rle := []byte{
		0x01,             //single pixel index 1
		0x00, 0x02,       //2 transparent
		0x00, 0x82, 0x02, //2 of index 2
		0x00, 0x00, //EOL
		0x00, 0x40, 0x03, //14-bit transparent run of 3
		0x00, 0xC0, 0x02, 0x01, //14-bit run of 2 of index 1
		0x00, 0x00,
	}

	assert.Equal(t, []string{
		"#..++",
		"...##",
	}, alphaRows(t, rle, 5, 2))
}

func TestDecodeRle_ShortLineLeavesRemainderTransparent(t *testing.T) {
	rle := []byte{0x01, 0x00, 0x00, 0x01, 0x01, 0x00, 0x00}

	assert.Equal(t, []string{
		"#...",
		"##..",
	}, alphaRows(t, rle, 4, 2))
}

func TestDecodeRle_RunWrapsAcrossLines(t *testing.T) {
	//a 6 pixel run in a 4 pixel wide object carries 2 pixels onto the next line
	rle := []byte{0x00, 0x86, 0x01, 0x00, 0x00}

	assert.Equal(t, []string{
		"####",
		"##..",
	}, alphaRows(t, rle, 4, 2))
}

func TestDecodeRle_ExactLineFillFollowedByEolDoesNotSkipLine(t *testing.T) {
	assert.Equal(t, []string{
		"###",
		"###",
		"###",
	}, alphaRows(t, solidRle(3, 3, 1), 3, 3))
}

func TestDecodeRle_AutoExtendsHeight(t *testing.T) {
	img, stats, err := DecodeRle(solidRle(2, 5, 1), 2, 3, testPalette(), 0)
	require.NoError(t, err)

	assert.Equal(t, 5, img.Rect.Dy())
	assert.True(t, stats.Extended)
	assert.Equal(t, 3, stats.DeclaredHeight)
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 4).A)
}

func TestDecodeRle_NeverShorterThanDeclared(t *testing.T) {
	img, stats, err := DecodeRle(solidRle(2, 1, 1), 2, 4, testPalette(), 0)
	require.NoError(t, err)

	assert.Equal(t, 4, img.Rect.Dy())
	assert.False(t, stats.Extended)
	assert.Zero(t, img.NRGBAAt(0, 3).A)
}

func TestDecodeRle_CapacityCeiling(t *testing.T) {
	img, stats, err := DecodeRle(solidRle(2, 10, 1), 2, 2, testPalette(), 6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	require.NotNil(t, img)
	assert.Equal(t, 6, img.Rect.Dy())
	assert.True(t, stats.Truncated)
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 5).A)
}

func TestDecodeRle_ExhaustedInputMidRun(t *testing.T) {
	for name, rle := range map[string][]byte{
		"escape":          {0x01, 0x00},
		"long transparent": {0x01, 0x00, 0x40},
		"short color":     {0x01, 0x00, 0x83},
		"long color":      {0x01, 0x00, 0xC0, 0x05},
	} {
		t.Run(name, func(t *testing.T) {
			img, stats, err := DecodeRle(rle, 4, 1, testPalette(), 0)
			require.NoError(t, err)
			assert.Equal(t, 1, img.Rect.Dy())
			assert.Equal(t, 1, stats.PixelsWritten)
			assert.Equal(t, len(rle), stats.BytesConsumed)
		})
	}
}

func TestDecodeRle_RejectsUnusableGeometry(t *testing.T) {
	_, _, err := DecodeRle([]byte{0x01}, 0, 1, testPalette(), 0)
	assert.Error(t, err)

	_, _, err = DecodeRle([]byte{0x01}, 1, 1, nil, 0)
	assert.Error(t, err)
}

func TestDecodePalette(t *testing.T) {
	palette, entries, err := DecodePalette(pdsPayload(3, whiteEntry, [5]byte{2, 16, 128, 128, 200}, [5]byte{9, 200, 128, 128, 5}))
	require.NoError(t, err)

	assert.Equal(t, 3, entries)
	assert.Equal(t, 3, palette.Id)

	white := palette.At(1)
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, [4]uint8{white.R, white.G, white.B, white.A})

	black := palette.At(2)
	assert.Equal(t, [4]uint8{0, 0, 0, 200}, [4]uint8{black.R, black.G, black.B, black.A})

	//nearly transparent entries keep their converted color
	faint := palette.At(9)
	assert.Equal(t, [4]uint8{214, 214, 214, 5}, [4]uint8{faint.R, faint.G, faint.B, faint.A})

	assert.Zero(t, palette.AlphaAtIndex(200))
}

func TestYCbCrRoundTrip(t *testing.T) {
	for _, rgb := range [][3]int{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {128, 128, 128}} {
		yCbCr := RGB2YCbCr(rgb[0], rgb[1], rgb[2], true)
		back := YCbCr2Rgb(yCbCr[0], yCbCr[1], yCbCr[2], true)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, rgb[i], back[i], 3, "channel %d of %v", i, rgb)
		}
	}
}

func TestPtsConversions(t *testing.T) {
	assert.Equal(t, int64(90000), DurationToPts(PtsToDuration(90000)))
	assert.InDelta(t, 1.5, PtsToSeconds(135000), 1e-9)
	assert.Equal(t, "00:01:01.500", PtsToTimeString(61*90000+45000))
	assert.Equal(t, "end", FormatDuration(Unbounded))
}
