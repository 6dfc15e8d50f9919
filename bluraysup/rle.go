package bluraysup

import (
	"image"
	"image/color"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultMaxLines is the safety ceiling on decoded object height.
	DefaultMaxLines = 4096
	// DefaultMaxWidth bounds the declared width of a decodable object.
	DefaultMaxWidth = 4096
)

// RleStats describes what a decode actually produced.
type RleStats struct {
	BytesConsumed  int
	DeclaredHeight int
	EndOfLines     int
	Extended       bool
	Height         int
	PixelsWritten  int
	Truncated      bool
}

type rleDecoder struct {
	maxLines int
	palette  *BluRaySupPalette
	pix      []byte
	stats    RleStats
	width    int
	wrapped  bool
	x        int
	y        int
}

// DecodeRle expands palette indexed, line oriented run-length data into a width x height
// raster. The returned height is max(declaredHeight, lines actually written), clamped to
// maxLines. Exhausted input ends decoding without error; the error is only non-nil when
// the content was cut at maxLines (marked ErrCapacityExceeded) or the geometry is unusable.
func DecodeRle(rleData []byte, width, declaredHeight int, palette *BluRaySupPalette, maxLines int) (*image.NRGBA, RleStats, error) {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	if width <= 0 || declaredHeight <= 0 {
		return nil, RleStats{}, errors.Newf("invalid object dimensions %dx%d", width, declaredHeight)
	}
	if palette == nil {
		return nil, RleStats{}, errors.New("no palette to decode against")
	}

	d := &rleDecoder{
		maxLines: maxLines,
		palette:  palette,
		pix:      make([]byte, width*min(declaredHeight, maxLines)*4),
		width:    width,
	}
	d.stats.DeclaredHeight = declaredHeight

	i := 0
	for i < len(rleData) && !d.stats.Truncated {
		code := rleData[i]
		i++

		if code != 0 {
			d.run(1, code, true)
			continue
		}

		if i >= len(rleData) {
			break
		}
		flags := rleData[i]
		i++

		switch flags & 0xC0 {
		case 0x00:
			if flags == 0 {
				d.endOfLine()
			} else {
				d.run(int(flags&0x3F), 0, false)
			}
		case 0x40:
			if i >= len(rleData) {
				i = len(rleData)
				break
			}
			d.run(int(flags&0x3F)<<8|int(rleData[i]), 0, false)
			i++
		case 0x80:
			if i >= len(rleData) {
				i = len(rleData)
				break
			}
			d.run(int(flags&0x3F), rleData[i], true)
			i++
		default:
			if i+1 >= len(rleData) {
				i = len(rleData)
				break
			}
			d.run(int(flags&0x3F)<<8|int(rleData[i]), rleData[i+1], true)
			i += 2
		}
	}

	d.stats.BytesConsumed = i

	lines := d.y
	if d.x > 0 {
		lines++
	}
	height := min(max(declaredHeight, lines), maxLines)

	d.stats.Height = height
	d.stats.Extended = height > declaredHeight

	img := &image.NRGBA{
		Pix:    d.resize(height),
		Rect:   image.Rect(0, 0, width, height),
		Stride: width * 4,
	}

	if d.stats.Truncated {
		return img, d.stats, errors.Mark(errors.Newf("RLE data implies more than %d lines, %d of %d bytes left undecoded", maxLines, len(rleData)-i, len(rleData)), ErrCapacityExceeded)
	}

	return img, d.stats, nil
}

// run advances by count pixels, painting them with the palette color when paint is set.
// Runs that cross the declared line width wrap onto the following lines.
func (d *rleDecoder) run(count int, colorIndex byte, paint bool) {
	var c color.NRGBA
	if paint {
		c = d.palette.At(colorIndex)
	}

	for count > 0 {
		if d.x >= d.width {
			d.x = 0
			d.y++
			d.wrapped = true
		}
		if d.y >= d.maxLines {
			d.stats.Truncated = true
			return
		}

		n := min(count, d.width-d.x)
		if paint {
			d.fill(n, c)
		}
		d.x += n
		count -= n
		d.wrapped = false
	}

	if d.x >= d.width {
		d.x = 0
		d.y++
		d.wrapped = true
	}
}

// endOfLine moves to the next line unless a run already wrapped there exactly.
func (d *rleDecoder) endOfLine() {
	d.stats.EndOfLines++
	if !d.wrapped {
		d.y++
	}
	d.x = 0
	d.wrapped = false
}

func (d *rleDecoder) fill(n int, c color.NRGBA) {
	stride := d.width * 4
	if need := (d.y + 1) * stride; need > len(d.pix) {
		d.pix = append(d.pix, make([]byte, need-len(d.pix))...)
	}

	offset := d.y*stride + d.x*4
	for p := 0; p < n; p++ {
		d.pix[offset] = c.R
		d.pix[offset+1] = c.G
		d.pix[offset+2] = c.B
		d.pix[offset+3] = c.A
		offset += 4
	}
	d.stats.PixelsWritten += n
}

func (d *rleDecoder) resize(height int) []byte {
	size := d.width * height * 4
	if len(d.pix) >= size {
		return d.pix[:size:size]
	}

	return append(d.pix, make([]byte, size-len(d.pix))...)
}
