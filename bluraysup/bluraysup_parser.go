/*
 * Copyright 2009 Volker Oth (0xdeadbeef)
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 * NOTE: Converted to C# and modified by Nikse.dk@gmail.com
 * NOTE: For more info see http://blog.thescorpius.com/index.php/2017/07/15/presentation-graphic-stream-sup-files-bluray-subtitle-format/
 * NOTE: Converted from C# to Go by github.com/RistRyder
 */

package bluraysup

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
)

type Options struct {
	Logger *slog.Logger
	//MaxLines caps the height of a decoded object, DefaultMaxLines when zero
	MaxLines int
	//MaxWidth rejects wider objects, DefaultMaxWidth when zero
	MaxWidth int
}

// Parser turns a raw PGS bitstream into display set frames. A Parser holds no state
// between calls and may be shared by goroutines.
type Parser struct {
	logger   *slog.Logger
	maxLines int
	maxWidth int
}

// ParseResult is everything one pass over a buffer produced.
type ParseResult struct {
	Frames []*Frame
	//Issues are the recovered problems, each marked with one of the Err* sentinels
	Issues       []error
	Segments     int
	SkippedBytes int
}

// accumulator is the per display set state threaded through the scan loop.
type accumulator struct {
	composition *Composition
	lastPalette *BluRaySupPalette
	objects     map[int]*decodedObject
	palettes    map[int]*BluRaySupPalette
	windows     map[int]Window
}

func newAccumulator() *accumulator {
	return &accumulator{
		objects:  make(map[int]*decodedObject),
		palettes: make(map[int]*BluRaySupPalette),
		windows:  make(map[int]Window),
	}
}

func (a *accumulator) palette() *BluRaySupPalette {
	if a.composition != nil {
		if palette, exists := a.palettes[a.composition.PaletteId]; exists {
			return palette
		}
	}

	return a.lastPalette
}

// reset drops the display set scoped state. Palettes live until the next epoch start.
func (a *accumulator) reset() {
	a.composition = nil
	clear(a.objects)
	clear(a.windows)
}

func NewParser(options Options) *Parser {
	parser := &Parser{logger: options.Logger, maxLines: options.MaxLines, maxWidth: options.MaxWidth}
	if parser.logger == nil {
		parser.logger = slog.Default()
	}
	if parser.maxLines <= 0 {
		parser.maxLines = DefaultMaxLines
	}
	if parser.maxWidth <= 0 {
		parser.maxWidth = DefaultMaxWidth
	}

	return parser
}

// Parse parses buffer with default options and returns the frames with unset end times.
func Parse(buffer []byte) []*Frame {
	return NewParser(Options{}).Parse(buffer).Frames
}

// Parse scans buffer for segments and assembles a frame for every END that closes a
// usable display set. It never fails: corrupt regions are skipped and reported in
// ParseResult.Issues.
//
// A byte that does not start the "PG" magic is skipped one at a time until the magic is
// found again. This resynchronisation is a heuristic for damaged captures: a stray "PG"
// inside payload bytes can be taken for a header.
func (p *Parser) Parse(buffer []byte) *ParseResult {
	result := &ParseResult{Frames: []*Frame{}}
	acc := newAccumulator()
	offset := 0
	skipped := 0

	for offset+headerSize <= len(buffer) {
		if !hasMagic(buffer, offset) {
			offset++
			skipped++
			continue
		}

		if skipped > 0 {
			p.logger.Warn("PGS: resynchronised on segment magic", slog.Int("offset", offset), slog.Int("skipped", skipped))
			result.SkippedBytes += skipped
			skipped = 0
		}

		segment := parseSegmentHeader(buffer, offset)
		if segment.end() > len(buffer) {
			p.report(result, errors.Mark(errors.Newf("%s segment at %d declares %d payload bytes, only %d available", segment.Kind, offset, segment.Size, len(buffer)-segment.payloadStart()), ErrStructural))
			p.logger.Warn("PGS: segment extends beyond buffer, stopping", slog.Int("offset", offset), slog.String("segment", segment.Kind.String()))

			return p.finish(result)
		}

		result.Segments++
		if segmentErr := p.handleSegment(acc, segment, buffer[segment.payloadStart():segment.end()], result); segmentErr != nil {
			p.report(result, errors.Wrapf(segmentErr, "%s segment at offset %d", segment.Kind, offset))
		}

		offset = segment.end()
	}

	result.SkippedBytes += skipped
	if offset < len(buffer) && hasMagic(buffer, offset) {
		p.report(result, errors.Mark(errors.Newf("buffer ends inside a segment header at %d", offset), ErrStructural))
	}

	return p.finish(result)
}

func (p *Parser) finish(result *ParseResult) *ParseResult {
	p.logger.Debug("PGS: parsed subtitle frames", slog.Int("frames", len(result.Frames)), slog.Int("segments", result.Segments), slog.Int("issues", len(result.Issues)))

	return result
}

func (p *Parser) report(result *ParseResult, issue error) {
	result.Issues = append(result.Issues, issue)
}

// handleSegment applies one segment to the accumulator. A panic while decoding a field is
// contained to this segment.
func (p *Parser) handleSegment(acc *accumulator, segment supSegment, payload []byte, result *ParseResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = segmentDecodeErrorf("panic while decoding: %v", r)
		}
	}()

	switch segment.Kind {
	case SegmentPcs:
		composition, pcsErr := parsePcs(payload, segment)
		if pcsErr != nil {
			return pcsErr
		}

		if composition.CompositionState == CompositionStateEpochStart {
			clear(acc.palettes)
			acc.lastPalette = nil
		}
		acc.composition = composition
	case SegmentWds:
		windows, wdsErr := parseWds(payload)
		if wdsErr != nil {
			return wdsErr
		}

		for _, window := range windows {
			acc.windows[window.Id] = window
		}
	case SegmentPds:
		palette, entries, pdsErr := DecodePalette(payload)
		if pdsErr != nil {
			return pdsErr
		}

		p.logger.Debug("PGS: parsed palette", slog.Int("palette_id", palette.Id), slog.Int("version", palette.Version), slog.Int("entries", entries))
		acc.palettes[palette.Id] = palette
		acc.lastPalette = palette
	case SegmentOds:
		fragment, odsErr := parseOds(payload)
		if odsErr != nil {
			return odsErr
		}
		if fragment.IsFirst && fragment.Width > p.maxWidth {
			return segmentDecodeErrorf("object %d width %d exceeds limit %d", fragment.ObjectId, fragment.Width, p.maxWidth)
		}

		p.logger.Debug("PGS: object fragment", slog.String("ods", fragment.String()))
		existing, exists := acc.objects[fragment.ObjectId]
		if !exists || fragment.IsFirst {
			acc.objects[fragment.ObjectId] = &decodedObject{height: fragment.Height, id: fragment.ObjectId, rleData: fragment.RleData, width: fragment.Width}
		} else {
			existing.merge(fragment)
		}
	case SegmentEnd:
		palette := acc.palette()
		if acc.composition != nil && palette != nil {
			if frame := p.assemble(acc, palette, result); frame != nil {
				result.Frames = append(result.Frames, frame)
			}
		}

		acc.reset()
	default:
		p.logger.Debug("PGS: unknown segment type", slog.Int("offset", segment.Offset), slog.String("segment", segment.Kind.String()))
	}

	return nil
}

// assemble builds the frame for the current display set, or nil when no object could
// be decoded.
func (p *Parser) assemble(acc *accumulator, palette *BluRaySupPalette, result *ParseResult) *Frame {
	composition := acc.composition
	frame := &Frame{
		CompNum:          composition.CompNum,
		CompositionState: composition.CompositionState,
		EndTime:          EndUnset,
		PaletteId:        palette.Id,
		PtsTimestamp:     composition.PtsTimestamp,
		Size:             composition.Size,
		StartTime:        PtsToDuration(composition.PtsTimestamp),
	}
	for _, id := range slices.Sorted(maps.Keys(acc.windows)) {
		frame.Windows = append(frame.Windows, acc.windows[id])
	}

	if len(composition.Objects) == 0 {
		return frame
	}

	for _, compObj := range composition.Objects {
		obj, exists := acc.objects[compObj.ObjectId]
		if !exists || obj.width <= 0 || obj.height <= 0 {
			issue := errors.Mark(errors.Newf("composition at %s references object %d which is missing or has no dimensions", PtsToTimeString(composition.PtsTimestamp), compObj.ObjectId), ErrDanglingReference)
			p.logger.Warn("PGS: skipping composition object", slog.Int("object_id", compObj.ObjectId), slog.String("reason", issue.Error()))
			p.report(result, issue)
			continue
		}

		pixels, stats, decodeErr := DecodeRle(obj.rleData, obj.width, obj.height, palette, p.maxLines)
		if decodeErr != nil {
			p.report(result, errors.Wrapf(decodeErr, "object %d", obj.id))
			if pixels == nil {
				continue
			}
			p.logger.Warn("PGS: object truncated at line ceiling", slog.Int("object_id", obj.id), slog.Int("max_lines", p.maxLines))
		}
		if stats.Extended {
			p.logger.Debug("PGS: auto-extended object height to fit content", slog.Int("object_id", obj.id), slog.Int("declared", obj.height), slog.Int("actual", stats.Height))
		}

		frame.Images = append(frame.Images, Image{
			Forced:   compObj.IsForced,
			ObjectId: obj.id,
			Pixels:   pixels,
			WindowId: compObj.WindowId,
			X:        compObj.Origin.X,
			Y:        compObj.Origin.Y,
		})
	}

	if len(frame.Images) == 0 {
		return nil
	}

	return frame
}
