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
 * NOTE: Converted from C# to Go by github.com/RistRyder
 */

package bluraysup

const (
	paletteHeaderSize = 2
	paletteEntrySize  = 5
)

// DecodePalette converts a PDS payload (palette id, version, then 5 byte entries of
// index, Y, Cr, Cb, alpha) into a palette using the BT.601 inverse transform.
func DecodePalette(buffer []byte) (*BluRaySupPalette, int, error) {
	if len(buffer) < paletteHeaderSize {
		return nil, 0, segmentDecodeErrorf("PDS payload of %d bytes is shorter than its header", len(buffer))
	}

	paletteId := int(buffer[0])     //8bit palette ID (0..7)
	paletteUpdate := int(buffer[1]) //8bit palette version number (incremented for each palette change)
	palette := NewBluRaySupPalette(paletteId, paletteUpdate, true)

	count := 0
	for index := paletteHeaderSize; index+paletteEntrySize <= len(buffer); index += paletteEntrySize {
		palIndex := int(buffer[index])
		y := int(buffer[index+1])
		cr := int(buffer[index+2])
		cb := int(buffer[index+3])
		alpha := int(buffer[index+4])

		palette.SetAlpha(palIndex, alpha)
		palette.SetYCbCr(palIndex, y, cb, cr)
		count++
	}

	return palette, count, nil
}
