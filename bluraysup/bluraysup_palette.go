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

import "image/color"

const PaletteSize = 256

// BluRaySupPalette is a fixed 256 entry color table. Entries that were never defined
// stay transparent black.
type BluRaySupPalette struct {
	Id       int
	Version  int
	entries  [PaletteSize]color.NRGBA
	useBt601 bool //Use BT.601 color model instead of BT.709
}

//Convert RGB color info to YCbCr (studio range)
func RGB2YCbCr(r, g, b int, useBt601 bool) [3]int {
	var yCbCr [3]int
	var y, cb, cr float64

	if useBt601 {
		//BT.601 for RGB 0..255 (PC) -> YCbCr 16..235
		y = float64(r)*0.299*219/255 + float64(g)*0.587*219/255 + float64(b)*0.114*219/255
		cb = float64(-r)*0.168736*224/255 - float64(g)*0.331264*224/255 + float64(b)*0.5*224/255
		cr = float64(r)*0.5*224/255 - float64(g)*0.418688*224/255 - float64(b)*0.081312*224/255
	} else {
		//BT.709 for RGB 0..255 (PC) -> YCbCr 16..235
		y = float64(r)*0.2126*219/255 + float64(g)*0.7152*219/255 + float64(b)*0.0722*219/255
		cb = float64(-r)*0.2126/1.8556*224/255 - float64(g)*0.7152/1.8556*224/255 + float64(b)*0.5*224/255
		cr = float64(r)*0.5*224/255 - float64(g)*0.7152/1.5748*224/255 - float64(b)*0.0722/1.5748*224/255
	}

	yCbCr[0] = 16 + roundHalfUp(y)
	yCbCr[1] = 128 + roundHalfUp(cb)
	yCbCr[2] = 128 + roundHalfUp(cr)
	for i := 0; i < 3; i++ {
		if yCbCr[i] < 16 {
			yCbCr[i] = 16
		} else if i == 0 {
			if yCbCr[i] > 235 {
				yCbCr[i] = 235
			}
		} else if yCbCr[i] > 240 {
			yCbCr[i] = 240
		}
	}

	return yCbCr
}

//NewBluRaySupPalette initializes the palette with transparent black (RGBA: 0x00000000)
func NewBluRaySupPalette(id, version int, use601 bool) *BluRaySupPalette {
	return &BluRaySupPalette{Id: id, Version: version, useBt601: use601}
}

//At returns the color at the specified palette index
func (b *BluRaySupPalette) At(index byte) color.NRGBA {
	return b.entries[index]
}

//AlphaAtIndex returns the alpha channel at the specified palette index
func (b *BluRaySupPalette) AlphaAtIndex(index int) int {
	return int(b.entries[index].A)
}

//SetAlpha sets the alpha channel at the specified palette index
func (b *BluRaySupPalette) SetAlpha(index, alpha int) {
	b.entries[index].A = uint8(alpha)
}

//SetYCbCr sets the palette entry (YCbCr mode)
func (b *BluRaySupPalette) SetYCbCr(index, yn, cbn, crn int) {
	rgb := YCbCr2Rgb(yn, cbn, crn, b.useBt601)
	b.entries[index].R = uint8(rgb[0])
	b.entries[index].G = uint8(rgb[1])
	b.entries[index].B = uint8(rgb[2])
}

//YCbCr2Rgb converts studio range YCbCr color info to RGB clamped to 0..255
func YCbCr2Rgb(y, cb, cr int, useBt601 bool) [3]int {
	var rgb [3]int
	var r, g, b float64

	y -= 16
	cb -= 128
	cr -= 128

	y1 := float64(y) * 1.164383562
	if useBt601 {
		//BT.601 for YCbCr 16..235 -> RGB 0..255 (PC)
		r = y1 + float64(cr)*1.596026317
		g = y1 - float64(cr)*0.8129674985 - float64(cb)*0.3917615979
		b = y1 + float64(cb)*2.017232218
	} else {
		//BT.709 for YCbCr 16..235 -> RGB 0..255 (PC)
		r = y1 + float64(cr)*1.792741071
		g = y1 - float64(cr)*0.5329093286 - float64(cb)*0.2132486143
		b = y1 + float64(cb)*2.112401786
	}

	rgb[0] = roundHalfUp(r)
	rgb[1] = roundHalfUp(g)
	rgb[2] = roundHalfUp(b)
	for i := 0; i < 3; i++ {
		if rgb[i] < 0 {
			rgb[i] = 0
		} else if rgb[i] > 255 {
			rgb[i] = 255
		}
	}

	return rgb
}

func roundHalfUp(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}

	return int(v + 0.5)
}
