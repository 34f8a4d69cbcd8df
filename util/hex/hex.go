/*
 * VSP core - Hex/ByteSil formatting helpers.
 *
 * Copyright 2026, VSP core contributors.
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package hex

import (
	"strconv"
	"strings"

	"github.com/vsp-core/vsp/bytesil"
)

var hexMap = "0123456789ABCDEF"

func FormatBytes(str *strings.Builder, space bool, data []uint8) {
	for _, by := range data {
		str.WriteByte(hexMap[(by>>4)&0xf])
		str.WriteByte(hexMap[by&0xf])
		if space {
			str.WriteByte(' ')
		}
	}
}

func FormatByte(str *strings.Builder, data byte) {
	str.WriteByte(hexMap[(data>>4)&0xf])
	str.WriteByte(hexMap[data&0xf])
}

// FormatByteSil renders a ByteSil as its packed byte plus rho/theta, e.g.
// "3A(rho=3,theta=10)", for disassembly and console dumps.
func FormatByteSil(str *strings.Builder, b bytesil.ByteSil) {
	FormatByte(str, b.Pack())
	str.WriteString("(rho=")
	str.WriteString(strconv.Itoa(int(b.Rho)))
	str.WriteString(",theta=")
	str.WriteString(strconv.Itoa(int(b.Theta)))
	str.WriteByte(')')
}

// FormatState renders all 16 layers of a SilState as space-separated
// packed hex bytes, matching FormatBytes' spacing convention.
func FormatState(str *strings.Builder, layers [16]byte) {
	FormatBytes(str, true, layers[:])
}
