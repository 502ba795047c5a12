// seehuhn.de/go/icc - read and write ICC profiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package icc

import "time"

// NewMatrixTRCProfile builds a minimal matrix/TRC profile from colorant XYZ
// columns, a single gamma applied to all three channels, a media white
// point, and a description string. It is the byte-level counterpart of the
// higher-level profile construction that colorist's profile package derives
// from primaries and a transfer curve: the caller is responsible for turning
// chromaticities into XYZ colorant columns (see the mat/profile packages)
// before calling this constructor.
//
// The returned profile has no checksum until Encode is called.
func NewMatrixTRCProfile(rXYZ, gXYZ, bXYZ, whiteXYZ [3]float64, gamma float64, description string) *Profile {
	p := &Profile{
		Version:         Version4_3_0,
		Class:           DisplayDeviceProfile,
		ColorSpace:      RGBSpace,
		PCS:             PCSXYZSpace,
		CreationDate:    time.Now().UTC(),
		RenderingIntent: RelativeColorimetric,
		TagData:         make(map[TagType][]byte),
	}

	p.TagData[RedMatrixColumn] = encodeXYZType(rXYZ)
	p.TagData[GreenMatrixColumn] = encodeXYZType(gXYZ)
	p.TagData[BlueMatrixColumn] = encodeXYZType(bXYZ)
	p.TagData[MediaWhitePoint] = encodeXYZType(whiteXYZ)

	curve := (&Curve{Gamma: gamma}).Encode()
	p.TagData[RedTRC] = curve
	p.TagData[GreenTRC] = curve
	p.TagData[BlueTRC] = curve

	p.TagData[ProfileDescription] = encodeMLUCType(description)

	return p
}

func encodeXYZType(xyz [3]float64) []byte {
	buf := make([]byte, 20)
	copy(buf[0:4], "XYZ ")
	putS15Fixed16(buf, 8, xyz[0])
	putS15Fixed16(buf, 12, xyz[1])
	putS15Fixed16(buf, 16, xyz[2])
	return buf
}

func encodeMLUCType(s string) []byte {
	runes := []rune(s)
	buf := make([]byte, 28+2*len(runes))
	copy(buf[0:4], "mluc")
	putUint32(buf, 8, 1)
	putUint32(buf, 12, 12)
	buf[16], buf[17] = 'e', 'n'
	buf[18], buf[19] = 'U', 'S'
	putUint32(buf, 20, uint32(2*len(runes)))
	putUint32(buf, 24, 28)
	for i, r := range runes {
		if r > 0xFFFF {
			r = '?'
		}
		putUint16(buf, 28+2*i, uint16(r))
	}
	return buf
}
