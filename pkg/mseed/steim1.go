/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package mseed

import (
	"encoding/binary"
	"fmt"
	"math"
)

/*
 Steim-1 data section is a sequence of 64 byte frames of 16 big endian words.
 Word 0 of every frame holds 2 bit nibbles describing words 0..15:
   00 - no differences (control word, integration constants)
   01 - four 8 bit differences
   10 - two 16 bit differences
   11 - one 32 bit difference
 Words 1 and 2 of the first frame are the forward (first sample) and
 reverse (last sample) integration constants.
*/

const (
	steimFrameLength = 64
	steimFrameWords  = 16

	nibbleNone = 0b00
	nibbleFour = 0b01
	nibbleTwo  = 0b10
	nibbleOne  = 0b11
)

func fitsInt8(v int32) bool {
	return v >= math.MinInt8 && v <= math.MaxInt8
}

func fitsInt16(v int32) bool {
	return v >= math.MinInt16 && v <= math.MaxInt16
}

// packSteim1 packs leading samples into dst, whose length must be a multiple
// of 64. d0 is the difference of the first sample to the sample preceding it
// in the stream, 0 at the beginning of a trace. It returns the number of
// samples packed and the number of bytes used.
func packSteim1(dst []byte, samples []int32, d0 int32) (packed int, used int) {
	frames := len(dst) / steimFrameLength
	if frames == 0 || len(samples) == 0 {
		return 0, 0
	}

	diff := func(i int) int32 {
		if i == 0 {
			return d0
		}
		// 32 bit wrap around is undone by the decoder's 32 bit integration
		return samples[i] - samples[i-1]
	}

	i := 0
	for f := 0; f < frames && i < len(samples); f++ {
		frame := dst[f*steimFrameLength : (f+1)*steimFrameLength]
		var ctrl uint32
		first := 1
		if f == 0 {
			// words 1 and 2 are filled in once the count is known
			first = 3
		}
		for w := first; w < steimFrameWords && i < len(samples); w++ {
			word := frame[w*4 : w*4+4]
			remaining := len(samples) - i
			switch {
			case remaining >= 4 && fitsInt8(diff(i)) && fitsInt8(diff(i+1)) &&
				fitsInt8(diff(i+2)) && fitsInt8(diff(i+3)):
				for k := 0; k < 4; k++ {
					word[k] = uint8(int8(diff(i + k)))
				}
				ctrl |= nibbleFour << uint(30-2*w)
				i += 4
			case remaining >= 2 && fitsInt16(diff(i)) && fitsInt16(diff(i+1)):
				binary.BigEndian.PutUint16(word[0:2], uint16(int16(diff(i))))
				binary.BigEndian.PutUint16(word[2:4], uint16(int16(diff(i+1))))
				ctrl |= nibbleTwo << uint(30-2*w)
				i += 2
			default:
				binary.BigEndian.PutUint32(word, uint32(diff(i)))
				ctrl |= nibbleOne << uint(30-2*w)
				i++
			}
		}
		binary.BigEndian.PutUint32(frame[0:4], ctrl)
		used = (f + 1) * steimFrameLength
	}

	binary.BigEndian.PutUint32(dst[4:8], uint32(samples[0]))
	binary.BigEndian.PutUint32(dst[8:12], uint32(samples[i-1]))
	return i, used
}

// unpackSteim1 decodes n samples and checks the reverse integration constant
func unpackSteim1(data []byte, n int) ([]int32, error) {
	if n == 0 {
		return []int32{}, nil
	}
	if len(data) < steimFrameLength {
		return nil, ErrBadRecord{What: "steim1 data section shorter than one frame"}
	}
	x0 := int32(binary.BigEndian.Uint32(data[4:8]))
	xn := int32(binary.BigEndian.Uint32(data[8:12]))

	diffs := make([]int32, 0, n)
	frames := len(data) / steimFrameLength
	for f := 0; f < frames && len(diffs) < n; f++ {
		frame := data[f*steimFrameLength : (f+1)*steimFrameLength]
		ctrl := binary.BigEndian.Uint32(frame[0:4])
		for w := 1; w < steimFrameWords && len(diffs) < n; w++ {
			word := frame[w*4 : w*4+4]
			switch (ctrl >> uint(30-2*w)) & 0b11 {
			case nibbleNone:
			case nibbleFour:
				for k := 0; k < 4; k++ {
					diffs = append(diffs, int32(int8(word[k])))
				}
			case nibbleTwo:
				diffs = append(diffs,
					int32(int16(binary.BigEndian.Uint16(word[0:2]))),
					int32(int16(binary.BigEndian.Uint16(word[2:4]))))
			case nibbleOne:
				diffs = append(diffs, int32(binary.BigEndian.Uint32(word)))
			}
		}
	}
	if len(diffs) < n {
		return nil, ErrBadRecord{What: fmt.Sprintf("steim1 frames hold %d differences, header says %d samples", len(diffs), n)}
	}

	samples := make([]int32, n)
	samples[0] = x0
	for i := 1; i < n; i++ {
		samples[i] = samples[i-1] + diffs[i]
	}
	if samples[n-1] != xn {
		return nil, ErrBadRecord{What: fmt.Sprintf("steim1 integrity check failed: last sample %d, reverse constant %d", samples[n-1], xn)}
	}
	return samples, nil
}
