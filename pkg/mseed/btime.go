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
	"time"
)

const (
	// BTimeLength is the size of the SEED binary time structure
	BTimeLength = 10
	// MaxSampleRate is the highest rate expressible with factor and multiplier
	MaxSampleRate = 32727.0
)

// BTime is the SEED binary time: year, day of year and 1/10000 second ticks
type BTime struct {
	Year   uint16
	Day    uint16
	Hour   uint8
	Minute uint8
	Second uint8
	Fract  uint16
}

// NewBTime converts t to BTime. Precision beyond 1/10000 second is
// truncated, not rounded.
func NewBTime(t time.Time) BTime {
	t = t.UTC()
	return BTime{
		Year:   uint16(t.Year()),
		Day:    uint16(t.YearDay()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
		Fract:  uint16(t.Nanosecond() / 100000),
	}
}

// Time converts BTime back to time.Time in UTC
func (b BTime) Time() time.Time {
	t := time.Date(int(b.Year), time.January, 1, int(b.Hour), int(b.Minute), int(b.Second), 0, time.UTC)
	return t.AddDate(0, 0, int(b.Day)-1).Add(time.Duration(b.Fract) * 100 * time.Microsecond)
}

func (b BTime) String() string {
	return fmt.Sprintf("%04d,%03d,%02d:%02d:%02d.%04d", b.Year, b.Day, b.Hour, b.Minute, b.Second, b.Fract)
}

// Serialize writes BTime big endian into buf
func (b BTime) Serialize(buf []byte) {
	binary.BigEndian.PutUint16(buf[0:2], b.Year)
	binary.BigEndian.PutUint16(buf[2:4], b.Day)
	buf[4] = b.Hour
	buf[5] = b.Minute
	buf[6] = b.Second
	buf[7] = 0
	binary.BigEndian.PutUint16(buf[8:10], b.Fract)
}

// DecodeBTime reads a big endian BTime
func DecodeBTime(buf []byte) BTime {
	return BTime{
		Year:   binary.BigEndian.Uint16(buf[0:2]),
		Day:    binary.BigEndian.Uint16(buf[2:4]),
		Hour:   buf[4],
		Minute: buf[5],
		Second: buf[6],
		Fract:  binary.BigEndian.Uint16(buf[8:10]),
	}
}

// SampleRateFactor derives the SEED sample rate factor and multiplier.
// Integer rates map to (rate, 1), other rates are approximated by a
// fraction with a negative multiplier denoting division.
func SampleRateFactor(rate float64) (factor, multiplier int16, err error) {
	if rate > MaxSampleRate || rate < 0.0 {
		return 0, 0, ErrSampleRate{Rate: rate}
	}
	if rate-float64(int16(rate)) < 0.000001 {
		factor = int16(rate)
		if factor != 0 {
			multiplier = 1
		}
		return factor, multiplier, nil
	}
	num, den := ratApprox(rate, int(MaxSampleRate), 1e-12)
	return int16(num), int16(-den), nil
}

// SampleRate is the inverse of SampleRateFactor
func SampleRate(factor, multiplier int16) float64 {
	f, m := float64(factor), float64(multiplier)
	switch {
	case factor == 0 || multiplier == 0:
		return 0
	case factor > 0 && multiplier > 0:
		return f * m
	case factor > 0 && multiplier < 0:
		return -f / m
	case factor < 0 && multiplier > 0:
		return -m / f
	default:
		return 1 / (f * m)
	}
}

// ratApprox finds num/den close to real by continued fraction expansion,
// keeping both below maxval while trying to reach precision.
func ratApprox(real float64, maxval int, precision float64) (num, den int) {
	pos := real >= 0
	realj := math.Abs(real)
	preal := realj

	bj := int(realj + precision)
	realj = 1 / (realj - float64(bj))
	aj, aj1, aj2 := bj, 1, 0
	bjj, bj1, bj2 := 1, 0, 0
	pnum, pden := aj, bjj
	num, den = pnum, pden

	for math.Abs(preal-float64(aj)/float64(bjj)) > precision && aj < maxval && bjj < maxval {
		aj2, aj1 = aj1, aj
		bj2, bj1 = bj1, bjj
		bj = int(realj + precision)
		realj = 1 / (realj - float64(bj))
		aj = bj*aj1 + aj2
		bjj = bj*bj1 + bj2
		num, den = pnum, pden
		pnum, pden = aj, bjj
	}

	if pnum < maxval && pden < maxval {
		num, den = pnum, pden
	}
	if !pos {
		num = -num
	}
	return num, den
}
