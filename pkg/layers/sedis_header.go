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

package layers

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
	"time"
)

// SedisHeader field offsets. All multi byte fields are little endian.
const (
	SedisHeaderLength = 80
	SedisMarkerLength = 12
	SedisNumChannels  = 6

	offHeaderSize   = 12
	offConfigWord   = 13
	offChannelMap   = 14
	offBlockSamples = 15
	offSampleBytes  = 17
	offSampleTime   = 18
	offBattery      = 26
	offTemperature  = 28
	offRevision     = 30
	offBoard        = 31
	offSV           = 33
	offDrift        = 34
	offSedisTime    = 38
	offGPSTime      = 46
	offCompassFlag  = 53
	offPosition     = 54
	positionLength  = 23
)

// ConfigWord bits
const (
	ConfigWideSamples     uint8 = 0b10000000
	ConfigInternalOffset  uint8 = 0b01000000
	ConfigLowPower        uint8 = 0b00100000
	ConfigLowSamplingRate uint8 = 0b00010000

	// RateKeyMask selects the ConfigWord bits the sampling interval depends on
	RateKeyMask = ConfigWideSamples | ConfigLowPower | ConfigLowSamplingRate
)

// Compass discriminator values
const (
	CompassInvalid  uint8 = 0xFF
	CompassPosition uint8 = 0
	CompassString   uint8 = 1
)

// SedisMarker starts every valid header
var SedisMarker = []byte("SeismicData\x00")

type FixSource uint8

const (
	FixUnknown FixSource = iota
	Fix2D
	Fix3D
)

func (f FixSource) String() string {
	switch f {
	case Fix2D:
		return "2D"
	case Fix3D:
		return "3D"
	default:
		return "unknown"
	}
}

type DataAge uint8

const (
	AgeUnavailable DataAge = iota
	AgeFresh               // less than 10 seconds
	AgeOld                 // more than 10 seconds
)

func (a DataAge) String() string {
	switch a {
	case AgeFresh:
		return "fresh"
	case AgeOld:
		return "old"
	default:
		return "unavailable"
	}
}

// Position is the decoded GPS position carried in the header
type Position struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// SedisHeader is a read only view over the 80 byte block header.
// It does not own or copy the bytes, so it is valid only as long as
// the underlying buffer is not modified.
type SedisHeader []byte

// Valid reports whether the view is long enough and starts with the marker
func (h SedisHeader) Valid() bool {
	return len(h) >= SedisHeaderLength && bytes.Equal(h[:SedisMarkerLength], SedisMarker)
}

func (h SedisHeader) HeaderSize() uint8 {
	return h[offHeaderSize]
}

func (h SedisHeader) ConfigWord() uint8 {
	return h[offConfigWord]
}

// SampleWidth is the number of bytes per channel sample, 3 or 4
func (h SedisHeader) SampleWidth() int {
	if h.ConfigWord()&ConfigWideSamples != 0 {
		return 4
	}
	return 3
}

func (h SedisHeader) InternalOffset() bool {
	return h.ConfigWord()&ConfigInternalOffset != 0
}

func (h SedisHeader) LowPower() bool {
	return h.ConfigWord()&ConfigLowPower != 0
}

func (h SedisHeader) LowSamplingRate() bool {
	return h.ConfigWord()&ConfigLowSamplingRate != 0
}

// RateKey is the key of the externally configured sampling interval lookup
func (h SedisHeader) RateKey() uint8 {
	return h.ConfigWord() & RateKeyMask
}

func (h SedisHeader) ChannelBitMap() uint8 {
	return h[offChannelMap]
}

// ChannelEnabled reports whether channel c (1..6) is present in the body
func (h SedisHeader) ChannelEnabled(c int) bool {
	if c < 1 || c > SedisNumChannels {
		return false
	}
	return (h.ChannelBitMap()>>uint(c-1))&1 == 1
}

// EnabledChannels returns enabled channel numbers in ascending order
func (h SedisHeader) EnabledChannels() []int {
	var channels []int
	for c := 1; c <= SedisNumChannels; c++ {
		if h.ChannelEnabled(c) {
			channels = append(channels, c)
		}
	}
	return channels
}

func (h SedisHeader) BlockSamples() int {
	return int(binary.LittleEndian.Uint16(h[offBlockSamples : offBlockSamples+2]))
}

func (h SedisHeader) SampleBytes() int {
	return int(h[offSampleBytes])
}

// FrameLength is the declared length of the whole frame, header included
func (h SedisHeader) FrameLength() int {
	return SedisHeaderLength + h.BlockSamples()*h.SampleBytes()
}

// SampleTime is the time of the first sample in the block
func (h SedisHeader) SampleTime() (time.Time, error) {
	return decodeCalendar(h[offSampleTime:offSampleTime+8], true)
}

// SedisTime is the logger clock at the moment the header was built
func (h SedisHeader) SedisTime() (time.Time, error) {
	return decodeCalendar(h[offSedisTime:offSedisTime+8], true)
}

// GPSTime is the time of the last GPS fix
func (h SedisHeader) GPSTime() (time.Time, error) {
	return decodeCalendar(h[offGPSTime:offGPSTime+7], false)
}

func (h SedisHeader) BatteryRaw() uint16 {
	return binary.LittleEndian.Uint16(h[offBattery : offBattery+2])
}

// BatteryVoltage in volts
func (h SedisHeader) BatteryVoltage() float64 {
	return 50.0 / 1024.0 * float64(h.BatteryRaw())
}

func (h SedisHeader) TemperatureRaw() uint16 {
	return binary.LittleEndian.Uint16(h[offTemperature : offTemperature+2])
}

// Temperature in degrees Celsius
func (h SedisHeader) Temperature() float64 {
	return (5000.0/1024.0*float64(h.TemperatureRaw()) - 600.0) / 10.0
}

func (h SedisHeader) Revision() uint8 {
	return h[offRevision]
}

func (h SedisHeader) Board() uint16 {
	return binary.LittleEndian.Uint16(h[offBoard : offBoard+2])
}

func (h SedisHeader) FixSource() FixSource {
	switch h[offSV] >> 6 {
	case 0b01:
		return Fix2D
	case 0b10:
		return Fix3D
	default:
		return FixUnknown
	}
}

func (h SedisHeader) DataAge() DataAge {
	switch (h[offSV] >> 4) & 0b11 {
	case 0b01:
		return AgeFresh
	case 0b10:
		return AgeOld
	default:
		return AgeUnavailable
	}
}

// Satellites is the number of satellites in view
func (h SedisHeader) Satellites() int {
	return int(h[offSV] & 0x0f)
}

// Drift of the logger clock against GPS
func (h SedisHeader) Drift() time.Duration {
	return time.Duration(int32(binary.LittleEndian.Uint32(h[offDrift:offDrift+4]))) * time.Microsecond
}

func (h SedisHeader) CompassFlag() uint8 {
	return h[offCompassFlag]
}

func (h SedisHeader) rawPosition() string {
	raw := h[offPosition : offPosition+positionLength]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(string(raw))
}

// Position decodes latitude, longitude and altitude. The second result is
// false when the discriminator does not announce a position or the string
// does not parse.
func (h SedisHeader) Position() (Position, bool) {
	if h.CompassFlag() != CompassPosition {
		return Position{}, false
	}
	fields := strings.Fields(h.rawPosition())
	if len(fields) != 3 {
		return Position{}, false
	}
	var values [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Position{}, false
		}
		values[i] = v
	}
	if values[0] < -90 || values[0] > 90 || values[1] < -180 || values[1] > 180 {
		return Position{}, false
	}
	return Position{Latitude: values[0], Longitude: values[1], Altitude: values[2]}, true
}

// PositionString returns the raw position string if the discriminator announces one
func (h SedisHeader) PositionString() (string, bool) {
	if h.CompassFlag() != CompassPosition {
		return "", false
	}
	return h.rawPosition(), true
}

// Compass returns the raw compass string if the discriminator announces one
func (h SedisHeader) Compass() (string, bool) {
	if h.CompassFlag() != CompassString {
		return "", false
	}
	return h.rawPosition(), true
}

// decodeCalendar reads sec, min, hour, [weekday,] date, month, year(uint16)
func decodeCalendar(b []byte, weekday bool) (time.Time, error) {
	sec, minute, hour := int(b[0]), int(b[1]), int(b[2])
	i := 3
	if weekday {
		i++
	}
	date, month := int(b[i]), int(b[i+1])
	year := int(binary.LittleEndian.Uint16(b[i+2 : i+4]))
	if year < 100 {
		year += 2000
	}
	if sec > 59 || minute > 59 || hour > 23 || month < 1 || month > 12 || date < 1 {
		return time.Time{}, ErrInvalidHeaderField{Field: "time", What: "calendar field out of range"}
	}
	t := time.Date(year, time.Month(month), date, hour, minute, sec, 0, time.UTC)
	// time.Date normalizes e.g. February 30th, such dates are rejected
	if t.Day() != date {
		return time.Time{}, ErrInvalidHeaderField{Field: "time", What: "day out of range for month"}
	}
	return t, nil
}

// EncodeCalendar is the inverse of the packed calendar decoding, it is used
// to build headers for the instrument simulator and tests.
func EncodeCalendar(b []byte, t time.Time) {
	t = t.UTC()
	b[0] = uint8(t.Second())
	b[1] = uint8(t.Minute())
	b[2] = uint8(t.Hour())
	b[3] = uint8(t.Weekday())
	b[4] = uint8(t.Day())
	b[5] = uint8(t.Month())
	binary.LittleEndian.PutUint16(b[6:8], uint16(t.Year()))
}
