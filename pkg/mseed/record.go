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
	"strconv"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// RecordLayerNum identifies the layer
	RecordLayerNum = 2011

	FixedHeaderLength = 48
	Blockette1000Type = 1000
	// DataOffset is where samples start: fixed header plus blockette 1000, aligned to 64
	DataOffset      = 64
	MinRecordLength = 256
	MaxRecordLength = 65536
	MaxSequence     = 999999
	WordOrderBig    = 1
)

type Encoding uint8

const (
	EncodingInt16  Encoding = 1
	EncodingInt32  Encoding = 3
	EncodingSteim1 Encoding = 10
)

var encodingNames = map[string]Encoding{
	"int32":  EncodingInt32,
	"steim1": EncodingSteim1,
}

// ParseEncoding converts an encoding name from the configuration
func ParseEncoding(name string) (Encoding, error) {
	e, ok := encodingNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("Unknown encoding %q, must be one of: int32, steim1", name)
	}
	return e, nil
}

func (e Encoding) String() string {
	switch e {
	case EncodingInt16:
		return "int16"
	case EncodingInt32:
		return "int32"
	case EncodingSteim1:
		return "steim1"
	default:
		return strconv.Itoa(int(e))
	}
}

// RecordHeader is the fixed section of data header plus blockette 1000
type RecordHeader struct {
	Sequence       int
	Quality        byte
	Network        string
	Station        string
	Location       string
	Channel        string
	Start          BTime
	NumSamples     uint16
	RateFactor     int16
	RateMultiplier int16
	ActivityFlags  uint8
	IOFlags        uint8
	QualityFlags   uint8
	TimeCorrection int32
	Encoding       Encoding
	RecordLength   int
}

// SourceName is NET_STA_LOC_CHAN
func (h *RecordHeader) SourceName() string {
	return fmt.Sprintf("%s_%s_%s_%s", h.Network, h.Station, h.Location, h.Channel)
}

// SampleRate in samples per second
func (h *RecordHeader) SampleRate() float64 {
	return SampleRate(h.RateFactor, h.RateMultiplier)
}

// Record is one miniSEED data record
type Record struct {
	layers.BaseLayer
	RecordHeader
	// Data is the encoded data section, len(Data) <= RecordLength-DataOffset
	Data []byte
}

var RecordLayerType = gopacket.RegisterLayerType(RecordLayerNum,
	gopacket.LayerTypeMetadata{Name: "MiniSeedRecordLayerType", Decoder: gopacket.DecodeFunc(DecodeRecordLayer)})

// LayerType returns the type of the record layer in the layer catalog
func (r *Record) LayerType() gopacket.LayerType {
	return RecordLayerType
}

func recordLengthExponent(length int) (uint8, error) {
	if length < MinRecordLength || length > MaxRecordLength || length&(length-1) != 0 {
		return 0, ErrRecordLength{Length: length}
	}
	var exp uint8
	for 1<<exp < length {
		exp++
	}
	return exp, nil
}

func putPadded(buf []byte, s string) {
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf, s)
}

// SerializeTo appends exactly RecordLength bytes
func (r *Record) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	exp, err := recordLengthExponent(r.RecordLength)
	if err != nil {
		return err
	}
	if len(r.Data) > r.RecordLength-DataOffset {
		return ErrBadRecord{What: "data section does not fit the record"}
	}
	buf, err := b.AppendBytes(r.RecordLength)
	if err != nil {
		return err
	}
	for i := range buf {
		buf[i] = 0
	}

	copy(buf[0:6], fmt.Sprintf("%06d", r.Sequence%(MaxSequence+1)))
	buf[6] = r.Quality
	buf[7] = ' '
	putPadded(buf[8:13], r.Station)
	putPadded(buf[13:15], r.Location)
	putPadded(buf[15:18], r.Channel)
	putPadded(buf[18:20], r.Network)
	r.Start.Serialize(buf[20:30])
	binary.BigEndian.PutUint16(buf[30:32], r.NumSamples)
	binary.BigEndian.PutUint16(buf[32:34], uint16(r.RateFactor))
	binary.BigEndian.PutUint16(buf[34:36], uint16(r.RateMultiplier))
	buf[36] = r.ActivityFlags
	buf[37] = r.IOFlags
	buf[38] = r.QualityFlags
	buf[39] = 1 // blockettes that follow
	binary.BigEndian.PutUint32(buf[40:44], uint32(r.TimeCorrection))
	binary.BigEndian.PutUint16(buf[44:46], DataOffset)
	binary.BigEndian.PutUint16(buf[46:48], FixedHeaderLength)

	// Blockette 1000
	binary.BigEndian.PutUint16(buf[48:50], Blockette1000Type)
	binary.BigEndian.PutUint16(buf[50:52], 0)
	buf[52] = uint8(r.Encoding)
	buf[53] = WordOrderBig
	buf[54] = exp
	buf[55] = 0

	copy(buf[DataOffset:], r.Data)
	return nil
}

func trimCode(b []byte) string {
	return strings.TrimSpace(string(b))
}

// DecodeFromBytes parses a record and finds its length in blockette 1000
func (r *Record) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < DataOffset {
		df.SetTruncated()
		return ErrBadRecord{What: "shorter than fixed header and blockette 1000"}
	}
	seq, err := strconv.Atoi(strings.TrimSpace(string(data[0:6])))
	if err != nil {
		return ErrBadRecord{What: "sequence number is not numeric"}
	}
	switch data[6] {
	case 'D', 'R', 'Q', 'M':
	default:
		return ErrBadRecord{What: fmt.Sprintf("unknown quality indicator %q", data[6])}
	}
	h := RecordHeader{
		Sequence:       seq,
		Quality:        data[6],
		Station:        trimCode(data[8:13]),
		Location:       trimCode(data[13:15]),
		Channel:        trimCode(data[15:18]),
		Network:        trimCode(data[18:20]),
		Start:          DecodeBTime(data[20:30]),
		NumSamples:     binary.BigEndian.Uint16(data[30:32]),
		RateFactor:     int16(binary.BigEndian.Uint16(data[32:34])),
		RateMultiplier: int16(binary.BigEndian.Uint16(data[34:36])),
		ActivityFlags:  data[36],
		IOFlags:        data[37],
		QualityFlags:   data[38],
		TimeCorrection: int32(binary.BigEndian.Uint32(data[40:44])),
	}
	dataOffset := int(binary.BigEndian.Uint16(data[44:46]))

	// walk the blockette chain looking for blockette 1000
	next := int(binary.BigEndian.Uint16(data[46:48]))
	found := false
	for hops := 0; next != 0 && hops < int(data[39]); hops++ {
		if next+8 > len(data) {
			df.SetTruncated()
			return ErrBadRecord{What: "blockette beyond record"}
		}
		if binary.BigEndian.Uint16(data[next:next+2]) == Blockette1000Type {
			h.Encoding = Encoding(data[next+4])
			if data[next+5] != WordOrderBig {
				return ErrBadRecord{What: "little endian records are not supported"}
			}
			h.RecordLength = 1 << data[next+6]
			found = true
			break
		}
		next = int(binary.BigEndian.Uint16(data[next+2 : next+4]))
	}
	if !found {
		return ErrBadRecord{What: "no blockette 1000"}
	}
	if h.RecordLength > len(data) {
		df.SetTruncated()
		return ErrBadRecord{What: fmt.Sprintf("record length %d, got %d bytes", h.RecordLength, len(data))}
	}
	if dataOffset < FixedHeaderLength || dataOffset > h.RecordLength {
		return ErrBadRecord{What: "beginning of data outside the record"}
	}

	r.RecordHeader = h
	r.Data = data[dataOffset:h.RecordLength]
	r.BaseLayer = layers.BaseLayer{
		Contents: data[:h.RecordLength],
		Payload:  data[h.RecordLength:],
	}
	return nil
}

func DecodeRecordLayer(data []byte, p gopacket.PacketBuilder) error {
	r := &Record{}
	err := r.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(r)
	return nil
}

// Samples decodes the data section
func (r *Record) Samples() ([]int32, error) {
	n := int(r.NumSamples)
	switch r.Encoding {
	case EncodingInt16:
		if len(r.Data) < 2*n {
			return nil, ErrBadRecord{What: "int16 data section too short"}
		}
		samples := make([]int32, n)
		for i := range samples {
			samples[i] = int32(int16(binary.BigEndian.Uint16(r.Data[2*i:])))
		}
		return samples, nil
	case EncodingInt32:
		if len(r.Data) < 4*n {
			return nil, ErrBadRecord{What: "int32 data section too short"}
		}
		samples := make([]int32, n)
		for i := range samples {
			samples[i] = int32(binary.BigEndian.Uint32(r.Data[4*i:]))
		}
		return samples, nil
	case EncodingSteim1:
		return unpackSteim1(r.Data, n)
	default:
		return nil, ErrEncoding{Encoding: r.Encoding}
	}
}
