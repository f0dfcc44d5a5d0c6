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
	"io"
	"math"
	"time"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-sedis/pkg/log"
)

const (
	DefaultRecordLength = 512
	DefaultQuality      = 'D'
)

// Trace is a contiguous run of integer samples of one channel
type Trace struct {
	Network    string
	Station    string
	Location   string
	Channel    string
	Start      time.Time
	SampleRate float64
	Samples    []int32
}

func (t *Trace) validate() error {
	for _, f := range []struct {
		field, value string
		max          int
	}{
		{"Network", t.Network, 2},
		{"Station", t.Station, 5},
		{"Location", t.Location, 2},
		{"Channel", t.Channel, 3},
	} {
		if len(f.value) > f.max {
			return ErrSourceName{Field: f.field, Value: f.value, Max: f.max}
		}
	}
	return nil
}

// Packer splits traces into miniSEED records. Sequence numbers continue
// across Pack calls for the lifetime of the packer.
type Packer struct {
	recordLength int
	encoding     Encoding
	quality      byte
	seq          int
}

// NewPacker validates record length and encoding
func NewPacker(recordLength int, encoding Encoding) (*Packer, error) {
	if _, err := recordLengthExponent(recordLength); err != nil {
		return nil, err
	}
	switch encoding {
	case EncodingInt32, EncodingSteim1:
	default:
		return nil, ErrEncoding{Encoding: encoding}
	}
	return &Packer{
		recordLength: recordLength,
		encoding:     encoding,
		quality:      DefaultQuality,
	}, nil
}

func (p *Packer) RecordLength() int {
	return p.recordLength
}

func (p *Packer) Encoding() Encoding {
	return p.encoding
}

func (p *Packer) nextSequence() int {
	p.seq = p.seq%MaxSequence + 1
	return p.seq
}

// Pack writes the trace to w as a series of records and returns the number of records written
func (p *Packer) Pack(w io.Writer, trace *Trace) (int, error) {
	if err := trace.validate(); err != nil {
		return 0, err
	}
	factor, multiplier, err := SampleRateFactor(trace.SampleRate)
	if err != nil {
		return 0, err
	}
	if len(trace.Samples) > 0 && trace.SampleRate == 0 {
		return 0, ErrSampleRate{Rate: trace.SampleRate}
	}

	area := make([]byte, p.recordLength-DataOffset)
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	records := 0

	for offset := 0; offset < len(trace.Samples); {
		for i := range area {
			area[i] = 0
		}
		var n, used int
		switch p.encoding {
		case EncodingInt32:
			n = len(trace.Samples) - offset
			if limit := len(area) / 4; n > limit {
				n = limit
			}
			for i := 0; i < n; i++ {
				binary.BigEndian.PutUint32(area[4*i:], uint32(trace.Samples[offset+i]))
			}
			used = 4 * n
		case EncodingSteim1:
			var d0 int32
			if offset > 0 {
				d0 = trace.Samples[offset] - trace.Samples[offset-1]
			}
			n, used = packSteim1(area, trace.Samples[offset:], d0)
		}

		start := trace.Start.Add(time.Duration(math.Round(float64(offset) * float64(time.Second) / trace.SampleRate)))
		record := &Record{
			RecordHeader: RecordHeader{
				Sequence:       p.nextSequence(),
				Quality:        p.quality,
				Network:        trace.Network,
				Station:        trace.Station,
				Location:       trace.Location,
				Channel:        trace.Channel,
				Start:          NewBTime(start),
				NumSamples:     uint16(n),
				RateFactor:     factor,
				RateMultiplier: multiplier,
				Encoding:       p.encoding,
				RecordLength:   p.recordLength,
			},
			Data: area[:used],
		}
		if err := gopacket.SerializeLayers(buf, opts, record); err != nil {
			return records, err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return records, err
		}
		log.Debug("Packed record: %s seq: %06d samples: %d start: %s",
			record.SourceName(), record.Sequence, n, record.Start)
		records++
		offset += n
	}
	return records, nil
}
