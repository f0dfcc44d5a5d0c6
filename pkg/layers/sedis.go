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
	"encoding/binary"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// SedisLayerNum identifies the layer
	SedisLayerNum = 2010
)

// SedisLayer is one complete SEDIS frame: the 80 byte header as layer
// contents and the interleaved samples as payload.
type SedisLayer struct {
	layers.BaseLayer
	Header SedisHeader
}

var SedisLayerType = gopacket.RegisterLayerType(SedisLayerNum,
	gopacket.LayerTypeMetadata{Name: "SedisLayerType", Decoder: gopacket.DecodeFunc(DecodeSedisLayer)})

// LayerType returns the type of the SEDIS layer in the layer catalog
func (s *SedisLayer) LayerType() gopacket.LayerType {
	return SedisLayerType
}

// Body returns the interleaved sample bytes of the declared length
func (s *SedisLayer) Body() []byte {
	return s.Payload
}

// DecodeFromBytes does not copy data, the layer keeps referencing it
func (s *SedisLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < SedisHeaderLength {
		df.SetTruncated()
		return ErrMalformedFrame{Declared: SedisHeaderLength, Actual: len(data)}
	}
	header := SedisHeader(data[:SedisHeaderLength])
	if !header.Valid() {
		return ErrInvalidHeaderField{Field: "Marker", What: "frame does not start with the marker"}
	}
	if header.HeaderSize() != SedisHeaderLength {
		return ErrInvalidHeaderField{Field: "HeaderSize", What: "must be 80"}
	}
	frameLength := header.FrameLength()
	if len(data) < frameLength {
		df.SetTruncated()
		return ErrMalformedFrame{Declared: frameLength, Actual: len(data)}
	}
	s.Header = header
	s.BaseLayer = layers.BaseLayer{
		Contents: data[:SedisHeaderLength],
		Payload:  data[SedisHeaderLength:frameLength],
	}
	return nil
}

// CanDecode returns the set of layer types this DecodingLayer can decode
func (s *SedisLayer) CanDecode() gopacket.LayerClass {
	return SedisLayerType
}

// NextLayerType is always payload, samples are demultiplexed by the transcoder
func (s *SedisLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func DecodeSedisLayer(data []byte, p gopacket.PacketBuilder) error {
	s := &SedisLayer{}
	err := s.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(s)
	return nil
}

// SedisFrame describes a frame to serialize. It is what the logger builds
// on its side and is used by the instrument simulator and tests.
type SedisFrame struct {
	ConfigWord   uint8
	ChannelMap   uint8
	BlockSamples uint16
	// SampleBytes is computed from the enabled channels when zero
	SampleBytes uint8
	SampleTime  time.Time
	Battery     uint16
	Temperature uint16
	Revision    uint8
	Board       uint16
	SV          uint8
	Drift       int32
	CompassFlag uint8
	Position    string
	// Samples are indexed by channel number minus one, only enabled channels are used
	Samples [SedisNumChannels][]int32
}

func (f *SedisFrame) LayerType() gopacket.LayerType {
	return SedisLayerType
}

func (f *SedisFrame) sampleBytes(width int) int {
	if f.SampleBytes != 0 {
		return int(f.SampleBytes)
	}
	n := 0
	for c := 0; c < SedisNumChannels; c++ {
		if f.ChannelMap&(1<<uint(c)) != 0 {
			n += width
		}
	}
	return n
}

// SerializeTo appends the header and the interleaved samples
func (f *SedisFrame) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	width := 3
	if f.ConfigWord&ConfigWideSamples != 0 {
		width = 4
	}
	sampleBytes := f.sampleBytes(width)

	h, err := b.AppendBytes(SedisHeaderLength)
	if err != nil {
		return err
	}
	for i := range h {
		h[i] = 0
	}
	copy(h[:SedisMarkerLength], SedisMarker)
	h[offHeaderSize] = SedisHeaderLength
	h[offConfigWord] = f.ConfigWord
	h[offChannelMap] = f.ChannelMap
	binary.LittleEndian.PutUint16(h[offBlockSamples:], f.BlockSamples)
	h[offSampleBytes] = uint8(sampleBytes)
	EncodeCalendar(h[offSampleTime:offSampleTime+8], f.SampleTime)
	binary.LittleEndian.PutUint16(h[offBattery:], f.Battery)
	binary.LittleEndian.PutUint16(h[offTemperature:], f.Temperature)
	h[offRevision] = f.Revision
	binary.LittleEndian.PutUint16(h[offBoard:], f.Board)
	h[offSV] = f.SV
	binary.LittleEndian.PutUint32(h[offDrift:], uint32(f.Drift))
	EncodeCalendar(h[offSedisTime:offSedisTime+8], f.SampleTime)
	h[offCompassFlag] = f.CompassFlag
	copy(h[offPosition:offPosition+positionLength], f.Position)

	body, err := b.AppendBytes(int(f.BlockSamples) * sampleBytes)
	if err != nil {
		return err
	}
	for i := range body {
		body[i] = 0
	}
	for s := 0; s < int(f.BlockSamples); s++ {
		offset := s * sampleBytes
		for c := 0; c < SedisNumChannels; c++ {
			if f.ChannelMap&(1<<uint(c)) == 0 {
				continue
			}
			var v int32
			if s < len(f.Samples[c]) {
				v = f.Samples[c][s]
			}
			PutSample(body[offset:offset+width], v)
			offset += width
		}
	}
	return nil
}

// Bytes serializes the frame into a new slice
func (f *SedisFrame) Bytes() ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sample decodes one channel sample of len(b) bytes (3 or 4).
// Three byte samples are stored most significant byte first and are sign
// extended from bit 23. Four byte samples are little endian int32.
func Sample(b []byte) int32 {
	if len(b) == 3 {
		v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		return int32(v<<8) >> 8
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// PutSample is the inverse of Sample, 3 byte values are truncated to 24 bits
func PutSample(b []byte, v int32) {
	if len(b) == 3 {
		b[0] = uint8(v >> 16)
		b[1] = uint8(v >> 8)
		b[2] = uint8(v)
		return
	}
	binary.LittleEndian.PutUint32(b, uint32(v))
}
