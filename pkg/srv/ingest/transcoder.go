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

package ingest

import (
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-sedis/pkg/layers"
	"jinr.ru/greenlab/go-sedis/pkg/log"
	"jinr.ru/greenlab/go-sedis/pkg/mseed"
)

// Encoder turns one channel trace into archival records written to w
type Encoder interface {
	Pack(w io.Writer, trace *mseed.Trace) (records int, err error)
}

// IntervalLookup maps the header rate key to milliseconds between samples
type IntervalLookup interface {
	Lookup(key uint8) (float64, bool)
}

type TranscoderOptions struct {
	Network  string
	Station  string
	Location string
	// Channels names channels 1..6, see config.Config.ChannelNames
	Channels  []string
	Intervals IntervalLookup
	Encoder   Encoder
	Output    *Rotator
	Sink      log.Sink
}

// Transcoder demultiplexes frames into channel traces and hands them to the encoder
type Transcoder struct {
	network   string
	station   string
	location  string
	channels  []string
	intervals IntervalLookup
	encoder   Encoder
	output    *Rotator
	sink      log.Sink
}

func NewTranscoder(opts TranscoderOptions) (*Transcoder, error) {
	if len(opts.Channels) != layers.SedisNumChannels {
		return nil, ErrChannelTable{Entries: len(opts.Channels)}
	}
	if opts.Encoder == nil || opts.Output == nil || opts.Intervals == nil {
		return nil, fmt.Errorf("Transcoder needs an encoder, an output and a sampling interval lookup")
	}
	sink := opts.Sink
	if sink == nil {
		sink = log.Discard
	}
	return &Transcoder{
		network:   opts.Network,
		station:   opts.Station,
		location:  opts.Location,
		channels:  append([]string(nil), opts.Channels...),
		intervals: opts.Intervals,
		encoder:   opts.Encoder,
		output:    opts.Output,
		sink:      sink,
	}, nil
}

// Output gives access to the rotation policy, reset together with the assembler
func (t *Transcoder) Output() *Rotator {
	return t.output
}

func (t *Transcoder) Close() error {
	return t.output.Close()
}

// ChannelData is the decoded samples of one channel of a frame
type ChannelData struct {
	Channel int
	Samples []int32
}

// FrameData is everything the encoder needs from one frame
type FrameData struct {
	Start      time.Time
	SampleRate float64
	Channels   []ChannelData
}

// Decode validates the header of a complete frame and demultiplexes its body.
// It returns layers.ErrMalformedFrame or layers.ErrInvalidHeaderField for
// frames that have to be skipped.
func (t *Transcoder) Decode(frame []byte) (*FrameData, error) {
	packet := gopacket.NewPacket(frame, layers.SedisLayerType, gopacket.DecodeOptions{NoCopy: true, Lazy: true})
	sedisLayer, ok := packet.Layer(layers.SedisLayerType).(*layers.SedisLayer)
	if !ok {
		if errLayer := packet.ErrorLayer(); errLayer != nil {
			return nil, errLayer.Error()
		}
		return nil, layers.ErrMalformedFrame{Declared: layers.SedisHeaderLength, Actual: len(frame)}
	}
	header := sedisLayer.Header

	blockSamples := header.BlockSamples()
	if blockSamples == 0 {
		return nil, layers.ErrInvalidHeaderField{Field: "BlockSamples", What: "zero samples per block"}
	}
	enabled := header.EnabledChannels()
	if len(enabled) == 0 {
		return nil, layers.ErrInvalidHeaderField{Field: "ChannelBitMap", What: "no channel enabled"}
	}
	width := header.SampleWidth()
	sampleBytes := header.SampleBytes()
	if sampleBytes < len(enabled)*width {
		return nil, layers.ErrInvalidHeaderField{
			Field: "SampleBytes",
			What:  fmt.Sprintf("%d bytes per slot can not hold %d channels of %d bytes", sampleBytes, len(enabled), width),
		}
	}
	start, err := header.SampleTime()
	if err != nil {
		return nil, err
	}
	intervalMs, ok := t.intervals.Lookup(header.RateKey())
	if !ok {
		return nil, layers.ErrInvalidHeaderField{
			Field: "ConfigWord",
			What:  fmt.Sprintf("no sampling interval configured for rate key 0x%02x", header.RateKey()),
		}
	}

	body := sedisLayer.Body()
	data := &FrameData{
		Start:      start,
		SampleRate: 1000 / intervalMs,
		Channels:   make([]ChannelData, 0, len(enabled)),
	}
	// offset of the channel inside a sample slot
	channelOffset := 0
	for _, c := range enabled {
		samples := make([]int32, blockSamples)
		for s := range samples {
			offset := s*sampleBytes + channelOffset
			samples[s] = layers.Sample(body[offset : offset+width])
		}
		data.Channels = append(data.Channels, ChannelData{Channel: c, Samples: samples})
		channelOffset += width
	}
	return data, nil
}

// Transcode decodes a frame and writes every enabled channel to the
// output file of the frame. Skipped frames do not advance the rotation.
func (t *Transcoder) Transcode(frame []byte) error {
	data, err := t.Decode(frame)
	if err != nil {
		return err
	}

	w, err := t.output.Open()
	if err != nil {
		return err
	}
	out := &trackingWriter{w: w}
	for _, ch := range data.Channels {
		trace := &mseed.Trace{
			Network:    t.network,
			Station:    t.station,
			Location:   t.location,
			Channel:    t.channels[ch.Channel-1],
			Start:      data.Start,
			SampleRate: data.SampleRate,
			Samples:    ch.Samples,
		}
		records, err := t.encoder.Pack(out, trace)
		if err != nil {
			t.output.Finish()
			if out.err != nil {
				return ErrFileSystem{Op: "write", Path: t.output.Path(), Err: out.err}
			}
			return ErrEncoder{Channel: trace.Channel, Err: err}
		}
		t.sink.Emit(fmt.Sprintf("%s.%s.%s.%s: packed %d samples into %d records",
			trace.Network, trace.Station, trace.Location, trace.Channel, len(trace.Samples), records))
	}
	return t.output.Finish()
}

// trackingWriter remembers the first write error so it can be told apart
// from encoder errors
type trackingWriter struct {
	w   io.Writer
	err error
}

func (tw *trackingWriter) Write(p []byte) (int, error) {
	n, err := tw.w.Write(p)
	if err != nil && tw.err == nil {
		tw.err = err
	}
	return n, err
}
