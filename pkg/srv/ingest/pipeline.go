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
	"errors"
	"fmt"
	"sync"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/layers"
	"jinr.ru/greenlab/go-sedis/pkg/log"
	"jinr.ru/greenlab/go-sedis/pkg/mseed"
)

type Stats struct {
	Frames    uint64 `json:"frames"`
	Skipped   uint64 `json:"skipped"`
	Discarded uint64 `json:"discardedBytes"`
	Buffered  int    `json:"bufferedBytes"`
	Output    string `json:"output,omitempty"`
}

// Pipeline feeds raw bytes through the assembler into the transcoder.
// One mutex guards both, so bytes may be written from the reading
// goroutine while another one resets the pipeline.
type Pipeline struct {
	mu         sync.Mutex
	assembler  *Assembler
	transcoder *Transcoder
	sink       log.Sink
	skipped    uint64
}

func NewPipeline(assembler *Assembler, transcoder *Transcoder, sink log.Sink) *Pipeline {
	if sink == nil {
		sink = log.Discard
	}
	assembler.OnReset(transcoder.Output().Reset)
	return &Pipeline{
		assembler:  assembler,
		transcoder: transcoder,
		sink:       sink,
	}
}

// NewPipelineFromConfig builds the miniSEED packer, the rotation policy and
// both stages from the configuration
func NewPipelineFromConfig(cfg *config.Config, sink log.Sink) (*Pipeline, error) {
	encoding, err := mseed.ParseEncoding(cfg.Output.Encoding)
	if err != nil {
		return nil, err
	}
	packer, err := mseed.NewPacker(cfg.Output.RecordLength, encoding)
	if err != nil {
		return nil, err
	}
	mode, err := ParseRotationMode(cfg.Output.Mode)
	if err != nil {
		return nil, err
	}
	transcoder, err := NewTranscoder(TranscoderOptions{
		Network:   cfg.Station.Network,
		Station:   cfg.Station.Station,
		Location:  cfg.Station.Location,
		Channels:  cfg.ChannelNames(),
		Intervals: cfg.SamplingIntervals,
		Encoder:   packer,
		Output:    NewRotator(cfg.Output.Dir, cfg.Output.Base, cfg.Output.Ext, mode),
		Sink:      sink,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Writing %s records of %d bytes to %s/%s (%s mode)",
		encoding, cfg.Output.RecordLength, cfg.Output.Dir, cfg.Output.Base, mode)
	return NewPipeline(NewAssembler(sink), transcoder, sink), nil
}

// Write implements io.Writer. Only encoder and file system errors are
// returned, framing problems and bad frames end up in the sink.
func (p *Pipeline) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assembler.Feed(b, p.transcode)
}

func (p *Pipeline) transcode(frame []byte) error {
	err := p.transcoder.Transcode(frame)
	var malformed layers.ErrMalformedFrame
	var invalid layers.ErrInvalidHeaderField
	switch {
	case err == nil:
		return nil
	case errors.As(err, &malformed), errors.As(err, &invalid):
		p.skipped++
		p.sink.Emit(fmt.Sprintf("skipping frame: %s", err))
		return nil
	default:
		return err
	}
}

// Reset drops partially received data and restarts output numbering
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assembler.Reset()
	log.Info("Pipeline reset")
}

func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Frames:    p.assembler.Frames() - p.skipped,
		Skipped:   p.skipped,
		Discarded: p.assembler.Discarded(),
		Buffered:  p.assembler.Buffered(),
		Output:    p.transcoder.Output().Path(),
	}
}

// Close closes the output file
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transcoder.Close()
}
