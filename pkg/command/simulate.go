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

package command

import (
	"io"
	"math"
	"time"

	"jinr.ru/greenlab/go-sedis/pkg/layers"
	"jinr.ru/greenlab/go-sedis/pkg/log"
)

// SimulateOptions describe a synthetic logger stream
type SimulateOptions struct {
	Frames       int
	BlockSamples int
	ChannelMap   uint8
	ConfigWord   uint8
	IntervalMs   float64
	Start        time.Time
	// Garbage bytes are written before every frame
	Garbage   int
	Amplitude float64
}

func DefaultSimulateOptions() SimulateOptions {
	return SimulateOptions{
		Frames:       10,
		BlockSamples: 100,
		ChannelMap:   0b111111,
		IntervalMs:   10,
		Start:        time.Now().UTC().Truncate(time.Second),
		Amplitude:    100000,
	}
}

// Simulate writes frames with a sine per channel, each channel has its own period
func Simulate(w io.Writer, opts SimulateOptions) error {
	garbage := make([]byte, opts.Garbage)
	for i := range garbage {
		garbage[i] = byte(0x55 + i%3)
	}
	step := time.Duration(opts.IntervalMs * float64(time.Millisecond))

	n := 0
	for i := 0; i < opts.Frames; i++ {
		f := &layers.SedisFrame{
			ConfigWord:   opts.ConfigWord,
			ChannelMap:   opts.ChannelMap,
			BlockSamples: uint16(opts.BlockSamples),
			SampleTime:   opts.Start.Add(time.Duration(n) * step),
			Revision:     7,
			CompassFlag:  layers.CompassInvalid,
		}
		for c := 0; c < layers.SedisNumChannels; c++ {
			period := float64(20 * (c + 1))
			samples := make([]int32, opts.BlockSamples)
			for s := range samples {
				samples[s] = int32(opts.Amplitude * math.Sin(2*math.Pi*float64(n+s)/period))
			}
			f.Samples[c] = samples
		}
		data, err := f.Bytes()
		if err != nil {
			return err
		}
		if _, err := w.Write(garbage); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		n += opts.BlockSamples
	}
	log.Info("Simulated %d frames of %d samples", opts.Frames, opts.BlockSamples)
	return nil
}
