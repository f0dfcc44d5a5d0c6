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

package config

import (
	"fmt"

	"jinr.ru/greenlab/go-sedis/pkg/layers"
	"jinr.ru/greenlab/go-sedis/pkg/mseed"
)

func checkLength(field, value string, lo, hi int) error {
	if len(value) < lo || len(value) > hi {
		return ErrInvalidConfig{Field: field, Reason: fmt.Sprintf("%q must be %d to %d characters", value, lo, hi)}
	}
	return nil
}

// Validate checks the values the pipeline and the device depend on
func (c *Config) Validate() error {
	if c.Station == nil || c.Output == nil || c.Serial == nil || c.Api == nil {
		return ErrInvalidConfig{Field: "config", Reason: "station, output, serial and api sections are required"}
	}

	if err := checkLength("station.network", c.Station.Network, 1, 2); err != nil {
		return err
	}
	if err := checkLength("station.station", c.Station.Station, 1, 5); err != nil {
		return err
	}
	if err := checkLength("station.location", c.Station.Location, 0, 2); err != nil {
		return err
	}
	if len(c.Station.Channels) != 0 {
		if len(c.Station.Channels) != layers.SedisNumChannels {
			return ErrInvalidConfig{
				Field:  "station.channels",
				Reason: fmt.Sprintf("must name exactly %d channels, got %d", layers.SedisNumChannels, len(c.Station.Channels)),
			}
		}
		for i, name := range c.Station.Channels {
			if err := checkLength(fmt.Sprintf("station.channels[%d]", i), name, 1, 3); err != nil {
				return err
			}
		}
	}

	if c.Output.Base == "" {
		return ErrInvalidConfig{Field: "output.base", Reason: "must not be empty"}
	}
	switch c.Output.Mode {
	case OutputModeSingle, OutputModeMulti:
	default:
		return ErrInvalidConfig{Field: "output.mode", Reason: fmt.Sprintf("%q must be %s or %s", c.Output.Mode, OutputModeSingle, OutputModeMulti)}
	}
	if _, err := mseed.NewPacker(c.Output.RecordLength, mseed.EncodingInt32); err != nil {
		return ErrInvalidConfig{Field: "output.recordLength", Reason: err.Error()}
	}
	if _, err := mseed.ParseEncoding(c.Output.Encoding); err != nil {
		return ErrInvalidConfig{Field: "output.encoding", Reason: err.Error()}
	}

	for i, si := range c.SamplingIntervals {
		if si.RateKey&^layers.RateKeyMask != 0 {
			return ErrInvalidConfig{
				Field:  fmt.Sprintf("samplingIntervals[%d].rateKey", i),
				Reason: fmt.Sprintf("0x%02x has bits outside of mask 0x%02x", si.RateKey, layers.RateKeyMask),
			}
		}
		if si.IntervalMs <= 0 {
			return ErrInvalidConfig{Field: fmt.Sprintf("samplingIntervals[%d].intervalMs", i), Reason: "must be positive"}
		}
	}

	switch c.Serial.Parity {
	case "N", "E", "O":
	default:
		return ErrInvalidConfig{Field: "serial.parity", Reason: fmt.Sprintf("%q must be N, E or O", c.Serial.Parity)}
	}
	if c.Api.Port <= 0 || c.Api.Port > 65535 {
		return ErrInvalidConfig{Field: "api.port", Reason: fmt.Sprintf("%d out of range", c.Api.Port)}
	}
	if c.RunIntervalMs <= 0 {
		return ErrInvalidConfig{Field: "runIntervalMs", Reason: "must be positive"}
	}
	return nil
}
