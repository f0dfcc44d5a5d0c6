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
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

type StationConfig struct {
	Network  string `json:"network"`
	Station  string `json:"station"`
	Location string `json:"location"`
	// Channels are the names of channels 1..6, DefaultChannelNames when empty
	Channels []string `json:"channels,omitempty"`
}

type OutputConfig struct {
	Dir  string `json:"dir"`
	Base string `json:"base"`
	Ext  string `json:"ext,omitempty"`
	// Mode is single (one file appended for the whole run) or multi (one file per frame)
	Mode         string `json:"mode"`
	RecordLength int    `json:"recordLength"`
	Encoding     string `json:"encoding"`
}

type SerialConfig struct {
	Port          string `json:"port"`
	BaudRate      int    `json:"baudRate"`
	DataBits      int    `json:"dataBits"`
	StopBits      int    `json:"stopBits"`
	Parity        string `json:"parity"`
	ReadTimeoutMs int    `json:"readTimeoutMs"`
}

type ApiConfig struct {
	Address   string `json:"address"`
	Port      int    `json:"port"`
	Advertise bool   `json:"advertise,omitempty"`
}

// SamplingInterval maps the rate bits of the header config word
// (width, low power, low rate) to the time between samples
type SamplingInterval struct {
	RateKey    uint8   `json:"rateKey"`
	IntervalMs float64 `json:"intervalMs"`
}

type SamplingIntervals []SamplingInterval

// Lookup returns the sampling interval in milliseconds for the rate key
func (s SamplingIntervals) Lookup(key uint8) (float64, bool) {
	for _, si := range s {
		if si.RateKey == key {
			return si.IntervalMs, true
		}
	}
	return 0, false
}

type Config struct {
	Station           *StationConfig    `json:"station"`
	Output            *OutputConfig     `json:"output"`
	Serial            *SerialConfig     `json:"serial"`
	Api               *ApiConfig        `json:"api"`
	SamplingIntervals SamplingIntervals `json:"samplingIntervals"`
	RunIntervalMs     int               `json:"runIntervalMs"`
	LogLevel          string            `json:"logLevel,omitempty"`
	StatePath         string            `json:"statePath,omitempty"`
	filepath          string
}

func (c *Config) Filepath() string {
	return c.filepath
}

func (c *Config) SetFilepath(path string) {
	c.filepath = path
}

// ApiURL is the base URL clients use to reach the control API
func (c *Config) ApiURL() string {
	return fmt.Sprintf("http://%s:%d", c.Api.Address, c.Api.Port)
}

// ChannelNames returns a copy of the configured channel table or the default one
func (c *Config) ChannelNames() []string {
	if c.Station == nil || len(c.Station.Channels) == 0 {
		return DefaultChannelNames()
	}
	return append([]string(nil), c.Station.Channels...)
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(c.filepath), 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file over the current values. A missing file is not an error.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// LoadFile returns the default config overlaid with the file at path and
// validated. An empty path means the default location.
func LoadFile(path string) (*Config, error) {
	c := NewDefaultConfig()
	if path != "" {
		c.SetFilepath(path)
	}
	if err := c.Load(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

type flagGetter interface {
	GetString(name string) (string, error)
}

// LoadFromFlags loads the file named by the config flag of a command
func LoadFromFlags(flags flagGetter) (*Config, error) {
	path, _ := flags.GetString(ConfigOptionName)
	return LoadFile(path)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, StateFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		Station: &StationConfig{
			Network:  DefaultNetwork,
			Station:  DefaultStation,
			Location: DefaultLocation,
		},
		Output: &OutputConfig{
			Dir:          ".",
			Base:         DefaultOutputBase,
			Ext:          DefaultOutputExt,
			Mode:         OutputModeSingle,
			RecordLength: DefaultRecordLength,
			Encoding:     DefaultEncoding,
		},
		Serial: &SerialConfig{
			Port:          DefaultSerialPort,
			BaudRate:      DefaultBaudRate,
			DataBits:      DefaultDataBits,
			StopBits:      DefaultStopBits,
			Parity:        DefaultParity,
			ReadTimeoutMs: DefaultReadTimeoutMs,
		},
		Api: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		SamplingIntervals: SamplingIntervals{},
		RunIntervalMs:     DefaultRunIntervalMs,
		LogLevel:          DefaultLogLevel,
		StatePath:         DefaultStatePath(),
		filepath:          DefaultConfigPath(),
	}
}
