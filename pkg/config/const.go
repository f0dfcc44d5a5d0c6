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

const (
	ConfigDir  = ".go-sedis"
	ConfigFile = "config"
	StateFile  = "state.db"

	// ConfigOptionName is the CLI flag that points to the config file
	ConfigOptionName = "config"

	DefaultLogLevel = "info"

	DefaultNetwork  = "XX"
	DefaultStation  = "SEDIS"
	DefaultLocation = "00"

	DefaultOutputBase   = "sedis"
	DefaultOutputExt    = "mseed"
	DefaultRecordLength = 512
	DefaultEncoding     = "steim1"

	OutputModeSingle = "single"
	OutputModeMulti  = "multi"

	DefaultSerialPort     = "/dev/ttyUSB0"
	DefaultBaudRate       = 115200
	DefaultDataBits       = 8
	DefaultStopBits       = 1
	DefaultParity         = "N"
	DefaultReadTimeoutMs  = 200
	DefaultRunIntervalMs  = 1000
	DefaultReadBufferSize = 4096

	DefaultApiAddress = "127.0.0.1"
	DefaultApiPort    = 8000
	MDNSServiceName   = "_sedis._tcp"
)

// DefaultChannelNames returns a fresh copy of the channel name table used
// when none is configured
func DefaultChannelNames() []string {
	return []string{"BHZ", "BHE", "BHS", "BHN", "BHW", "BLZ"}
}
