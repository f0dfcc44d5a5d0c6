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

package serve

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-sedis/pkg/command"
	"jinr.ru/greenlab/go-sedis/pkg/config"
)

const (
	SerialPortOptionName = "serial-port"
	BaudRateOptionName   = "baud-rate"
	AddressOptionName    = "address"
	PortOptionName       = "port"
	AdvertiseOptionName  = "advertise"
	OutDirOptionName     = "out-dir"
	ModeOptionName       = "mode"
)

func NewCommand() *cobra.Command {
	var serialPort, address, outDir, mode string
	var baudRate, port int
	var advertise bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the logger and the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if serialPort != "" {
				cfg.Serial.Port = serialPort
			}
			if baudRate != 0 {
				cfg.Serial.BaudRate = baudRate
			}
			if address != "" {
				cfg.Api.Address = address
			}
			if port != 0 {
				cfg.Api.Port = port
			}
			if advertise {
				cfg.Api.Advertise = true
			}
			if outDir != "" {
				cfg.Output.Dir = outDir
			}
			if mode != "" {
				cfg.Output.Mode = mode
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return command.StartControlServer(cfg)
		},
	}
	cmd.Flags().StringVar(&serialPort, SerialPortOptionName, "", fmt.Sprintf("Serial port of the logger. E.g. %s", config.DefaultSerialPort))
	cmd.Flags().IntVar(&baudRate, BaudRateOptionName, 0, fmt.Sprintf("Baud rate. E.g. %d", config.DefaultBaudRate))
	cmd.Flags().StringVar(&address, AddressOptionName, "", fmt.Sprintf("API address to bind. E.g. %s", config.DefaultApiAddress))
	cmd.Flags().IntVar(&port, PortOptionName, 0, fmt.Sprintf("API port to bind. E.g. %d", config.DefaultApiPort))
	cmd.Flags().BoolVar(&advertise, AdvertiseOptionName, false, fmt.Sprintf("Advertise the API over mDNS as %s", config.MDNSServiceName))
	cmd.Flags().StringVar(&outDir, OutDirOptionName, "", "Directory for miniSEED files")
	cmd.Flags().StringVar(&mode, ModeOptionName, "", fmt.Sprintf("Output mode: %s or %s", config.OutputModeSingle, config.OutputModeMulti))

	return cmd
}
