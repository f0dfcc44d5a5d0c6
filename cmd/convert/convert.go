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

package convert

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-sedis/pkg/command"
	"jinr.ru/greenlab/go-sedis/pkg/config"
)

const (
	OutDirOptionName   = "out-dir"
	ModeOptionName     = "mode"
	EncodingOptionName = "encoding"
)

func NewCommand() *cobra.Command {
	var outDir, mode, encoding string
	cmd := &cobra.Command{
		Use:   "convert <capture>",
		Short: "Convert a raw capture of the logger stream to miniSEED",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Output.Dir = outDir
			}
			if mode != "" {
				cfg.Output.Mode = mode
			}
			if encoding != "" {
				cfg.Output.Encoding = encoding
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			stats, err := command.ConvertFile(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "frames: %d skipped: %d discarded bytes: %d last output: %s\n",
				stats.Frames, stats.Skipped, stats.Discarded, stats.Output)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, OutDirOptionName, "", "Directory for miniSEED files")
	cmd.Flags().StringVar(&mode, ModeOptionName, "", fmt.Sprintf("Output mode: %s or %s", config.OutputModeSingle, config.OutputModeMulti))
	cmd.Flags().StringVar(&encoding, EncodingOptionName, "", "Record encoding: int32 or steim1")

	return cmd
}
