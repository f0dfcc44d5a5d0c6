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

package simulate

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-sedis/pkg/command"
	"jinr.ru/greenlab/go-sedis/pkg/layers"
)

const (
	OutOptionName      = "out"
	FramesOptionName   = "frames"
	SamplesOptionName  = "samples"
	ChannelsOptionName = "channels"
	WideOptionName     = "wide"
	GarbageOptionName  = "garbage"
	IntervalOptionName = "interval-ms"
)

func NewCommand() *cobra.Command {
	var out string
	var wide bool
	opts := command.DefaultSimulateOptions()
	channels := uint(opts.ChannelMap)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write a synthetic logger stream, e.g. as input for convert",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ChannelMap = uint8(channels)
			if wide {
				opts.ConfigWord |= layers.ConfigWideSamples
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return command.Simulate(w, opts)
		},
	}
	cmd.Flags().StringVarP(&out, OutOptionName, "o", "", "Output file. Default: stdout")
	cmd.Flags().IntVar(&opts.Frames, FramesOptionName, opts.Frames, "Number of frames")
	cmd.Flags().IntVar(&opts.BlockSamples, SamplesOptionName, opts.BlockSamples, "Samples per channel in a frame")
	cmd.Flags().UintVar(&channels, ChannelsOptionName, channels, "Channel bit map, bit 0 is channel 1")
	cmd.Flags().BoolVar(&wide, WideOptionName, false, "Four byte samples")
	cmd.Flags().IntVar(&opts.Garbage, GarbageOptionName, 0, "Bytes of garbage before every frame")
	cmd.Flags().Float64Var(&opts.IntervalMs, IntervalOptionName, opts.IntervalMs, "Time between samples")

	return cmd
}
