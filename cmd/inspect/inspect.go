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

package inspect

import (
	"os"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-sedis/pkg/command"
)

const (
	VerboseOptionName = "verbose"
)

func NewCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "inspect <file.mseed>",
		Short: "Print the records of a miniSEED file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return command.Inspect(f, cmd.OutOrStdout(), verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, VerboseOptionName, "v", false, "Print decoded samples")

	return cmd
}
