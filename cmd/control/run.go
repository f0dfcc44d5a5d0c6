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

package control

import (
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-sedis/pkg/command"
)

const (
	IntervalOptionName = "interval-ms"
)

func NewRunCommand() *cobra.Command {
	var interval int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start auto mode",
		RunE: printQueued(func(c *command.ApiClient) (string, error) {
			return c.Run(interval)
		}),
	}
	cmd.Flags().IntVar(&interval, IntervalOptionName, 0, "Time between data blocks. Default: the server config")
	return cmd
}

func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop auto mode",
		RunE: printQueued(func(c *command.ApiClient) (string, error) {
			return c.Stop()
		}),
	}
}
