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

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the runner status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newApiClient(cmd)
			if err != nil {
				return err
			}
			status, err := c.Status()
			if err != nil {
				return err
			}
			return printYAML(cmd, status)
		},
	}
}

func NewUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Query the logger for enq, about, range and time",
		RunE: printQueued(func(c *command.ApiClient) (string, error) {
			return c.UpdateStatus()
		}),
	}
}

func NewRunsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "Print the run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newApiClient(cmd)
			if err != nil {
				return err
			}
			runs, err := c.Runs()
			if err != nil {
				return err
			}
			return printYAML(cmd, runs)
		},
	}
}
