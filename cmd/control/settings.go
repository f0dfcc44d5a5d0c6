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
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-sedis/pkg/command"
)

func NewTimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "time [RFC3339 time]",
		Short: "Set the logger clock, to the server time when no time is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var t time.Time
			if len(args) == 1 {
				var err error
				if t, err = time.Parse(time.RFC3339, args[0]); err != nil {
					return err
				}
			}
			return printQueued(func(c *command.ApiClient) (string, error) {
				return c.SetTime(t)
			})(cmd, args)
		},
	}
}

func NewRangeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "range <center>",
		Short: "Center the input range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			center, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			return printQueued(func(c *command.ApiClient) (string, error) {
				return c.SetRange(center)
			})(cmd, args)
		},
	}
}

func NewStandByCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "standby <on|off>",
		Short:     "Switch stand by mode",
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			standBy := args[0] == "on"
			return printQueued(func(c *command.ApiClient) (string, error) {
				return c.SetStandBy(standBy)
			})(cmd, args)
		},
	}
}

func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop partially received data and restart file numbering",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newApiClient(cmd)
			if err != nil {
				return err
			}
			if err := c.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reset done")
			return nil
		},
	}
}
