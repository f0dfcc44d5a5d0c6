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

package discover

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/discover"
)

const (
	TimeoutOptionName = "timeout"
)

func NewCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: fmt.Sprintf("List servers advertised as %s", config.MDNSServiceName),
		RunE: func(cmd *cobra.Command, args []string) error {
			instances, err := discover.Browse(timeout)
			if err != nil {
				return err
			}
			if len(instances) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No servers found")
			}
			for _, instance := range instances {
				fmt.Fprint(cmd.OutOrStdout(), instance.String())
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, TimeoutOptionName, 2*time.Second, "How long to wait for answers")

	return cmd
}
