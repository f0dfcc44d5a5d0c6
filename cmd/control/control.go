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

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-sedis/pkg/command"
	"jinr.ru/greenlab/go-sedis/pkg/config"
)

const (
	URLOptionName = "url"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Send commands to a running server",
	}
	cmd.PersistentFlags().String(URLOptionName, "", "Server URL. Default: the API address from the config")
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewStopCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewUpdateCommand())
	cmd.AddCommand(NewRunsCommand())
	cmd.AddCommand(NewTimeCommand())
	cmd.AddCommand(NewRangeCommand())
	cmd.AddCommand(NewStandByCommand())
	cmd.AddCommand(NewResetCommand())
	return cmd
}

func newApiClient(cmd *cobra.Command) (*command.ApiClient, error) {
	if url, _ := cmd.Flags().GetString(URLOptionName); url != "" {
		return command.NewApiClientWithURL(url), nil
	}
	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return command.NewApiClient(cfg), nil
}

// printQueued wraps a client call that queues a command
func printQueued(f func(c *command.ApiClient) (string, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := newApiClient(cmd)
		if err != nil {
			return err
		}
		queued, err := f(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued: %s\n", queued)
		return nil
	}
}

func printYAML(cmd *cobra.Command, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
