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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-sedis/cmd/completion"
	"jinr.ru/greenlab/go-sedis/cmd/config"
	"jinr.ru/greenlab/go-sedis/cmd/control"
	"jinr.ru/greenlab/go-sedis/cmd/convert"
	"jinr.ru/greenlab/go-sedis/cmd/discover"
	"jinr.ru/greenlab/go-sedis/cmd/inspect"
	"jinr.ru/greenlab/go-sedis/cmd/serve"
	"jinr.ru/greenlab/go-sedis/cmd/simulate"
	pkgconfig "jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel, configPath string
	cmd := &cobra.Command{
		Use:          "go-sedis",
		Short:        "Tool to record SEDIS seismic data loggers to miniSEED",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := pkgconfig.DefaultLogLevel
			if cfg, err := pkgconfig.LoadFile(configPath); err == nil && cfg.LogLevel != "" {
				level = cfg.LogLevel
			}
			if logLevel != "" {
				level = logLevel
			}
			log.Init(cmd.ErrOrStderr(), level)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand())
	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(control.NewCommand())
	cmd.AddCommand(convert.NewCommand())
	cmd.AddCommand(inspect.NewCommand())
	cmd.AddCommand(simulate.NewCommand())
	cmd.AddCommand(discover.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&configPath, pkgconfig.ConfigOptionName, "",
		fmt.Sprintf("Config file. Default: %s", pkgconfig.DefaultConfigPath()))
	return cmd
}
