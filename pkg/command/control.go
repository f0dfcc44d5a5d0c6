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

package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/device/sedis"
	"jinr.ru/greenlab/go-sedis/pkg/srv/control"
)

// StartControlServer opens the logger and serves until interrupted
func StartControlServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device, err := sedis.Open(cfg.Serial)
	if err != nil {
		return err
	}

	s, err := control.NewControlServer(ctx, cfg, device)
	if err != nil {
		device.Close()
		return err
	}
	return s.Run()
}
