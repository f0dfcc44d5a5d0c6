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
	"context"
	"errors"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	deviceifc "jinr.ru/greenlab/go-sedis/pkg/device/ifc"
	"jinr.ru/greenlab/go-sedis/pkg/discover"
	"jinr.ru/greenlab/go-sedis/pkg/log"
	"jinr.ru/greenlab/go-sedis/pkg/srv/control/ifc"
	"jinr.ru/greenlab/go-sedis/pkg/srv/ingest"
)

// ControlServer runs the logger runner together with the control API and,
// when enabled, the mDNS advertisement
type ControlServer struct {
	context.Context
	*config.Config
	device   deviceifc.Device
	pipeline *ingest.Pipeline
	state    *State
	hub      *Hub
	runner   *Runner
	api      ifc.ApiServer
}

func NewControlServer(ctx context.Context, cfg *config.Config, device deviceifc.Device) (*ControlServer, error) {
	log.Debug("Initializing control server: state: %s", cfg.StatePath)

	hub := NewHub()
	sink := log.Tee(log.LogSink, hub)
	pipeline, err := ingest.NewPipelineFromConfig(cfg, sink)
	if err != nil {
		return nil, err
	}

	state, err := NewState(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	runner := NewRunner(RunnerOptions{
		Device:   device,
		Pipeline: pipeline,
		State:    state,
		Sink:     sink,
	})

	api, err := NewApiServer(cfg, runner, hub)
	if err != nil {
		state.Close()
		return nil, err
	}

	return &ControlServer{
		Context:  ctx,
		Config:   cfg,
		device:   device,
		pipeline: pipeline,
		state:    state,
		hub:      hub,
		runner:   runner,
		api:      api,
	}, nil
}

func (s *ControlServer) Runner() *Runner {
	return s.runner
}

// Run blocks until the context is done or one of the parts fails
func (s *ControlServer) Run() error {
	var advertiser *discover.Server
	if s.Api.Advertise {
		var err error
		if advertiser, err = discover.NewServer(s.Config); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(s.Context)
	defer cancel()

	defer s.state.Close()
	defer s.device.Close()

	errChan := make(chan error, 3)
	runnerDone := make(chan struct{})

	go func() {
		defer close(runnerDone)
		errChan <- s.runner.Run(ctx)
	}()

	go func() {
		errChan <- s.api.Run(ctx)
	}()

	if advertiser != nil {
		go func() {
			errChan <- advertiser.Run(ctx)
		}()
	}

	var err error
	select {
	case <-s.Context.Done():
		err = s.Context.Err()
	case err = <-errChan:
		log.Error("Control server part failed: %s", err)
	}
	cancel()
	// the runner takes the logger out of auto mode before returning
	<-runnerDone
	if closeErr := s.pipeline.Close(); closeErr != nil {
		log.Error("Error while closing output: %s", closeErr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
