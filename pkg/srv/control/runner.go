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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/device"
	deviceifc "jinr.ru/greenlab/go-sedis/pkg/device/ifc"
	"jinr.ru/greenlab/go-sedis/pkg/log"
	"jinr.ru/greenlab/go-sedis/pkg/srv/control/ifc"
)

const (
	CommandQueueSize = 16
	DefaultIdle      = 100 * time.Millisecond
)

type RunnerOptions struct {
	Device   deviceifc.Device
	Pipeline ifc.Pipeline
	// State is optional, without it nothing is persisted
	State *State
	Sink  log.Sink
	// Idle is how long the loop waits for a command when not running
	Idle           time.Duration
	ReadBufferSize int
}

// Runner owns the logger. It reads stream data while auto mode is on and
// executes queued commands between reads.
type Runner struct {
	device   deviceifc.Device
	pipeline ifc.Pipeline
	state    *State
	sink     log.Sink
	commands chan Command
	idle     time.Duration
	readBuf  []byte

	mu     sync.Mutex
	status Status
	run    *Run
	// set once a run has been stopped, the next one starts after a gap
	stopped bool
}

func NewRunner(opts RunnerOptions) *Runner {
	if opts.Sink == nil {
		opts.Sink = log.Discard
	}
	if opts.Idle <= 0 {
		opts.Idle = DefaultIdle
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = config.DefaultReadBufferSize
	}
	return &Runner{
		device:   opts.Device,
		pipeline: opts.Pipeline,
		state:    opts.State,
		sink:     opts.Sink,
		commands: make(chan Command, CommandQueueSize),
		idle:     opts.Idle,
		readBuf:  make([]byte, opts.ReadBufferSize),
	}
}

// Submit queues a command without waiting for it to be executed
func (r *Runner) Submit(cmd Command) error {
	select {
	case r.commands <- cmd:
		log.Debug("Command queued: %s", cmd)
		return nil
	default:
		return ErrQueueFull{Command: cmd.String()}
	}
}

// Status returns a snapshot of the runner status
func (r *Runner) Status() Status {
	r.mu.Lock()
	status := r.status
	r.mu.Unlock()
	status.Ingest = r.pipeline.Stats()
	return status
}

func (r *Runner) Runs() ([]*Run, error) {
	if r.state == nil {
		return nil, nil
	}
	return r.state.Runs()
}

// Reset drops partially received stream data and restarts file numbering
func (r *Runner) Reset() {
	r.pipeline.Reset()
}

func (r *Runner) running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.Running
}

func (r *Runner) update(f func(s *Status)) {
	r.mu.Lock()
	f(&r.status)
	r.status.Updated = time.Now().UTC()
	r.mu.Unlock()
}

// Run is the command loop. It returns when the context is done, after
// the logger has been taken out of auto mode.
func (r *Runner) Run(ctx context.Context) error {
	r.restore()
	r.dispatch(UpdateStatusCommand{})

	for {
		select {
		case <-ctx.Done():
			if r.running() {
				r.dispatch(StopCommand{})
			}
			return ctx.Err()
		default:
		}

		if r.running() {
			r.readData()
		} else {
			select {
			case <-ctx.Done():
				continue
			case cmd := <-r.commands:
				r.dispatch(cmd)
			case <-time.After(r.idle):
			}
		}
		r.drain()
	}
}

func (r *Runner) drain() {
	for {
		select {
		case cmd := <-r.commands:
			r.dispatch(cmd)
		default:
			return
		}
	}
}

func (r *Runner) readData() {
	n, err := r.device.Read(r.readBuf)
	if err != nil {
		r.fail(fmt.Errorf("Error while reading from the logger: %w", err))
		return
	}
	if n == 0 {
		return
	}
	if _, err := r.pipeline.Write(r.readBuf[:n]); err != nil {
		r.fail(err)
	}
}

// fail stops the current run because of err
func (r *Runner) fail(err error) {
	log.Error("Run failed: %s", err)
	r.sink.Emit(fmt.Sprintf("run stopped: %s", err))
	if stopErr := r.stopRun(err); stopErr != nil {
		log.Error("Error while stopping the run: %s", stopErr)
	}
	r.persist()
}

func (r *Runner) dispatch(cmd Command) {
	log.Info("Executing command: %s", cmd)
	err := r.execute(cmd)
	r.update(func(s *Status) {
		if err != nil {
			s.LastError = fmt.Sprintf("%s: %s", cmd, err)
		}
	})
	if err != nil {
		log.Error("Command %s failed: %s", cmd, err)
		r.sink.Emit(fmt.Sprintf("command %s failed: %s", cmd, err))
	}
	r.persist()
}

func (r *Runner) execute(cmd Command) error {
	switch c := cmd.(type) {
	case RunCommand:
		return r.startRun(c.IntervalMs)
	case StopCommand:
		return r.stopRun(nil)
	case UpdateStatusCommand:
		return r.updateStatus()
	case SetTimeCommand:
		return r.setTime(c.Time)
	case SetRangeCommand:
		rng, err := r.device.SetRange(c.Center)
		if err != nil {
			return err
		}
		r.update(func(s *Status) { s.Range = rng })
		return nil
	case SetStandByCommand:
		standBy, err := r.device.SetStandBy(c.StandBy)
		if err != nil {
			return err
		}
		r.update(func(s *Status) { s.StandBy = standBy })
		return nil
	default:
		return ErrUnknownCommand{Command: fmt.Sprintf("%T", cmd)}
	}
}

func (r *Runner) startRun(intervalMs int) error {
	if intervalMs <= 0 {
		return ErrInvalidCommand{What: fmt.Sprintf("interval must be positive, got %d ms", intervalMs)}
	}
	if err := r.device.SendAuto(device.AutoInterval(intervalMs)); err != nil {
		return err
	}
	if r.running() {
		r.update(func(s *Status) { s.IntervalMs = intervalMs })
		return nil
	}
	if r.stopped {
		r.pipeline.Reset()
	}
	run := &Run{
		ID:         uuid.New().String(),
		IntervalMs: intervalMs,
		Started:    time.Now().UTC(),
	}
	r.update(func(s *Status) {
		s.Running = true
		s.RunID = run.ID
		s.IntervalMs = intervalMs
		s.LastError = ""
	})
	r.mu.Lock()
	r.run = run
	r.mu.Unlock()
	r.saveRun(run)
	log.Info("Run %s started: interval: %d ms", run.ID, intervalMs)
	return nil
}

// stopRun takes the logger out of auto mode and closes the output. cause
// is the error that ended the run, nil when it was asked to stop.
func (r *Runner) stopRun(cause error) error {
	enq, enqErr := r.device.Enq()
	closeErr := r.pipeline.Close()

	r.mu.Lock()
	run := r.run
	r.run = nil
	r.stopped = true
	r.mu.Unlock()

	r.update(func(s *Status) {
		s.Running = false
		if enqErr == nil {
			s.Enq = enq
		}
		if cause != nil {
			s.LastError = cause.Error()
		}
	})
	if run != nil {
		run.Stopped = time.Now().UTC()
		run.Ingest = r.pipeline.Stats()
		if cause != nil {
			run.Error = cause.Error()
		}
		r.saveRun(run)
		log.Info("Run %s stopped: frames: %d", run.ID, run.Ingest.Frames)
	}

	if enqErr != nil {
		return enqErr
	}
	return closeErr
}

func (r *Runner) updateStatus() error {
	enq, err := r.device.Enq()
	if err != nil {
		return err
	}
	about, err := r.device.About()
	if err != nil {
		return err
	}
	rng, err := r.device.Range()
	if err != nil {
		return err
	}
	t, err := r.device.Time()
	if err != nil {
		return err
	}
	r.update(func(s *Status) {
		s.Enq = enq
		s.About = about
		s.Range = rng
		s.Time = t
		s.TimeUpdated = time.Now().UTC()
	})
	return nil
}

// setTime sets the logger clock and reads it back
func (r *Runner) setTime(t time.Time) error {
	if err := r.device.SetTime(t); err != nil {
		return err
	}
	current, err := r.device.Time()
	if err != nil {
		return err
	}
	r.update(func(s *Status) {
		s.Time = current
		s.TimeUpdated = time.Now().UTC()
	})
	return nil
}

// restore picks up the status saved by the previous process. The logger
// is not assumed to be running.
func (r *Runner) restore() {
	if r.state == nil {
		return
	}
	saved, err := r.state.LoadStatus()
	if err != nil {
		log.Warning("Can not load saved status: %s", err)
		return
	}
	if saved == nil {
		return
	}
	saved.Running = false
	r.mu.Lock()
	r.status = *saved
	r.mu.Unlock()
	log.Debug("Restored status from %s", saved.Updated)
}

func (r *Runner) persist() {
	if r.state == nil {
		return
	}
	status := r.Status()
	if err := r.state.SaveStatus(&status); err != nil {
		log.Error("Error while saving status: %s", err)
	}
}

func (r *Runner) saveRun(run *Run) {
	if r.state == nil {
		return
	}
	if err := r.state.SaveRun(run); err != nil {
		log.Error("Error while saving run %s: %s", run.ID, err)
	}
}
