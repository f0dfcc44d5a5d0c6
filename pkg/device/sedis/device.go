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

package sedis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	deviceifc "jinr.ru/greenlab/go-sedis/pkg/device/ifc"
	"jinr.ru/greenlab/go-sedis/pkg/log"
)

/*
 Commands are ASCII lines terminated with CR. The logger answers every
 command with STX <text> ETX. While auto mode is on, stream bytes may arrive
 before the reply, they are kept and returned by the following Read calls.
*/

const (
	stx = 0x02
	etx = 0x03

	TimeLayout          = "2006-01-02 15:04:05"
	DefaultReplyTimeout = 2 * time.Second
	MaxReplyLength      = 256
	replyError          = "ERR"
	replyOK             = "OK"
)

// ErrNoReply returned when the logger does not answer in time
type ErrNoReply struct {
	Command string
}

func (e ErrNoReply) Error() string {
	return fmt.Sprintf("No reply from the logger to %s", e.Command)
}

// ErrDeviceReply returned when the logger answers with an error or garbage
type ErrDeviceReply struct {
	Command string
	Reply   string
}

func (e ErrDeviceReply) Error() string {
	return fmt.Sprintf("Unexpected reply from the logger to %s: %q", e.Command, e.Reply)
}

type Device struct {
	mu           sync.Mutex
	port         io.ReadWriteCloser
	stash        []byte
	replyTimeout time.Duration
}

var _ deviceifc.Device = &Device{}

// NewDevice wraps an open port. Reads from the port are expected to time
// out with serial.ErrTimeout when no data is available.
func NewDevice(port io.ReadWriteCloser, replyTimeout time.Duration) *Device {
	if replyTimeout <= 0 {
		replyTimeout = DefaultReplyTimeout
	}
	return &Device{
		port:         port,
		replyTimeout: replyTimeout,
	}
}

// Open opens the serial port of the logger
func Open(cfg *config.SerialConfig) (*Device, error) {
	log.Info("Opening serial port %s baud rate: %d", cfg.Port, cfg.BaudRate)
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  time.Duration(cfg.ReadTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return NewDevice(port, DefaultReplyTimeout), nil
}

func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.stash) > 0 {
		n := copy(p, d.stash)
		d.stash = d.stash[n:]
		return n, nil
	}
	n, err := d.port.Read(p)
	if errors.Is(err, serial.ErrTimeout) {
		return n, nil
	}
	return n, err
}

func (d *Device) Close() error {
	return d.port.Close()
}

func (d *Device) command(cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	log.Debug("Sending command to the logger: %s", cmd)
	if _, err := d.port.Write([]byte(cmd + "\r")); err != nil {
		return "", err
	}
	reply, err := d.readReply(cmd)
	if err != nil {
		return "", err
	}
	log.Debug("Logger replied to %s: %s", cmd, reply)
	if strings.HasPrefix(reply, replyError) {
		return "", ErrDeviceReply{Command: cmd, Reply: reply}
	}
	return reply, nil
}

// readReply collects port bytes until a reply shows up. Everything that is
// not part of the reply goes to the stash in arrival order.
func (d *Device) readReply(cmd string) (string, error) {
	deadline := time.Now().Add(d.replyTimeout)
	buf := make([]byte, 256)
	var pending []byte
	for {
		n, err := d.port.Read(buf)
		pending = append(pending, buf[:n]...)
		if first, last := findReply(pending); first >= 0 {
			d.stash = append(d.stash, pending[:first]...)
			d.stash = append(d.stash, pending[last+1:]...)
			return strings.TrimSpace(string(pending[first+1 : last])), nil
		}
		if err != nil && !errors.Is(err, serial.ErrTimeout) {
			d.stash = append(d.stash, pending...)
			return "", err
		}
		if time.Now().After(deadline) {
			d.stash = append(d.stash, pending...)
			return "", ErrNoReply{Command: cmd}
		}
	}
}

// findReply returns the positions of STX and ETX of the first reply in data,
// or -1, -1. A reply is 1 to MaxReplyLength printable ASCII bytes between
// STX and ETX, so control bytes of stream data are never taken for one.
func findReply(data []byte) (int, int) {
	for first := bytes.IndexByte(data, stx); first >= 0; {
		for i := first + 1; i < len(data) && i-first <= MaxReplyLength+1; i++ {
			b := data[i]
			if b == etx && i > first+1 {
				return first, i
			}
			if b < ' ' || b > '~' {
				break
			}
		}
		next := bytes.IndexByte(data[first+1:], stx)
		if next < 0 {
			break
		}
		first += next + 1
	}
	return -1, -1
}

func (d *Device) expectOK(cmd string) error {
	reply, err := d.command(cmd)
	if err != nil {
		return err
	}
	if reply != replyOK {
		return ErrDeviceReply{Command: cmd, Reply: reply}
	}
	return nil
}

// SendAuto switches auto mode on, see device.AutoInterval for the argument
func (d *Device) SendAuto(interval int) error {
	return d.expectOK(fmt.Sprintf("AUTO %d", interval))
}

// Enq asks the logger for its state, it also ends auto mode
func (d *Device) Enq() (string, error) {
	return d.command("ENQ")
}

func (d *Device) About() (string, error) {
	return d.command("ABOUT")
}

func (d *Device) Range() (string, error) {
	return d.command("RANGE?")
}

func (d *Device) Time() (time.Time, error) {
	reply, err := d.command("TIME?")
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(TimeLayout, reply, time.UTC)
	if err != nil {
		return time.Time{}, ErrDeviceReply{Command: "TIME?", Reply: reply}
	}
	return t, nil
}

func (d *Device) SetTime(t time.Time) error {
	return d.expectOK("TIME " + t.UTC().Format(TimeLayout))
}

// SetRange centers the input range and returns the range the logger reports
func (d *Device) SetRange(center int) (string, error) {
	return d.command(fmt.Sprintf("RANGE %d", center))
}

func (d *Device) SetStandBy(standBy bool) (bool, error) {
	arg := "0"
	if standBy {
		arg = "1"
	}
	cmd := "STANDBY " + arg
	reply, err := d.command(cmd)
	if err != nil {
		return false, err
	}
	state, err := strconv.ParseBool(reply)
	if err != nil {
		return false, ErrDeviceReply{Command: cmd, Reply: reply}
	}
	return state, nil
}
