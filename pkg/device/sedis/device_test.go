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
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goburrow/serial"
)

// fakePort answers commands through reply, an empty reply means silence
type fakePort struct {
	mu       sync.Mutex
	in       []byte
	commands []string
	reply    func(cmd string) string
	// before is sent ahead of every reply, like stream data in auto mode
	before []byte
	after  []byte
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.in) == 0 {
		return 0, serial.ErrTimeout
	}
	n := copy(b, p.in)
	p.in = p.in[n:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd := strings.TrimSuffix(string(b), "\r")
	p.commands = append(p.commands, cmd)
	if r := p.reply(cmd); r != "" {
		p.in = append(p.in, p.before...)
		p.in = append(p.in, stx)
		p.in = append(p.in, r...)
		p.in = append(p.in, etx)
		p.in = append(p.in, p.after...)
	}
	return len(b), nil
}

func (p *fakePort) Close() error {
	return nil
}

func loggerReplies(cmd string) string {
	switch {
	case cmd == "ENQ":
		return "READY"
	case cmd == "ABOUT":
		return "SEDIS rev 7"
	case cmd == "RANGE?":
		return "+-2.5V"
	case cmd == "TIME?":
		return "2020-05-17 10:00:00"
	case strings.HasPrefix(cmd, "TIME "), strings.HasPrefix(cmd, "AUTO "):
		return "OK"
	case strings.HasPrefix(cmd, "RANGE "):
		return "centered " + strings.TrimPrefix(cmd, "RANGE ")
	case cmd == "STANDBY 1":
		return "1"
	case cmd == "STANDBY 0":
		return "0"
	case cmd == "BROKEN":
		return "ERR unknown command"
	default:
		return ""
	}
}

func TestDevice_Commands(t *testing.T) {
	port := &fakePort{reply: loggerReplies}
	d := NewDevice(port, 50*time.Millisecond)

	if enq, err := d.Enq(); err != nil || enq != "READY" {
		t.Fatalf("enq %q %v", enq, err)
	}
	if about, err := d.About(); err != nil || about != "SEDIS rev 7" {
		t.Fatalf("about %q %v", about, err)
	}
	if r, err := d.Range(); err != nil || r != "+-2.5V" {
		t.Fatalf("range %q %v", r, err)
	}
	ts, err := d.Time()
	if err != nil || !ts.Equal(time.Date(2020, time.May, 17, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("time %s %v", ts, err)
	}
	if err := d.SetTime(time.Date(2021, time.January, 2, 3, 4, 5, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if err := d.SendAuto(-5); err != nil {
		t.Fatal(err)
	}
	if r, err := d.SetRange(12); err != nil || r != "centered 12" {
		t.Fatalf("set range %q %v", r, err)
	}
	if s, err := d.SetStandBy(true); err != nil || !s {
		t.Fatalf("standby %v %v", s, err)
	}

	want := []string{"ENQ", "ABOUT", "RANGE?", "TIME?", "TIME 2021-01-02 03:04:05", "AUTO -5", "RANGE 12", "STANDBY 1"}
	if strings.Join(port.commands, "|") != strings.Join(want, "|") {
		t.Fatalf("commands %q", port.commands)
	}
}

func TestDevice_ErrorReply(t *testing.T) {
	d := NewDevice(&fakePort{reply: loggerReplies}, 50*time.Millisecond)
	_, err := d.command("BROKEN")
	var replyErr ErrDeviceReply
	if !errors.As(err, &replyErr) || replyErr.Reply != "ERR unknown command" {
		t.Fatalf("got %v", err)
	}
}

func TestDevice_NoReply(t *testing.T) {
	d := NewDevice(&fakePort{reply: loggerReplies}, 20*time.Millisecond)
	_, err := d.command("SILENT")
	var noReply ErrNoReply
	if !errors.As(err, &noReply) || noReply.Command != "SILENT" {
		t.Fatalf("got %v", err)
	}
}

func TestDevice_StreamDataAroundReply(t *testing.T) {
	port := &fakePort{reply: loggerReplies, before: []byte("Seismic"), after: []byte("Data")}
	d := NewDevice(port, 50*time.Millisecond)
	if _, err := d.Enq(); err != nil {
		t.Fatal(err)
	}
	var got []byte
	buf := make([]byte, 3)
	for {
		n, err := d.Read(buf)
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 {
			break
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "SeismicData" {
		t.Fatalf("stream bytes %q", got)
	}
}

func readStash(t *testing.T, d *Device) []byte {
	t.Helper()
	var got []byte
	buf := make([]byte, 3)
	for {
		n, err := d.Read(buf)
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 {
			return got
		}
		got = append(got, buf[:n]...)
	}
}

func TestDevice_ControlBytesInStreamData(t *testing.T) {
	cases := []struct {
		name   string
		before []byte
		after  []byte
	}{
		{"stx then binary", []byte{0x53, 0x00, 0x02, 0x10, 0x7f}, nil},
		{"stx and etx", []byte{0x02, 0x03, 0x41, 0x02, 0x00, 0x03}, []byte{0x03, 0x02}},
		{"stx then text", []byte{0x02, 'A', 'B', 0x00, 0x02, 'C'}, []byte{'D', 0x03}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			port := &fakePort{reply: loggerReplies, before: c.before, after: c.after}
			d := NewDevice(port, 50*time.Millisecond)
			enq, err := d.Enq()
			if err != nil || enq != "READY" {
				t.Fatalf("enq %q %v", enq, err)
			}
			want := append(append([]byte(nil), c.before...), c.after...)
			if got := readStash(t, d); !bytes.Equal(got, want) {
				t.Fatalf("stream bytes % x, want % x", got, want)
			}
		})
	}
}

func TestDevice_NoReplyKeepsStreamData(t *testing.T) {
	port := &fakePort{reply: loggerReplies, in: []byte{0x02, 0x10, 0x03, 'x'}}
	d := NewDevice(port, 20*time.Millisecond)
	var noReply ErrNoReply
	if _, err := d.command("SILENT"); !errors.As(err, &noReply) {
		t.Fatalf("got %v", err)
	}
	if got := readStash(t, d); !bytes.Equal(got, []byte{0x02, 0x10, 0x03, 'x'}) {
		t.Fatalf("stream bytes % x", got)
	}
}

func TestDevice_ReadTimeoutIsNotAnError(t *testing.T) {
	d := NewDevice(&fakePort{reply: loggerReplies}, 0)
	n, err := d.Read(make([]byte, 16))
	if n != 0 || err != nil {
		t.Fatalf("n=%d err=%v", n, err)
	}
}
