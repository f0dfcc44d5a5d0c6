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

package log

// Sink receives human readable diagnostics (discarded bytes, packed records).
// Emit must not block for long and must not fail; nothing flows back
// from a sink into the caller.
type Sink interface {
	Emit(msg string)
}

// SinkFunc adapts a plain function to Sink
type SinkFunc func(msg string)

func (f SinkFunc) Emit(msg string) {
	f(msg)
}

type logSink struct{}

// LogSink writes every diagnostic as a warning into the process log
var LogSink Sink = logSink{}

func (logSink) Emit(msg string) {
	Warning("%s", msg)
}

// Discard drops all diagnostics
var Discard Sink = SinkFunc(func(string) {})

type teeSink []Sink

func (t teeSink) Emit(msg string) {
	for _, s := range t {
		s.Emit(msg)
	}
}

// Tee fans a diagnostic out to all given sinks in order. Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	var t teeSink
	for _, s := range sinks {
		if s != nil {
			t = append(t, s)
		}
	}
	return t
}
