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

package ingest

import (
	"bytes"
	"fmt"

	"jinr.ru/greenlab/go-sedis/pkg/layers"
	"jinr.ru/greenlab/go-sedis/pkg/log"
)

// MaxPendingDiscard is the amount of dropped bytes reported at once while
// no marker is found
const MaxPendingDiscard = 1 << 20

// Assembler cuts an unaligned byte stream into SEDIS frames.
//
// It waits for a full header, looks for the marker, drops whatever
// precedes it and then waits for the whole frame whose length the header
// declares. Dropped bytes are reported to the sink once sync is regained,
// so a run of garbage split across many chunks gives a single warning.
// Assembler is not safe for concurrent use.
type Assembler struct {
	buf buffer
	// frameLength is non zero only while a validated header is at offset 0
	frameLength int
	pending     int
	sink        log.Sink
	onReset     func()

	frames    uint64
	discarded uint64
}

func NewAssembler(sink log.Sink) *Assembler {
	if sink == nil {
		sink = log.Discard
	}
	return &Assembler{sink: sink}
}

// OnReset registers a function called by Reset
func (a *Assembler) OnReset(f func()) {
	a.onReset = f
}

// Feed buffers chunk and calls emit for every frame completed by it. The
// frame passed to emit aliases the internal buffer and is only valid
// during the call. Feed always consumes the whole chunk, an error is
// returned only when emit fails, the failed frame is dropped anyway.
func (a *Assembler) Feed(chunk []byte, emit func(frame []byte) error) (int, error) {
	a.buf.append(chunk)

	for {
		if a.frameLength == 0 {
			data := a.buf.bytes()
			if len(data) < layers.SedisHeaderLength {
				break
			}
			k := bytes.Index(data, layers.SedisMarker)
			switch {
			case k == 0:
				header := layers.SedisHeader(data[:layers.SedisHeaderLength])
				if header.HeaderSize() != layers.SedisHeaderLength {
					// marker by accident
					a.drop(1)
					continue
				}
				a.report()
				a.frameLength = header.FrameLength()
			case k > 0:
				a.drop(k)
				continue
			default:
				// keep a marker prefix that may be completed by the next chunk
				a.drop(len(data) - markerPrefixSuffix(data))
				continue
			}
		}

		if a.buf.len() < a.frameLength {
			break
		}
		frame := a.buf.bytes()[:a.frameLength]
		err := emit(frame)
		a.buf.discard(a.frameLength)
		a.frameLength = 0
		a.frames++
		if err != nil {
			return len(chunk), err
		}
	}
	return len(chunk), nil
}

// Reset forgets buffered bytes, reports pending discards and calls the reset hook
func (a *Assembler) Reset() {
	a.pending += a.buf.len()
	a.discarded += uint64(a.buf.len())
	a.report()
	a.buf.reset()
	a.frameLength = 0
	if a.onReset != nil {
		a.onReset()
	}
}

// Frames is the number of frames emitted since creation
func (a *Assembler) Frames() uint64 {
	return a.frames
}

// Discarded is the number of bytes dropped since creation
func (a *Assembler) Discarded() uint64 {
	return a.discarded
}

// Buffered is the number of bytes waiting for the rest of a frame
func (a *Assembler) Buffered() int {
	return a.buf.len()
}

func (a *Assembler) drop(k int) {
	if k == 0 {
		return
	}
	a.buf.discard(k)
	a.pending += k
	a.discarded += uint64(k)
	if a.pending >= MaxPendingDiscard {
		a.report()
	}
}

func (a *Assembler) report() {
	if a.pending == 0 {
		return
	}
	a.sink.Emit(fmt.Sprintf("discarded %d bytes of unframed data", a.pending))
	a.pending = 0
}

// markerPrefixSuffix returns the length of the longest tail of data which
// is a proper prefix of the marker
func markerPrefixSuffix(data []byte) int {
	l := layers.SedisMarkerLength - 1
	if len(data) < l {
		l = len(data)
	}
	for ; l > 0; l-- {
		if bytes.Equal(data[len(data)-l:], layers.SedisMarker[:l]) {
			return l
		}
	}
	return 0
}
