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
	"math/rand"
	"testing"
	"time"

	"jinr.ru/greenlab/go-sedis/pkg/layers"
)

var testTime = time.Date(2020, time.May, 17, 10, 0, 0, 0, time.UTC)

type recordSink struct {
	msgs []string
}

func (s *recordSink) Emit(msg string) {
	s.msgs = append(s.msgs, msg)
}

// discards returns the byte counts of all discard warnings
func (s *recordSink) discards() []int {
	var counts []int
	for _, msg := range s.msgs {
		var k int
		if _, err := fmt.Sscanf(msg, "discarded %d bytes", &k); err == nil {
			counts = append(counts, k)
		}
	}
	return counts
}

func buildFrame(t *testing.T, f *layers.SedisFrame) []byte {
	t.Helper()
	data, err := f.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func numberedFrame(t *testing.T, i int) []byte {
	t.Helper()
	f := &layers.SedisFrame{
		ChannelMap:   0b000101,
		BlockSamples: uint16(3 + i%5),
		SampleTime:   testTime.Add(time.Duration(i) * time.Second),
	}
	if i%2 == 1 {
		f.ConfigWord = layers.ConfigWideSamples
		f.ChannelMap = 0b110000
	}
	for c := range f.Samples {
		f.Samples[c] = make([]int32, f.BlockSamples)
		for s := range f.Samples[c] {
			f.Samples[c][s] = int32(i*1000 + c*100 + s)
		}
	}
	return buildFrame(t, f)
}

func collect(frames *[][]byte) func([]byte) error {
	return func(frame []byte) error {
		*frames = append(*frames, append([]byte(nil), frame...))
		return nil
	}
}

func feedChunks(t *testing.T, a *Assembler, stream []byte, sizes func() int, emit func([]byte) error) {
	t.Helper()
	for len(stream) > 0 {
		n := sizes()
		if n > len(stream) {
			n = len(stream)
		}
		consumed, err := a.Feed(stream[:n], emit)
		if err != nil {
			t.Fatal(err)
		}
		if consumed != n {
			t.Fatalf("consumed %d of %d bytes", consumed, n)
		}
		stream = stream[n:]
	}
}

func TestAssembler_ArbitraryChunks(t *testing.T) {
	var want [][]byte
	var stream []byte
	for i := 0; i < 6; i++ {
		frame := numberedFrame(t, i)
		want = append(want, frame)
		stream = append(stream, frame...)
	}

	rnd := rand.New(rand.NewSource(1))
	chunkings := map[string]func() int{
		"one byte":    func() int { return 1 },
		"seven bytes": func() int { return 7 },
		"header-1":    func() int { return layers.SedisHeaderLength - 1 },
		"header":      func() int { return layers.SedisHeaderLength },
		"header+1":    func() int { return layers.SedisHeaderLength + 1 },
		"all at once": func() int { return len(stream) },
		"random":      func() int { return 1 + rnd.Intn(200) },
	}
	for name, sizes := range chunkings {
		t.Run(name, func(t *testing.T) {
			sink := &recordSink{}
			a := NewAssembler(sink)
			var got [][]byte
			feedChunks(t, a, stream, sizes, collect(&got))
			if len(got) != len(want) {
				t.Fatalf("got %d frames, want %d", len(got), len(want))
			}
			for i := range want {
				if !bytes.Equal(got[i], want[i]) {
					t.Fatalf("frame %d differs", i)
				}
			}
			if len(sink.msgs) != 0 {
				t.Fatalf("unexpected warnings %v", sink.msgs)
			}
			if a.Buffered() != 0 {
				t.Fatalf("%d bytes left in buffer", a.Buffered())
			}
		})
	}
}

func garbage(k int) []byte {
	g := make([]byte, k)
	for i := range g {
		g[i] = byte(0xA0 + i%7)
	}
	return g
}

func TestAssembler_GarbageThenValid(t *testing.T) {
	frame := numberedFrame(t, 1)
	for _, k := range []int{0, 1, 11, 12, 79, 80, 81, 500, 5000} {
		t.Run(fmt.Sprintf("%d bytes", k), func(t *testing.T) {
			sink := &recordSink{}
			a := NewAssembler(sink)
			var got [][]byte
			stream := append(garbage(k), frame...)
			feedChunks(t, a, stream, func() int { return 13 }, collect(&got))

			if len(got) != 1 || !bytes.Equal(got[0], frame) {
				t.Fatalf("frame not reassembled, got %d frames", len(got))
			}
			discards := sink.discards()
			if k == 0 {
				if len(discards) != 0 {
					t.Fatalf("unexpected discards %v", discards)
				}
				return
			}
			if len(discards) != 1 || discards[0] != k {
				t.Fatalf("discard warnings %v, want one of %d", discards, k)
			}
			if a.Discarded() != uint64(k) {
				t.Fatalf("discarded counter %d", a.Discarded())
			}
		})
	}
}

func TestAssembler_SplitMarker(t *testing.T) {
	frame := numberedFrame(t, 2)
	for split := 1; split < layers.SedisMarkerLength; split++ {
		t.Run(fmt.Sprintf("split at %d", split), func(t *testing.T) {
			sink := &recordSink{}
			a := NewAssembler(sink)
			var got [][]byte
			first := append(bytes.Repeat([]byte{0xAA}, 100), frame[:split]...)
			if _, err := a.Feed(first, collect(&got)); err != nil {
				t.Fatal(err)
			}
			if a.Buffered() != split {
				t.Fatalf("kept %d bytes, want the %d marker bytes", a.Buffered(), split)
			}
			if _, err := a.Feed(frame[split:], collect(&got)); err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || !bytes.Equal(got[0], frame) {
				t.Fatalf("frame lost")
			}
			if d := sink.discards(); len(d) != 1 || d[0] != 100 {
				t.Fatalf("discards %v, want [100]", d)
			}
		})
	}
}

func TestAssembler_FalseMarker(t *testing.T) {
	frame := numberedFrame(t, 3)
	fake := append(append([]byte(nil), layers.SedisMarker...), make([]byte, 70)...)
	sink := &recordSink{}
	a := NewAssembler(sink)
	var got [][]byte
	if _, err := a.Feed(append(fake, frame...), collect(&got)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !bytes.Equal(got[0], frame) {
		t.Fatalf("frame after false marker lost")
	}
	if d := sink.discards(); len(d) != 1 || d[0] != len(fake) {
		t.Fatalf("discards %v, want [%d]", d, len(fake))
	}
}

func TestAssembler_LongGarbageReportedPeriodically(t *testing.T) {
	sink := &recordSink{}
	a := NewAssembler(sink)
	chunk := bytes.Repeat([]byte{0x55}, 64*1024)
	for i := 0; i < 32; i++ {
		if _, err := a.Feed(chunk, collect(new([][]byte))); err != nil {
			t.Fatal(err)
		}
	}
	d := sink.discards()
	if len(d) != 2 || d[0] != MaxPendingDiscard || d[1] != MaxPendingDiscard {
		t.Fatalf("discards %v", d)
	}
}

func TestAssembler_ResetIdempotence(t *testing.T) {
	frame := numberedFrame(t, 4)

	var fresh [][]byte
	if _, err := NewAssembler(nil).Feed(frame, collect(&fresh)); err != nil {
		t.Fatal(err)
	}

	for _, partial := range [][]byte{
		frame[:5],
		frame[:layers.SedisHeaderLength+3],
		append(garbage(200), frame[:40]...),
	} {
		resets := 0
		a := NewAssembler(nil)
		a.OnReset(func() { resets++ })
		var got [][]byte
		if _, err := a.Feed(partial, collect(&got)); err != nil {
			t.Fatal(err)
		}
		a.Reset()
		a.Reset()
		if a.Buffered() != 0 || resets != 2 {
			t.Fatalf("buffered %d resets %d", a.Buffered(), resets)
		}
		if _, err := a.Feed(frame, collect(&got)); err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || !bytes.Equal(got[0], fresh[0]) {
			t.Fatalf("frame after reset differs from fresh run")
		}
	}
}

func TestAssembler_EmitErrorConsumesChunk(t *testing.T) {
	stream := append(numberedFrame(t, 0), numberedFrame(t, 1)...)
	a := NewAssembler(nil)
	calls := 0
	n, err := a.Feed(stream, func([]byte) error {
		calls++
		return fmt.Errorf("disk full")
	})
	if err == nil || n != len(stream) || calls != 1 {
		t.Fatalf("n=%d err=%v calls=%d", n, err, calls)
	}
	var got [][]byte
	if _, err := a.Feed(nil, collect(&got)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("second frame not emitted on next feed")
	}
}

func TestBuffer_Doubling(t *testing.T) {
	var b buffer
	b.append(make([]byte, 10))
	if len(b.data) != initialBufferSize || b.len() != 10 {
		t.Fatalf("cap %d len %d", len(b.data), b.len())
	}
	b.append(make([]byte, initialBufferSize))
	if len(b.data) != 2*initialBufferSize {
		t.Fatalf("cap %d after growing", len(b.data))
	}
	b.append([]byte{1, 2, 3})
	b.discard(b.len() - 3)
	if !bytes.Equal(b.bytes(), []byte{1, 2, 3}) {
		t.Fatalf("compaction broke the tail: %v", b.bytes())
	}
}

func TestBuffer_DiscardIsLazy(t *testing.T) {
	var b buffer
	in := make([]byte, 100)
	for i := range in {
		in[i] = byte(i)
	}
	b.append(in)
	b.discard(60)
	if b.data[0] != 0 || b.len() != 40 || b.bytes()[0] != 60 {
		t.Fatalf("discard moved data: first %d len %d", b.data[0], b.len())
	}
	// fits once the dropped bytes are reclaimed
	b.append(make([]byte, initialBufferSize-100))
	if len(b.data) != initialBufferSize || b.off != 0 || b.data[0] != 60 {
		t.Fatalf("cap %d off %d first %d", len(b.data), b.off, b.data[0])
	}
	if b.len() != initialBufferSize-60 {
		t.Fatalf("len %d", b.len())
	}
}

func TestAssembler_ManyFalseMarkers(t *testing.T) {
	frame := numberedFrame(t, 5)
	fakes := bytes.Repeat(layers.SedisMarker, 5000)
	sink := &recordSink{}
	a := NewAssembler(sink)
	var got [][]byte
	if _, err := a.Feed(append(fakes, frame...), collect(&got)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !bytes.Equal(got[0], frame) {
		t.Fatalf("frame after false markers lost")
	}
	if d := sink.discards(); len(d) != 1 || d[0] != len(fakes) {
		t.Fatalf("discards %v, want [%d]", d, len(fakes))
	}
}
