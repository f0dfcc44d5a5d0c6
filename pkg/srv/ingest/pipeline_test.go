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
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/layers"
	"jinr.ru/greenlab/go-sedis/pkg/mseed"
)

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Mode = mode
	cfg.SamplingIntervals = testIntervals
	return cfg
}

func readRecords(t *testing.T, path string) []*mseed.Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := mseed.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func writeFrames(t *testing.T, p *Pipeline, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		frame, _ := demuxFrame(t)
		// split every frame to make the pipeline reassemble it
		if _, err := p.Write(frame[:50]); err != nil {
			t.Fatal(err)
		}
		if _, err := p.Write(frame[50:]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPipeline_MultiFile(t *testing.T) {
	cfg := testConfig(t, config.OutputModeMulti)
	p, err := NewPipelineFromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	writeFrames(t, p, 3)

	for i := 1; i <= 3; i++ {
		path := filepath.Join(cfg.Output.Dir, "sedis-"+string(rune('0'+i))+".mseed")
		records := readRecords(t, path)
		if len(records) != 3 {
			t.Fatalf("%s holds %d records, want one per channel", path, len(records))
		}
		var names []string
		for _, r := range records {
			names = append(names, r.Channel)
		}
		if !reflect.DeepEqual(names, []string{"BHZ", "BHS", "BLZ"}) {
			t.Fatalf("channels %v", names)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "sedis-4.mseed")); !os.IsNotExist(err) {
		t.Fatal("unexpected fourth file")
	}

	stats := p.Stats()
	if stats.Frames != 3 || stats.Skipped != 0 || stats.Discarded != 0 {
		t.Fatalf("stats %+v", stats)
	}
}

func TestPipeline_MultiFileReset(t *testing.T) {
	cfg := testConfig(t, config.OutputModeMulti)
	p, err := NewPipelineFromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	writeFrames(t, p, 2)
	p.Reset()
	writeFrames(t, p, 1)
	if got := p.Stats().Output; got != filepath.Join(cfg.Output.Dir, "sedis-1.mseed") {
		t.Fatalf("output after reset %s", got)
	}
	if len(readRecords(t, filepath.Join(cfg.Output.Dir, "sedis-1.mseed"))) != 3 {
		t.Fatal("restarted file was not truncated")
	}
}

func TestPipeline_SingleFile(t *testing.T) {
	cfg := testConfig(t, config.OutputModeSingle)
	sink := &recordSink{}
	p, err := NewPipelineFromConfig(cfg, sink)
	if err != nil {
		t.Fatal(err)
	}
	var handle *os.File
	for i := 0; i < 3; i++ {
		writeFrames(t, p, 1)
		if i == 0 {
			handle = p.transcoder.Output().file
		} else if p.transcoder.Output().file != handle {
			t.Fatal("single file reopened")
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	records := readRecords(t, filepath.Join(cfg.Output.Dir, "sedis.mseed"))
	if len(records) != 9 {
		t.Fatalf("got %d records, want 3 groups of 3", len(records))
	}
	_, want := demuxFrame(t)
	samples, err := records[4].Samples()
	if err != nil {
		t.Fatal(err)
	}
	if records[4].Channel != "BHS" || !reflect.DeepEqual(samples, want[3]) {
		t.Fatalf("record 4: %s %v", records[4].Channel, samples)
	}
	if len(sink.msgs) != 9 || sink.msgs[0] != "XX.SEDIS.00.BHZ: packed 4 samples into 1 records" {
		t.Fatalf("messages %q", sink.msgs)
	}
}

func TestPipeline_SkipsInvalidFrames(t *testing.T) {
	cfg := testConfig(t, config.OutputModeMulti)
	sink := &recordSink{}
	p, err := NewPipelineFromConfig(cfg, sink)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	bad := buildFrame(t, &layers.SedisFrame{ChannelMap: 0b1, BlockSamples: 0, SampleTime: testTime})
	if _, err := p.Write(bad); err != nil {
		t.Fatalf("invalid frame escaped as error: %v", err)
	}
	writeFrames(t, p, 1)

	stats := p.Stats()
	if stats.Skipped != 1 || stats.Frames != 1 {
		t.Fatalf("stats %+v", stats)
	}
	if stats.Output != filepath.Join(cfg.Output.Dir, "sedis-1.mseed") {
		t.Fatalf("valid frame written to %s", stats.Output)
	}
	if len(sink.msgs) == 0 || sink.msgs[0][:len("skipping frame")] != "skipping frame" {
		t.Fatalf("messages %q", sink.msgs)
	}
}

func TestPipeline_SkipsFrameWithoutMarker(t *testing.T) {
	sink := &recordSink{}
	p, err := NewPipelineFromConfig(testConfig(t, config.OutputModeSingle), sink)
	if err != nil {
		t.Fatal(err)
	}
	frame, _ := demuxFrame(t)
	frame[0] = 'X'
	if err := p.transcode(frame); err != nil {
		t.Fatalf("frame without marker escaped: %v", err)
	}
	if p.Stats().Skipped != 1 || len(sink.msgs) != 1 || !strings.Contains(sink.msgs[0], "Marker") {
		t.Fatalf("stats %+v messages %q", p.Stats(), sink.msgs)
	}
}

func TestPipeline_EncoderErrorPropagates(t *testing.T) {
	tr, err := NewTranscoder(TranscoderOptions{
		Channels:  config.DefaultChannelNames(),
	Intervals: testIntervals,
		Encoder:   &fakeEncoder{err: errors.New("boom")},
		Output:    NewRotator(t.TempDir(), "sedis", "", SingleFile),
	})
	if err != nil {
		t.Fatal(err)
	}
	p := NewPipeline(NewAssembler(nil), tr, nil)
	frame, _ := demuxFrame(t)
	n, err := p.Write(frame)
	var encErr ErrEncoder
	if !errors.As(err, &encErr) || n != len(frame) {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestNewPipelineFromConfig_Errors(t *testing.T) {
	cfg := testConfig(t, "rotate")
	if _, err := NewPipelineFromConfig(cfg, nil); err == nil {
		t.Fatal("unknown mode accepted")
	}
	cfg = testConfig(t, config.OutputModeSingle)
	cfg.Station.Channels = []string{"BHZ"}
	var tableErr ErrChannelTable
	if _, err := NewPipelineFromConfig(cfg, nil); !errors.As(err, &tableErr) {
		t.Fatalf("got %v", err)
	}
}
