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
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "jinr.ru/greenlab/go-sedis/pkg/config"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	c := NewRootCommand(&out)
	c.SetErr(io.Discard)
	c.SetArgs(args)
	if err := c.Execute(); err != nil {
		t.Fatalf("%v: %s", args, err)
	}
	return out.String()
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	out := execute(t, "config", "init", "--config", path)
	if !strings.Contains(out, path) {
		t.Fatalf("init output: %s", out)
	}

	var c bytes.Buffer
	root := NewRootCommand(&c)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"config", "init", "--config", path})
	if err := root.Execute(); err == nil {
		t.Fatal("existing config overwritten without --force")
	}
	execute(t, "config", "init", "--config", path, "--force")

	out = execute(t, "config", "show", "--config", path)
	if !strings.Contains(out, "station: SEDIS") || !strings.Contains(out, "recordLength: 512") {
		t.Fatalf("show output: %s", out)
	}
}

func TestSimulateConvertInspect(t *testing.T) {
	dir := t.TempDir()
	cfg := pkgconfig.NewDefaultConfig()
	cfg.SetFilepath(filepath.Join(dir, "config"))
	cfg.Output.Dir = dir
	cfg.Output.Mode = pkgconfig.OutputModeMulti
	cfg.SamplingIntervals = pkgconfig.SamplingIntervals{{RateKey: 0, IntervalMs: 10}}
	cfg.StatePath = filepath.Join(dir, "state.db")
	if err := cfg.Persist(false); err != nil {
		t.Fatal(err)
	}

	capture := filepath.Join(dir, "capture.bin")
	execute(t, "simulate", "--frames", "3", "--samples", "20", "--channels", "1", "--garbage", "7", "-o", capture)

	out := execute(t, "convert", capture, "--config", cfg.Filepath())
	if !strings.Contains(out, "frames: 3 skipped: 0 discarded bytes: 21") {
		t.Fatalf("convert output: %s", out)
	}

	for _, name := range []string{"sedis-1.mseed", "sedis-2.mseed", "sedis-3.mseed"} {
		out = execute(t, "inspect", filepath.Join(dir, name))
		if !strings.Contains(out, "XX_SEDIS_00_BHZ") || strings.Count(out, "\n") != 1 {
			t.Fatalf("%s: %s", name, out)
		}
	}
}

func TestCompletion(t *testing.T) {
	out := execute(t, "completion", "bash")
	if !strings.Contains(out, "go-sedis") {
		t.Fatal("completion script does not mention the command")
	}
}
