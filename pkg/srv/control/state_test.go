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
	"path/filepath"
	"testing"
	"time"

	"jinr.ru/greenlab/go-sedis/pkg/srv/ingest"
)

func TestState_Status(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	state, err := NewState(path)
	if err != nil {
		t.Fatal(err)
	}

	status, err := state.LoadStatus()
	if err != nil || status != nil {
		t.Fatalf("fresh state: %v %v", status, err)
	}

	saved := &Status{
		RunID:       "run-1",
		About:       "SEDIS rev 7",
		Time:        time.Date(2020, time.May, 17, 10, 0, 0, 0, time.UTC),
		TimeUpdated: time.Date(2020, time.May, 17, 10, 0, 1, 0, time.UTC),
		Ingest:      ingest.Stats{Frames: 12, Discarded: 3},
	}
	if err := state.SaveStatus(saved); err != nil {
		t.Fatal(err)
	}
	if err := state.Close(); err != nil {
		t.Fatal(err)
	}

	state, err = NewState(path)
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()
	status, err = state.LoadStatus()
	if err != nil {
		t.Fatal(err)
	}
	if status.RunID != "run-1" || status.About != "SEDIS rev 7" || status.Ingest.Frames != 12 {
		t.Fatalf("loaded %+v", status)
	}
	if !status.Time.Equal(saved.Time) {
		t.Fatalf("time %s", status.Time)
	}
}

func TestState_RunsOldestFirst(t *testing.T) {
	state, err := NewState(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	// keys sort differently from start times
	for i, id := range []string{"c", "a", "b"} {
		run := &Run{ID: id, IntervalMs: 1000, Started: start.Add(time.Duration(i) * time.Hour)}
		if err := state.SaveRun(run); err != nil {
			t.Fatal(err)
		}
	}
	// saving again replaces the record
	if err := state.SaveRun(&Run{ID: "a", IntervalMs: 1000, Started: start.Add(time.Hour), Error: "stopped"}); err != nil {
		t.Fatal(err)
	}

	runs, err := state.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "a" || runs[2].ID != "b" {
		t.Fatalf("order %s %s %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
	if runs[1].Error != "stopped" {
		t.Fatalf("run a not replaced: %+v", runs[1])
	}
}
