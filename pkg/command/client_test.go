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

package command

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"jinr.ru/greenlab/go-sedis/pkg/srv/control"
)

type request struct {
	method string
	path   string
	body   string
}

type fakeApi struct {
	mu       sync.Mutex
	requests []request
}

func (f *fakeApi) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, request{r.Method, r.URL.Path, strings.TrimSpace(string(body))})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == "GET" && r.URL.Path == "/api/status":
		json.NewEncoder(w).Encode(control.Status{Running: true, RunID: "run-1", About: "SEDIS rev 7"})
	case r.Method == "GET" && r.URL.Path == "/api/runs":
		json.NewEncoder(w).Encode([]*control.Run{{ID: "run-1", IntervalMs: 1000}})
	case r.URL.Path == "/api/reset":
		w.Write([]byte(`{"code": 200}`))
	case r.URL.Path == "/api/range":
		http.Error(w, "Command queue is full", http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"command": "` + strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/api/")) + `"}`))
	}
}

func (f *fakeApi) last() request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T) (*ApiClient, *fakeApi) {
	t.Helper()
	api := &fakeApi{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return NewApiClientWithURL(server.URL + "/"), api
}

func TestApiClient_Commands(t *testing.T) {
	c, api := newTestClient(t)

	queued, err := c.Run(250)
	if err != nil || queued != "RUN" {
		t.Fatalf("run %q %v", queued, err)
	}
	if got := api.last(); got.path != "/api/run" || got.body != `{"intervalMs":250}` {
		t.Fatalf("request %+v", got)
	}

	if _, err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if got := api.last(); got.method != "POST" || got.path != "/api/stop" || got.body != "" {
		t.Fatalf("request %+v", got)
	}

	if _, err := c.UpdateStatus(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetTime(time.Time{}); err != nil {
		t.Fatal(err)
	}
	if got := api.last(); got.path != "/api/time" || got.body != "" {
		t.Fatalf("request %+v", got)
	}
	if _, err := c.SetTime(time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if got := api.last(); got.body != `{"time":"2021-03-04T05:06:07Z"}` {
		t.Fatalf("request %+v", got)
	}
	if _, err := c.SetStandBy(true); err != nil {
		t.Fatal(err)
	}
	if got := api.last(); got.path != "/api/standby" || got.body != `{"standBy":true}` {
		t.Fatalf("request %+v", got)
	}
	if err := c.Reset(); err != nil {
		t.Fatal(err)
	}
}

func TestApiClient_ErrorCarriesServerMessage(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.SetRange(2)
	if err == nil || !strings.Contains(err.Error(), "queue is full") {
		t.Fatalf("got %v", err)
	}
}

func TestApiClient_StatusAndRuns(t *testing.T) {
	c, _ := newTestClient(t)
	status, err := c.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !status.Running || status.RunID != "run-1" || status.About != "SEDIS rev 7" {
		t.Fatalf("status %+v", status)
	}
	runs, err := c.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Fatalf("runs %+v", runs)
	}
}
