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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-sedis/pkg/log"
	"jinr.ru/greenlab/go-sedis/pkg/srv/ingest"
)

const (
	StatusBucketName = "status"
	RunsBucketName   = "runs"
	statusKey        = "current"
)

// Status is what the runner knows about the logger and the current run
type Status struct {
	Running     bool         `json:"running"`
	RunID       string       `json:"runId,omitempty"`
	IntervalMs  int          `json:"intervalMs,omitempty"`
	Enq         string       `json:"enq,omitempty"`
	About       string       `json:"about,omitempty"`
	Range       string       `json:"range,omitempty"`
	Time        time.Time    `json:"time"`
	TimeUpdated time.Time    `json:"timeUpdated"`
	StandBy     bool         `json:"standBy"`
	Updated     time.Time    `json:"updated"`
	LastError   string       `json:"lastError,omitempty"`
	Ingest      ingest.Stats `json:"ingest"`
}

// Run is the history record of one auto mode session
type Run struct {
	ID         string       `json:"id"`
	IntervalMs int          `json:"intervalMs"`
	Started    time.Time    `json:"started"`
	Stopped    time.Time    `json:"stopped,omitempty"`
	Error      string       `json:"error,omitempty"`
	Ingest     ingest.Stats `json:"ingest"`
}

type State struct {
	DB *bbolt.DB
}

func NewState(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{StatusBucketName, RunsBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &State{DB: db}, nil
}

func (s *State) Close() error {
	return s.DB.Close()
}

func (s *State) put(bucket, key string, value interface{}) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", bucket)
		}
		return b.Put([]byte(key), data)
	})
}

// SaveStatus persists the status snapshot
func (s *State) SaveStatus(status *Status) error {
	log.Debug("Saving status: running: %t run: %s", status.Running, status.RunID)
	return s.put(StatusBucketName, statusKey, status)
}

// LoadStatus returns the last saved status or nil if there is none
func (s *State) LoadStatus() (*Status, error) {
	var status *Status
	err := s.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(StatusBucketName)).Get([]byte(statusKey))
		if data == nil {
			return nil
		}
		status = &Status{}
		return yaml.Unmarshal(data, status)
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (s *State) SaveRun(run *Run) error {
	log.Debug("Saving run: %s", run.ID)
	return s.put(RunsBucketName, run.ID, run)
}

// Runs returns all runs, the oldest first
func (s *State) Runs() ([]*Run, error) {
	var runs []*Run
	err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(RunsBucketName)).ForEach(func(k, v []byte) error {
			run := &Run{}
			if err := yaml.Unmarshal(v, run); err != nil {
				return err
			}
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Started.Before(runs[j].Started)
	})
	return runs, nil
}
