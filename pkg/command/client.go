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
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/srv/control"
)

type ApiClient struct {
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return NewApiClientWithURL(cfg.ApiURL())
}

// NewApiClientWithURL is used when the server was found by discovery
func NewApiClientWithURL(url string) *ApiClient {
	return &ApiClient{
		ApiPrefix: strings.TrimSuffix(url, "/") + "/api",
	}
}

func (c *ApiClient) url(path string) string {
	return fmt.Sprintf("%s/%s", c.ApiPrefix, path)
}

func checkStatus(r *req.Resp, code int) error {
	if r.Response().StatusCode != code {
		msg := strings.TrimSpace(r.String())
		if msg == "" {
			msg = r.Response().Status
		}
		return errors.New(msg)
	}
	return nil
}

// post sends a command and returns its text as queued by the server
func (c *ApiClient) post(path string, body interface{}) (string, error) {
	var r *req.Resp
	var err error
	if body == nil {
		r, err = req.Post(c.url(path))
	} else {
		r, err = req.Post(c.url(path), req.BodyJSON(body))
	}
	if err != nil {
		return "", err
	}
	if err = checkStatus(r, http.StatusAccepted); err != nil {
		return "", err
	}
	queued := &control.RespQueued{}
	if err = r.ToJSON(&queued.Body); err != nil {
		return "", err
	}
	return queued.Body.Command, nil
}

// Run asks the runner to start auto mode, 0 means the configured interval
func (c *ApiClient) Run(intervalMs int) (string, error) {
	return c.post("run", &control.RunCommand{IntervalMs: intervalMs})
}

func (c *ApiClient) Stop() (string, error) {
	return c.post("stop", nil)
}

// UpdateStatus asks the runner to query the logger state
func (c *ApiClient) UpdateStatus() (string, error) {
	return c.post("status", nil)
}

// SetTime sets the logger clock, zero time means the server time
func (c *ApiClient) SetTime(t time.Time) (string, error) {
	if t.IsZero() {
		return c.post("time", nil)
	}
	return c.post("time", &control.SetTimeCommand{Time: t})
}

func (c *ApiClient) SetRange(center int) (string, error) {
	return c.post("range", &control.SetRangeCommand{Center: center})
}

func (c *ApiClient) SetStandBy(standBy bool) (string, error) {
	return c.post("standby", &control.SetStandByCommand{StandBy: standBy})
}

// Status returns the status snapshot of the runner
func (c *ApiClient) Status() (*control.Status, error) {
	r, err := req.Get(c.url("status"))
	if err != nil {
		return nil, err
	}
	if err = checkStatus(r, http.StatusOK); err != nil {
		return nil, err
	}
	status := &control.Status{}
	if err = r.ToJSON(status); err != nil {
		return nil, err
	}
	return status, nil
}

func (c *ApiClient) Runs() ([]*control.Run, error) {
	r, err := req.Get(c.url("runs"))
	if err != nil {
		return nil, err
	}
	if err = checkStatus(r, http.StatusOK); err != nil {
		return nil, err
	}
	var runs []*control.Run
	if err = r.ToJSON(&runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// Reset drops partially received data on the server
func (c *ApiClient) Reset() error {
	r, err := req.Post(c.url("reset"))
	if err != nil {
		return err
	}
	return checkStatus(r, http.StatusOK)
}
