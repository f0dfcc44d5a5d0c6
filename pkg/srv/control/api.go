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

// go-sedis API
//
// # RESTful APIs to interact with go-sedis runner
//
// Terms Of Service:
//
// Schemes: http
// Host: localhost:8000
// Version: 1.0.0
// Contact:
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package control

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/log"
	"jinr.ru/greenlab/go-sedis/pkg/srv/control/ifc"
)

//go:embed swagger.json
var swaggerJSON []byte

const shutdownTimeout = 5 * time.Second

// Success response
// swagger:response okResp
type RespOk struct {
	// in:body
	Body struct {
		// HTTP status code 200 - OK
		Code int `json:"code"`
	}
}

// Command accepted
// swagger:response queuedResp
type RespQueued struct {
	// in:body
	Body struct {
		Command string `json:"command"`
	}
}

type ApiServer struct {
	*config.ApiConfig
	*mux.Router
	runner            *Runner
	hub               *Hub
	doc               *loads.Document
	defaultIntervalMs int
}

var _ ifc.ApiServer = &ApiServer{}

// NewApiServer builds the router. hub may be nil, then /api/events is not served.
func NewApiServer(cfg *config.Config, runner *Runner, hub *Hub) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.Api.Address, cfg.Api.Port)

	doc, err := loads.Analyzed(json.RawMessage(swaggerJSON), "")
	if err != nil {
		return nil, fmt.Errorf("Error while loading API document: %w", err)
	}

	s := &ApiServer{
		ApiConfig:         cfg.Api,
		runner:            runner,
		hub:               hub,
		doc:               doc,
		defaultIntervalMs: cfg.RunIntervalMs,
	}
	s.configureRouter()
	return s, nil
}

// Handler is the router wrapped with logging and panic recovery
func (s *ApiServer) Handler() http.Handler {
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.LoggingHandler(log.Writer(), s.Router))
}

// Run serves the API until the context is done
func (s *ApiServer) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Address, s.Port)
	log.Info("Starting API server: address: %s", addr)
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    addr,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if s.hub != nil {
			s.hub.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation POST /run run
	// ---
	// summary: start auto mode
	// description: intervalMs defaults to the configured run interval
	// responses:
	//   "202":
	//     "$ref": "#/responses/queuedResp"
	//   "400":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/run", s.handleRun()).Methods("POST")
	// swagger:operation POST /stop stop
	// ---
	// summary: stop auto mode
	// responses:
	//   "202":
	//     "$ref": "#/responses/queuedResp"
	subRouter.HandleFunc("/stop", s.handleCommand(func() Command { return StopCommand{} })).Methods("POST")
	// swagger:operation POST /status status
	// ---
	// summary: query the logger state
	// responses:
	//   "202":
	//     "$ref": "#/responses/queuedResp"
	subRouter.HandleFunc("/status", s.handleCommand(func() Command { return UpdateStatusCommand{} })).Methods("POST")
	subRouter.HandleFunc("/status", s.handleStatus()).Methods("GET")
	subRouter.HandleFunc("/runs", s.handleRuns()).Methods("GET")
	subRouter.HandleFunc("/time", s.handleSetTime()).Methods("POST")
	subRouter.HandleFunc("/range", s.handleSetRange()).Methods("POST")
	subRouter.HandleFunc("/standby", s.handleSetStandBy()).Methods("POST")
	// swagger:operation POST /reset reset
	// ---
	// summary: drop partially received data and restart file numbering
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	subRouter.HandleFunc("/reset", s.handleReset()).Methods("POST")
	if s.hub != nil {
		subRouter.Handle("/events", s.hub).Methods("GET")
	}
	s.Router.HandleFunc("/swagger.json", s.handleSwagger()).Methods("GET")
	s.Router.PathPrefix("/docs").Handler(middleware.Redoc(middleware.RedocOpts{
		BasePath: "/",
		Path:     "docs",
		SpecURL:  "/swagger.json",
		Title:    "go-sedis API",
	}, http.NotFoundHandler())).Methods("GET")
}

// decodeBody decodes an optional JSON body
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *ApiServer) submit(w http.ResponseWriter, cmd Command) {
	if err := s.runner.Submit(cmd); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	resp := RespQueued{}
	resp.Body.Command = cmd.String()
	writeJSON(w, http.StatusAccepted, resp.Body)
}

func (s *ApiServer) handleCommand(newCommand func() Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := newCommand()
		log.Debug("Handling command request: %s", cmd)
		s.submit(w, cmd)
	}
}

func (s *ApiServer) handleRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := RunCommand{}
		if err := decodeBody(r, &cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if cmd.IntervalMs == 0 {
			cmd.IntervalMs = s.defaultIntervalMs
		}
		if cmd.IntervalMs < 0 {
			err := ErrInvalidCommand{What: fmt.Sprintf("interval must be positive, got %d ms", cmd.IntervalMs)}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling run request: interval: %d ms", cmd.IntervalMs)
		s.submit(w, cmd)
	}
}

func (s *ApiServer) handleSetTime() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := SetTimeCommand{}
		if err := decodeBody(r, &cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if cmd.Time.IsZero() {
			cmd.Time = time.Now().UTC()
		}
		s.submit(w, cmd)
	}
}

func (s *ApiServer) handleSetRange() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := SetRangeCommand{}
		if err := decodeBody(r, &cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.submit(w, cmd)
	}
}

func (s *ApiServer) handleSetStandBy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := SetStandByCommand{}
		if err := decodeBody(r, &cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.submit(w, cmd)
	}
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.runner.Status())
	}
}

func (s *ApiServer) handleRuns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := s.runner.Runs()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []*Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func (s *ApiServer) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling reset request")
		s.runner.Reset()
		resp := RespOk{}
		resp.Body.Code = http.StatusOK
		writeJSON(w, http.StatusOK, resp.Body)
	}
}

func (s *ApiServer) handleSwagger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.doc.Raw())
	}
}
