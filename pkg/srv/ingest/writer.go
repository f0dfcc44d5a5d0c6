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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/log"
)

type RotationMode int

const (
	// SingleFile appends every frame to one file opened once per run
	SingleFile RotationMode = iota
	// MultiFile writes every frame to a new file base-index.ext
	MultiFile
)

func ParseRotationMode(mode string) (RotationMode, error) {
	switch mode {
	case config.OutputModeSingle:
		return SingleFile, nil
	case config.OutputModeMulti:
		return MultiFile, nil
	default:
		return SingleFile, fmt.Errorf("Unknown output mode %q", mode)
	}
}

func (m RotationMode) String() string {
	if m == MultiFile {
		return config.OutputModeMulti
	}
	return config.OutputModeSingle
}

// Rotator hands out the output file for every transcoded frame
type Rotator struct {
	dir   string
	base  string
	ext   string
	mode  RotationMode
	index int
	file  *os.File
	path  string
}

func NewRotator(dir, base, ext string, mode RotationMode) *Rotator {
	if ext == "" {
		ext = config.DefaultOutputExt
	}
	return &Rotator{
		dir:  dir,
		base: base,
		ext:  ext,
		mode: mode,
	}
}

func (r *Rotator) Mode() RotationMode {
	return r.mode
}

// Path is the file written by the current or last frame
func (r *Rotator) Path() string {
	return r.path
}

// Index is the number of the last multi file, 0 before the first frame
func (r *Rotator) Index() int {
	return r.index
}

// Open returns the writer for the next frame
func (r *Rotator) Open() (io.Writer, error) {
	if r.mode == SingleFile && r.file != nil {
		return r.file, nil
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, ErrFileSystem{Op: "create directory", Path: r.dir, Err: err}
	}

	var err error
	switch r.mode {
	case MultiFile:
		r.index++
		r.path = filepath.Join(r.dir, fmt.Sprintf("%s-%d.%s", r.base, r.index, r.ext))
		r.file, err = os.Create(r.path)
	default:
		r.path = filepath.Join(r.dir, fmt.Sprintf("%s.%s", r.base, r.ext))
		r.file, err = os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	}
	if err != nil {
		r.file = nil
		return nil, ErrFileSystem{Op: "open", Path: r.path, Err: err}
	}
	log.Debug("Opened output file %s", r.path)
	return r.file, nil
}

// Finish ends the frame. Multi files are closed, the single file stays open.
func (r *Rotator) Finish() error {
	if r.mode == MultiFile {
		return r.Close()
	}
	return nil
}

// Reset starts multi file numbering from 1 again
func (r *Rotator) Reset() {
	r.index = 0
}

// Close syncs and closes the open file if any
func (r *Rotator) Close() error {
	if r.file == nil {
		return nil
	}
	file := r.file
	r.file = nil
	if err := file.Sync(); err != nil {
		file.Close()
		return ErrFileSystem{Op: "sync", Path: r.path, Err: err}
	}
	if err := file.Close(); err != nil {
		return ErrFileSystem{Op: "close", Path: r.path, Err: err}
	}
	log.Debug("Closed output file %s", r.path)
	return nil
}
