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
	"fmt"
	"io"
	"os"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/log"
	"jinr.ru/greenlab/go-sedis/pkg/mseed"
	"jinr.ru/greenlab/go-sedis/pkg/srv/ingest"
)

// Convert replays a raw capture of the logger stream through the pipeline
func Convert(cfg *config.Config, capture io.Reader) (ingest.Stats, error) {
	pipeline, err := ingest.NewPipelineFromConfig(cfg, log.LogSink)
	if err != nil {
		return ingest.Stats{}, err
	}
	buf := make([]byte, config.DefaultReadBufferSize)
	_, err = io.CopyBuffer(pipeline, capture, buf)
	stats := pipeline.Stats()
	if closeErr := pipeline.Close(); err == nil {
		err = closeErr
	}
	if stats.Buffered > 0 {
		log.Warning("%d bytes of an incomplete frame left at the end of the capture", stats.Buffered)
	}
	return stats, err
}

// ConvertFile is Convert for a capture file
func ConvertFile(cfg *config.Config, path string) (ingest.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingest.Stats{}, err
	}
	defer f.Close()
	log.Info("Converting %s", path)
	return Convert(cfg, f)
}

// Inspect prints one line per miniSEED record, with samples when verbose
func Inspect(in io.Reader, out io.Writer, verbose bool) error {
	records, err := mseed.ReadAll(in)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(out, "%06d %c %s %s %d samples %g Hz %s %d bytes\n",
			r.Sequence, r.Quality, r.SourceName(), r.Start, r.NumSamples,
			r.SampleRate(), r.Encoding, r.RecordLength)
		if !verbose {
			continue
		}
		samples, err := r.Samples()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %v\n", samples)
	}
	return nil
}
