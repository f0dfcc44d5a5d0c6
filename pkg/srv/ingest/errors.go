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
)

// ErrChannelTable returned when the channel name table does not have an entry per channel
type ErrChannelTable struct {
	Entries int
}

func (e ErrChannelTable) Error() string {
	return fmt.Sprintf("Channel name table must have 6 entries, got %d", e.Entries)
}

// ErrEncoder returned when the archival encoder fails on a channel
type ErrEncoder struct {
	Channel string
	Err     error
}

func (e ErrEncoder) Error() string {
	return fmt.Sprintf("Error while encoding channel %s: %s", e.Channel, e.Err)
}

func (e ErrEncoder) Unwrap() error {
	return e.Err
}

// ErrFileSystem returned when an output file can not be opened, written or closed
type ErrFileSystem struct {
	Op   string
	Path string
	Err  error
}

func (e ErrFileSystem) Error() string {
	return fmt.Sprintf("Error while trying to %s %s: %s", e.Op, e.Path, e.Err)
}

func (e ErrFileSystem) Unwrap() error {
	return e.Err
}
