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

package ifc

import (
	"time"
)

type Device interface {
	// Read returns raw stream bytes. A read timeout is not an error, it
	// returns 0 bytes.
	Read(p []byte) (int, error)

	SendAuto(interval int) error

	Enq() (string, error)
	About() (string, error)
	Range() (string, error)
	Time() (time.Time, error)

	SetTime(t time.Time) error
	SetRange(center int) (string, error)
	SetStandBy(standBy bool) (bool, error)

	Close() error
}
