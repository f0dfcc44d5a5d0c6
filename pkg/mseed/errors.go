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

package mseed

import (
	"fmt"
)

// ErrSampleRate returned when a sample rate can not be expressed in a record header
type ErrSampleRate struct {
	Rate float64
}

func (e ErrSampleRate) Error() string {
	return fmt.Sprintf("Sample rate out of range: %g", e.Rate)
}

// ErrRecordLength returned for record lengths that are not a power of two in [256, 65536]
type ErrRecordLength struct {
	Length int
}

func (e ErrRecordLength) Error() string {
	return fmt.Sprintf("Invalid record length %d, must be a power of two between %d and %d",
		e.Length, MinRecordLength, MaxRecordLength)
}

// ErrEncoding returned for unsupported data encodings
type ErrEncoding struct {
	Encoding Encoding
}

func (e ErrEncoding) Error() string {
	return fmt.Sprintf("Unsupported data encoding: %d", e.Encoding)
}

// ErrSourceName returned when a network, station, location or channel code is too long
type ErrSourceName struct {
	Field string
	Value string
	Max   int
}

func (e ErrSourceName) Error() string {
	return fmt.Sprintf("%s code %q longer than %d characters", e.Field, e.Value, e.Max)
}

// ErrBadRecord returned by the reader for records it can not interpret
type ErrBadRecord struct {
	What string
}

func (e ErrBadRecord) Error() string {
	return fmt.Sprintf("Bad miniSEED record: %s", e.What)
}
