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

package layers

import (
	"fmt"
)

// ErrMalformedFrame returned when a frame is shorter than the length its header declares
type ErrMalformedFrame struct {
	Declared int
	Actual   int
}

func (e ErrMalformedFrame) Error() string {
	return fmt.Sprintf("Malformed SEDIS frame: declared length %d, got %d bytes", e.Declared, e.Actual)
}

// ErrInvalidHeaderField returned when the header is present but internally inconsistent
type ErrInvalidHeaderField struct {
	Field string
	What  string
}

func (e ErrInvalidHeaderField) Error() string {
	return fmt.Sprintf("Invalid SEDIS header field %s: %s", e.Field, e.What)
}
