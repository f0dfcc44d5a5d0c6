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

package discover

import (
	"fmt"
)

// ErrAdvertise returned when the mDNS responder can not be started
type ErrAdvertise struct {
	Err error
}

func (e ErrAdvertise) Error() string {
	return fmt.Sprintf("Error while advertising the API: %s", e.Err)
}

func (e ErrAdvertise) Unwrap() error {
	return e.Err
}

// ErrBrowse returned when the mDNS query fails
type ErrBrowse struct {
	Err error
}

func (e ErrBrowse) Error() string {
	return fmt.Sprintf("Error while browsing for servers: %s", e.Err)
}

func (e ErrBrowse) Unwrap() error {
	return e.Err
}
