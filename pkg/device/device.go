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

package device

const (
	// MaxAutoSeconds is the longest interval of the logger auto mode, one day
	MaxAutoSeconds = 86400
)

// AutoInterval converts the time between blocks requested by the user to
// the argument of the logger auto mode. Intervals above one second are sent
// in whole seconds. Shorter ones select one of the fixed sub second modes
// 5, 4, 3, 2 and 1 Hz, encoded as negative numbers.
func AutoInterval(ms int) int {
	if ms > 1000 {
		seconds := ms / 1000
		if seconds > MaxAutoSeconds {
			seconds = MaxAutoSeconds
		}
		return seconds
	}
	switch {
	case ms <= 200:
		return -5
	case ms <= 250:
		return -4
	case ms <= 334:
		return -3
	case ms <= 500:
		return -2
	default:
		return -1
	}
}
