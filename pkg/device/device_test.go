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

import "testing"

func TestAutoInterval(t *testing.T) {
	cases := []struct {
		ms   int
		want int
	}{
		{1, -5},
		{200, -5},
		{201, -4},
		{250, -4},
		{334, -3},
		{335, -2},
		{500, -2},
		{501, -1},
		{1000, -1},
		{1001, 1},
		{60500, 60},
		{86400 * 1000, 86400},
		{200000 * 1000, 86400},
	}
	for _, c := range cases {
		if got := AutoInterval(c.ms); got != c.want {
			t.Errorf("AutoInterval(%d) = %d, want %d", c.ms, got, c.want)
		}
	}
}
