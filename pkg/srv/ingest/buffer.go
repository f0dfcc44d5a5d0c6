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

const initialBufferSize = 4096

// buffer keeps capacity (len(data)) and the unread window [off, n) apart.
// Dropping bytes only moves off; the window is shifted to the front when an
// append does not fit and at least as many bytes were dropped as remain,
// otherwise the capacity is doubled.
type buffer struct {
	data []byte
	off  int
	n    int
}

func (b *buffer) append(p []byte) {
	if b.n+len(p) > len(b.data) {
		need := b.len() + len(p)
		if b.off >= b.len() && need <= len(b.data) {
			b.compact()
		} else {
			size := 2 * len(b.data)
			if size == 0 {
				size = initialBufferSize
			}
			for size < need {
				size *= 2
			}
			data := make([]byte, size)
			b.n = copy(data, b.bytes())
			b.off = 0
			b.data = data
		}
	}
	b.n += copy(b.data[b.n:], p)
}

func (b *buffer) bytes() []byte {
	return b.data[b.off:b.n]
}

func (b *buffer) len() int {
	return b.n - b.off
}

// discard drops the first k unread bytes
func (b *buffer) discard(k int) {
	b.off += k
	if b.off == b.n {
		b.off, b.n = 0, 0
	}
}

// compact moves the unread bytes to the front
func (b *buffer) compact() {
	b.n = copy(b.data, b.bytes())
	b.off = 0
}

func (b *buffer) reset() {
	b.off, b.n = 0, 0
}
