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
	"encoding/binary"
	"errors"
	"io"

	"github.com/google/gopacket"
)

// Reader reads consecutive records from a stream
type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record or io.EOF at a clean end of stream
func (rd *Reader) Next() (*Record, error) {
	head := make([]byte, DataOffset)
	if _, err := io.ReadFull(rd.r, head); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadRecord{What: "truncated record header"}
		}
		return nil, err
	}
	length, err := peekRecordLength(head)
	if err != nil {
		return nil, err
	}
	data := make([]byte, length)
	copy(data, head)
	if _, err := io.ReadFull(rd.r, data[DataOffset:]); err != nil {
		return nil, ErrBadRecord{What: "truncated record data"}
	}

	packet := gopacket.NewPacket(data, RecordLayerType, gopacket.DecodeOptions{NoCopy: true})
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, errLayer.Error()
	}
	record, ok := packet.Layer(RecordLayerType).(*Record)
	if !ok {
		return nil, ErrBadRecord{What: "record layer missing"}
	}
	return record, nil
}

// peekRecordLength expects blockette 1000 right after the fixed header,
// which is where Packer and most writers put it.
func peekRecordLength(head []byte) (int, error) {
	first := int(binary.BigEndian.Uint16(head[46:48]))
	if first != FixedHeaderLength || binary.BigEndian.Uint16(head[48:50]) != Blockette1000Type {
		return 0, ErrBadRecord{What: "blockette 1000 does not follow the fixed header"}
	}
	length := 1 << head[54]
	if length < MinRecordLength || length > MaxRecordLength {
		return 0, ErrRecordLength{Length: length}
	}
	return length, nil
}

// ReadAll reads every record of the stream
func ReadAll(r io.Reader) ([]*Record, error) {
	rd := NewReader(r)
	var records []*Record
	for {
		record, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}
