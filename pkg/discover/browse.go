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
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/log"
)

// Instance is a go-sedis server found on the local network
type Instance struct {
	Name    string
	Host    string
	Port    int
	Station string
}

func (i *Instance) URL() string {
	return fmt.Sprintf("http://%s:%d", i.Host, i.Port)
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s station: %s url: %s\n", i.Name, i.Station, i.URL())
}

// NewInstance converts an mDNS answer, entries without an IPv4 address are skipped
func NewInstance(entry *mdns.ServiceEntry) (*Instance, bool) {
	if entry.AddrV4 == nil {
		return nil, false
	}
	instance := &Instance{
		Name: strings.TrimSuffix(entry.Name, "."+config.MDNSServiceName+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
	}
	for _, field := range entry.InfoFields {
		if strings.HasPrefix(field, "station=") {
			instance.Station = strings.TrimPrefix(field, "station=")
		}
	}
	return instance, true
}

// Browse queries the network for go-sedis servers for the given time
func Browse(timeout time.Duration) ([]*Instance, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	var instances []*Instance
	done := make(chan struct{})
	go func() {
		defer close(done)
		seen := map[string]bool{}
		for entry := range entries {
			instance, ok := NewInstance(entry)
			if !ok || seen[instance.URL()] {
				continue
			}
			seen[instance.URL()] = true
			log.Debug("Discovered server: %s", instance)
			instances = append(instances, instance)
		}
	}()

	params := mdns.DefaultParams(config.MDNSServiceName)
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return nil, ErrBrowse{Err: err}
	}
	return instances, nil
}
