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
	"net"
	"testing"

	"github.com/hashicorp/mdns"

	"jinr.ru/greenlab/go-sedis/pkg/config"
)

func TestNewInstance(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "vault-1._sedis._tcp.local.",
		AddrV4:     net.ParseIP("10.0.0.7"),
		Port:       8000,
		InfoFields: []string{TxtApiPath, "station=XX.SEDIS"},
	}
	instance, ok := NewInstance(entry)
	if !ok {
		t.Fatal("entry skipped")
	}
	if instance.Name != "vault-1" || instance.Station != "XX.SEDIS" {
		t.Fatalf("got %+v", instance)
	}
	if instance.URL() != "http://10.0.0.7:8000" {
		t.Fatalf("url %s", instance.URL())
	}

	if _, ok := NewInstance(&mdns.ServiceEntry{Name: "v6only"}); ok {
		t.Fatal("entry without IPv4 address accepted")
	}
}

func TestServer_IPs(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Api.Address = "192.168.1.20"
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ips, err := s.ips()
	if err != nil {
		t.Fatal(err)
	}
	if len(ips) != 1 || !ips[0].Equal(net.ParseIP("192.168.1.20")) {
		t.Fatalf("got %v", ips)
	}
}
