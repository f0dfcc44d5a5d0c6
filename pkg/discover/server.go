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
	"context"
	"net"
	"os"

	"github.com/hashicorp/mdns"

	"jinr.ru/greenlab/go-sedis/pkg/config"
	"jinr.ru/greenlab/go-sedis/pkg/log"
)

const (
	// TxtApiPath tells clients where the control API lives
	TxtApiPath = "path=/api"
)

// Server advertises the control API of a go-sedis instance over mDNS
type Server struct {
	*config.ApiConfig
	instance string
	station  string
}

func NewServer(cfg *config.Config) (*Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, err
	}
	return &Server{
		ApiConfig: cfg.Api,
		instance:  host,
		station:   cfg.Station.Network + "." + cfg.Station.Station,
	}, nil
}

// Run answers mDNS queries until the context is done
func (s *Server) Run(ctx context.Context) error {
	ips, err := s.ips()
	if err != nil {
		return ErrAdvertise{Err: err}
	}

	service, err := mdns.NewMDNSService(
		s.instance,
		config.MDNSServiceName,
		"",
		"",
		s.Port,
		ips,
		[]string{TxtApiPath, "station=" + s.station},
	)
	if err != nil {
		return ErrAdvertise{Err: err}
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return ErrAdvertise{Err: err}
	}
	log.Info("Advertising %s on port %d as %s", config.MDNSServiceName, s.Port, s.instance)

	<-ctx.Done()
	server.Shutdown()
	return ctx.Err()
}

// ips returns the bound address or, for a wildcard address, every
// non loopback IPv4 address of the host
func (s *Server) ips() ([]net.IP, error) {
	ip := net.ParseIP(s.Address)
	if ip != nil && !ip.IsUnspecified() {
		return []net.IP{ip}, nil
	}

	var ips []net.IP
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}
	return ips, nil
}
