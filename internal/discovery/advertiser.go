package discovery

import (
	"fmt"
	"net"

	"github.com/hashicorp/mdns"
)

// serviceType is the mDNS service speakers and the control app browse
// for when locating the control plane.
const serviceType = "_soundbridge._tcp"

// Logger defines the logging interface used by the Advertiser.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds advertisement settings.
type Config struct {
	// InstanceName is the human-readable service instance name.
	InstanceName string

	// Port is the API port being advertised.
	Port int
}

// Advertiser announces the control plane on the local network via mDNS
// so speakers find it without the vendor's DNS.
type Advertiser struct {
	config Config
	server *mdns.Server
	logger Logger
}

// NewAdvertiser creates an advertiser. Call Start to begin announcing.
func NewAdvertiser(config Config) *Advertiser {
	return &Advertiser{config: config, logger: noopLogger{}}
}

// SetLogger sets the logger for the advertiser.
func (a *Advertiser) SetLogger(logger Logger) {
	a.logger = logger
}

// Start begins mDNS advertisement on all local interfaces.
func (a *Advertiser) Start() error {
	ips, err := localIPs()
	if err != nil {
		return fmt.Errorf("resolving local addresses: %w", err)
	}

	service, err := mdns.NewMDNSService(
		a.config.InstanceName,
		serviceType,
		"",
		"",
		a.config.Port,
		ips,
		[]string{"path=/api/v1"},
	)
	if err != nil {
		return fmt.Errorf("creating mdns service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("starting mdns server: %w", err)
	}
	a.server = server

	a.logger.Info("mdns advertisement started",
		"instance", a.config.InstanceName, "type", serviceType, "port", a.config.Port)
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	if a.server == nil {
		return
	}
	if err := a.server.Shutdown(); err != nil {
		a.logger.Warn("mdns shutdown failed", "error", err)
	}
	a.server = nil
}

// localIPs returns the non-loopback unicast addresses to advertise.
func localIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ipNet.IP.To4() != nil {
			ips = append(ips, ipNet.IP)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no usable network interfaces")
	}
	return ips, nil
}
