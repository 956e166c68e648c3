// Package discovery advertises a running FTM daemon on the local
// network via mDNS/DNS-SD, so a slicer or host application can find it
// without static host/port configuration.
package discovery

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
)

// Service describes one daemon instance to advertise.
type Service struct {
	Name string // instance name, e.g. the machine's hostname
	Port int    // TCP port the control API listens on
	Host string // host IP or name; empty lets dnssd pick

	responder dnssd.Responder
	cancel    context.CancelFunc
}

// Advertise registers "_ftmotion._tcp" on the local network and starts
// responding to queries in the background until ctx is cancelled or
// Shutdown is called.
func Advertise(ctx context.Context, svc *Service) error {
	cfg := dnssd.Config{
		Name: svc.Name,
		Type: "_ftmotion._tcp",
		Port: svc.Port,
		Host: svc.Host,
	}

	entry, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("discovery: build service record: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("discovery: new responder: %w", err)
	}

	if _, err := responder.Add(entry); err != nil {
		return fmt.Errorf("discovery: register service: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	svc.responder = responder
	svc.cancel = cancel

	go func() {
		_ = responder.Respond(runCtx)
	}()

	return nil
}

// Shutdown stops responding and withdraws the service record.
func (svc *Service) Shutdown() {
	if svc.cancel != nil {
		svc.cancel()
	}
}
