// Package hotplug watches udev for USB stepper-board attach/detach
// events, so a daemon can (re)bind its gpio/serial resources as boards
// come and go instead of requiring a fixed device path at startup.
package hotplug

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// Event reports one board attach or detach.
type Event struct {
	Action  string // "add" or "remove"
	DevPath string
	DevNode string
	Vendor  string
	Product string
}

// Watcher streams Event values for devices in the "tty" subsystem,
// which is where USB-serial stepper boards (e.g. an RP2040 running
// TinyUSB CDC) show up.
type Watcher struct {
	events chan Event
	cancel context.CancelFunc
}

// Watch starts monitoring udev for tty subsystem changes matching
// vendorFilter/productFilter (either may be empty to match anything).
func Watch(ctx context.Context, vendorFilter, productFilter string) (*Watcher, error) {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return nil, fmt.Errorf("hotplug: failed to create udev monitor")
	}
	if err := mon.FilterAddMatchSubsystem("tty"); err != nil {
		return nil, fmt.Errorf("hotplug: filter subsystem: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	deviceChan, errChan, err := mon.DeviceChan(runCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("hotplug: start monitor: %w", err)
	}

	w := &Watcher{events: make(chan Event, 16), cancel: cancel}

	go func() {
		defer close(w.events)
		for {
			select {
			case <-runCtx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				_ = err // surfaced only as a dropped event; the caller watches Events()
			case dev, ok := <-deviceChan:
				if !ok {
					return
				}
				vendor := dev.PropertyValue("ID_VENDOR_ID")
				product := dev.PropertyValue("ID_MODEL_ID")
				if vendorFilter != "" && vendor != vendorFilter {
					continue
				}
				if productFilter != "" && product != productFilter {
					continue
				}
				w.events <- Event{
					Action:  dev.Action(),
					DevPath: dev.Syspath(),
					DevNode: dev.Devnode(),
					Vendor:  vendor,
					Product: product,
				}
			}
		}
	}()

	return w, nil
}

// Events returns the channel of hotplug events. It is closed once the
// watcher's context is cancelled.
func (w *Watcher) Events() <-chan Event { return w.events }

// Close stops the watcher.
func (w *Watcher) Close() {
	w.cancel()
}
