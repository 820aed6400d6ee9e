//go:build linux && cgo

package devices

import (
	"context"
	"fmt"
	"sync"

	"github.com/jochenvg/go-udev"

	"github.com/smazurov/sensornode/internal/logging"
)

type linuxDetector struct {
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	logger interface {
		Debug(msg string, args ...any)
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
		Error(msg string, args ...any)
	}
}

func newDetector() AdapterDetector {
	return &linuxDetector{
		logger: logging.GetLogger("devices"),
	}
}

// FindAdapters enumerates i2c-dev nodes through udev.
func (d *linuxDetector) FindAdapters() ([]AdapterInfo, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("i2c-dev"); err != nil {
		return nil, fmt.Errorf("udev enumerate filter: %w", err)
	}

	udevDevices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("udev enumerate: %w", err)
	}

	adapters := make([]AdapterInfo, 0, len(udevDevices))
	for _, dev := range udevDevices {
		info := adapterFromDevice(dev)
		if info.Path == "" {
			continue
		}
		adapters = append(adapters, info)
	}
	return adapters, nil
}

// FindAdapterByName returns the first adapter whose description contains
// the given substring.
func (d *linuxDetector) FindAdapterByName(substr string) (AdapterInfo, error) {
	adapters, err := d.FindAdapters()
	if err != nil {
		return AdapterInfo{}, err
	}
	for _, a := range adapters {
		if containsFold(a.Name, substr) {
			return a, nil
		}
	}
	return AdapterInfo{}, fmt.Errorf("no adapter matching %q", substr)
}

func adapterFromDevice(dev *udev.Device) AdapterInfo {
	return AdapterInfo{
		Path:    dev.Devnode(),
		Sysname: dev.Sysname(),
		Name:    dev.SysattrValue("name"),
	}
}

// StartMonitoring watches the udev netlink socket for i2c-dev nodes
// coming and going.
func (d *linuxDetector) StartMonitoring(ctx context.Context, onChange WatchFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ctx, d.cancel = context.WithCancel(ctx)

	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return fmt.Errorf("failed to create udev monitor")
	}

	deviceCh, errCh, err := mon.DeviceChan(d.ctx)
	if err != nil {
		return fmt.Errorf("failed to get udev device channel: %w", err)
	}

	go func() {
		for err := range errCh {
			d.logger.Error("udev monitor error", "error", err)
		}
	}()

	go func() {
		d.logger.Info("udev monitoring started for i2c adapters")
		for {
			select {
			case <-d.ctx.Done():
				d.logger.Info("udev monitor stopped")
				return
			case dev, ok := <-deviceCh:
				if !ok {
					d.logger.Info("udev device channel closed")
					return
				}
				if dev.Subsystem() != "i2c-dev" {
					continue
				}

				action := dev.Action()
				if action != "add" && action != "remove" {
					continue
				}
				info := adapterFromDevice(dev)
				d.logger.Info("i2c adapter event",
					"action", action, "path", info.Path, "name", info.Name)
				onChange(action, info)
			}
		}
	}()

	return nil
}

// StopMonitoring stops the udev watcher.
func (d *linuxDetector) StopMonitoring() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
}
