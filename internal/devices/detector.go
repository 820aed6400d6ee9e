// Package devices discovers I²C adapters the sensor module can be
// attached to, and watches for adapters appearing or disappearing (for
// example when a device-tree overlay is loaded).
package devices

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// AdapterInfo describes one I²C adapter exposed through i2c-dev.
type AdapterInfo struct {
	// Path is the character device node, e.g. /dev/i2c-1.
	Path string
	// Sysname is the kernel name, e.g. i2c-1.
	Sysname string
	// Name is the adapter description from sysfs, e.g. "bcm2835 (i2c@7e804000)".
	Name string
}

// WatchFunc receives adapter hotplug notifications. Action is "add" or
// "remove".
type WatchFunc func(action string, adapter AdapterInfo)

// AdapterDetector provides platform-specific adapter discovery.
type AdapterDetector interface {
	// FindAdapters returns all currently available I²C adapters.
	FindAdapters() ([]AdapterInfo, error)

	// FindAdapterByName returns the first adapter whose description
	// contains the given substring.
	FindAdapterByName(substr string) (AdapterInfo, error)

	// StartMonitoring starts watching for adapter changes.
	StartMonitoring(ctx context.Context, onChange WatchFunc) error

	// StopMonitoring stops the watcher.
	StopMonitoring()
}

// NewDetector creates a platform-specific adapter detector.
func NewDetector() AdapterDetector {
	return newDetector()
}

// ResolveAdapterRef turns a user-supplied adapter reference into a
// device path. Accepted forms: a full path (/dev/i2c-1), a kernel name
// (i2c-1), or a bare bus number (1). Name substrings are resolved
// through the detector instead.
func ResolveAdapterRef(ref string) (string, error) {
	if strings.HasPrefix(ref, "/dev/") {
		return ref, nil
	}
	if strings.HasPrefix(ref, "i2c-") {
		return "/dev/" + ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 0 {
		return fmt.Sprintf("/dev/i2c-%d", n), nil
	}
	return "", fmt.Errorf("unrecognized adapter reference: %q", ref)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
