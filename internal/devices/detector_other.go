//go:build !linux || !cgo

package devices

import "context"

// Mock adapters for development on machines without i2c-dev.
var mockAdapters = []AdapterInfo{
	{
		Path:    "/dev/i2c-1",
		Sysname: "i2c-1",
		Name:    "mock i2c adapter",
	},
}

type mockDetector struct{}

func newDetector() AdapterDetector {
	return &mockDetector{}
}

func (d *mockDetector) FindAdapters() ([]AdapterInfo, error) {
	return mockAdapters, nil
}

func (d *mockDetector) FindAdapterByName(substr string) (AdapterInfo, error) {
	for _, a := range mockAdapters {
		if containsFold(a.Name, substr) {
			return a, nil
		}
	}
	return mockAdapters[0], nil
}

func (d *mockDetector) StartMonitoring(ctx context.Context, onChange WatchFunc) error {
	// Nothing ever changes in the mock world.
	return nil
}

func (d *mockDetector) StopMonitoring() {}
