package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// presetTOML renders a presets file with a single "night" preset whose
// exposure value identifies the revision a handler observed.
func presetTOML(exposure int64) []byte {
	return fmt.Appendf(nil, `version = 1

[presets.night]
name = "night"

[presets.night.controls]
exposure = %d
`, exposure)
}

func exposureOf(cfg PresetsConfig) int64 {
	return cfg.Presets["night"].Controls["exposure"]
}

func writePresetFile(t *testing.T, path string, exposure int64) {
	t.Helper()
	if err := os.WriteFile(path, presetTOML(exposure), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPresetWatcher_BasicReload(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "presets_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(presetTOML(1))
	tmpFile.Close()

	received := make(chan PresetsConfig, 1)
	watcher := NewConfigWatcher(
		tmpFile.Name(),
		LoadPresets,
		newTestLogger(),
		WithDebounce[PresetsConfig](50*time.Millisecond),
	)

	watcher.OnReload(func(cfg PresetsConfig) {
		received <- cfg
	})

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer func() {
		if stopErr := watcher.Stop(); stopErr != nil {
			t.Errorf("watcher.Stop failed: %v", stopErr)
		}
	}()

	// Wait for watcher to initialize
	time.Sleep(100 * time.Millisecond)

	writePresetFile(t, tmpFile.Name(), 42)

	select {
	case cfg := <-received:
		preset, ok := cfg.Presets["night"]
		if !ok {
			t.Fatalf("reloaded config has no night preset: %+v", cfg)
		}
		if preset.Controls["exposure"] != 42 {
			t.Errorf("exposure = %d, want 42", preset.Controls["exposure"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for preset reload")
	}
}

func TestPresetWatcher_FreshLoad(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "presets_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(presetTOML(1))
	tmpFile.Close()

	var loadCount atomic.Int32
	loader := func(path string) (PresetsConfig, error) {
		loadCount.Add(1)
		return LoadPresets(path)
	}

	received := make(chan PresetsConfig, 10)
	watcher := NewConfigWatcher(
		tmpFile.Name(),
		loader,
		newTestLogger(),
		WithDebounce[PresetsConfig](50*time.Millisecond),
	)

	watcher.OnReload(func(cfg PresetsConfig) {
		received <- cfg
	})

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer func() {
		if stopErr := watcher.Stop(); stopErr != nil {
			t.Errorf("watcher.Stop failed: %v", stopErr)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	// First change
	writePresetFile(t, tmpFile.Name(), 10)
	<-received

	// Second change
	time.Sleep(100 * time.Millisecond)
	writePresetFile(t, tmpFile.Name(), 20)
	cfg := <-received

	// Verify latest file content was loaded, not a cached snapshot
	if got := exposureOf(cfg); got != 20 {
		t.Errorf("expected exposure=20, got %d", got)
	}

	// Verify loader was called for each change
	if got := loadCount.Load(); got < 2 {
		t.Errorf("expected at least 2 loads, got %d", got)
	}
}

func TestPresetWatcher_MultipleHandlers(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "presets_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(presetTOML(1))
	tmpFile.Close()

	var count atomic.Int32
	var configs []PresetsConfig
	var mu sync.Mutex

	watcher := NewConfigWatcher(
		tmpFile.Name(),
		LoadPresets,
		newTestLogger(),
		WithDebounce[PresetsConfig](50*time.Millisecond),
	)

	// Register 3 handlers
	for range 3 {
		watcher.OnReload(func(cfg PresetsConfig) {
			count.Add(1)
			mu.Lock()
			configs = append(configs, cfg)
			mu.Unlock()
		})
	}

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer func() {
		if stopErr := watcher.Stop(); stopErr != nil {
			t.Errorf("watcher.Stop failed: %v", stopErr)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	writePresetFile(t, tmpFile.Name(), 2)

	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 3 {
		t.Errorf("expected 3 handlers called, got %d", got)
	}

	// Verify all handlers received the same snapshot
	mu.Lock()
	defer mu.Unlock()
	for i, cfg := range configs {
		if got := exposureOf(cfg); got != 2 {
			t.Errorf("handler %d got wrong config: exposure=%d", i, got)
		}
	}
}

func TestPresetWatcher_Unsubscribe(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "presets_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(presetTOML(1))
	tmpFile.Close()

	var count1, count2 atomic.Int32
	var lastValue1, lastValue2 atomic.Int64
	watcher := NewConfigWatcher(
		tmpFile.Name(),
		LoadPresets,
		newTestLogger(),
		WithDebounce[PresetsConfig](50*time.Millisecond),
	)

	watcher.OnReload(func(cfg PresetsConfig) {
		lastValue1.Store(exposureOf(cfg))
		count1.Add(1)
	})
	unsub2 := watcher.OnReload(func(cfg PresetsConfig) {
		lastValue2.Store(exposureOf(cfg))
		count2.Add(1)
	})

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer func() {
		if stopErr := watcher.Stop(); stopErr != nil {
			t.Errorf("watcher.Stop failed: %v", stopErr)
		}
	}()

	// First change - both handlers called
	time.Sleep(100 * time.Millisecond)
	writePresetFile(t, tmpFile.Name(), 10)
	time.Sleep(200 * time.Millisecond)

	// Unsubscribe second handler
	unsub2()

	// Second change - only first handler called
	writePresetFile(t, tmpFile.Name(), 20)
	time.Sleep(200 * time.Millisecond)

	if got := count1.Load(); got != 2 {
		t.Errorf("handler1: expected 2 calls, got %d", got)
	}
	if got := count2.Load(); got != 1 {
		t.Errorf("handler2: expected 1 call, got %d", got)
	}
	// Verify handlers received the right revisions
	if got := lastValue1.Load(); got != 20 {
		t.Errorf("handler1: expected last exposure 20, got %d", got)
	}
	if got := lastValue2.Load(); got != 10 {
		t.Errorf("handler2: expected last exposure 10, got %d", got)
	}
}

func TestPresetWatcher_ErrorHandler(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "presets_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(presetTOML(1))
	tmpFile.Close()

	errorReceived := make(chan error, 1)
	configReceived := make(chan PresetsConfig, 1)

	watcher := NewConfigWatcher(
		tmpFile.Name(),
		LoadPresets,
		newTestLogger(),
		WithDebounce[PresetsConfig](50*time.Millisecond),
		WithErrorHandler[PresetsConfig](func(err error) {
			errorReceived <- err
		}),
	)

	watcher.OnReload(func(cfg PresetsConfig) {
		configReceived <- cfg
	})

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer func() {
		if stopErr := watcher.Stop(); stopErr != nil {
			t.Errorf("watcher.Stop failed: %v", stopErr)
		}
	}()

	// Write invalid TOML
	time.Sleep(100 * time.Millisecond)
	if writeErr := os.WriteFile(tmpFile.Name(), []byte("invalid toml [[["), 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}

	select {
	case <-errorReceived:
		// Expected
	case <-configReceived:
		t.Fatal("reload handler should not be called on parse error")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestPresetWatcher_Debounce(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "presets_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(presetTOML(0))
	tmpFile.Close()

	var count atomic.Int32
	var lastValue atomic.Int64

	watcher := NewConfigWatcher(
		tmpFile.Name(),
		LoadPresets,
		newTestLogger(),
		WithDebounce[PresetsConfig](200*time.Millisecond),
	)

	watcher.OnReload(func(cfg PresetsConfig) {
		count.Add(1)
		lastValue.Store(exposureOf(cfg))
	})

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer func() {
		if stopErr := watcher.Stop(); stopErr != nil {
			t.Errorf("watcher.Stop failed: %v", stopErr)
		}
	}()

	// Rapid changes within debounce window
	time.Sleep(100 * time.Millisecond)
	for i := int64(1); i <= 5; i++ {
		writePresetFile(t, tmpFile.Name(), i)
		time.Sleep(50 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 debounced call, got %d", got)
	}
	if got := lastValue.Load(); got != 5 {
		t.Errorf("expected final exposure 5, got %d", got)
	}
}

func TestPresetWatcher_ThreadSafety(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "presets_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(presetTOML(0))
	tmpFile.Close()

	watcher := NewConfigWatcher(
		tmpFile.Name(),
		LoadPresets,
		newTestLogger(),
		WithDebounce[PresetsConfig](10*time.Millisecond),
	)

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer func() {
		if stopErr := watcher.Stop(); stopErr != nil {
			t.Errorf("watcher.Stop failed: %v", stopErr)
		}
	}()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := watcher.OnReload(func(_ PresetsConfig) {})
			time.Sleep(time.Millisecond)
			unsub()
		}()
	}

	// Trigger some changes while handlers are being added/removed
	for i := int64(0); i < 10; i++ {
		writePresetFile(t, tmpFile.Name(), i)
		time.Sleep(20 * time.Millisecond)
	}

	wg.Wait()
}

func TestPresetWatcher_Stop(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "presets_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(presetTOML(1))
	tmpFile.Close()

	var count atomic.Int32
	watcher := NewConfigWatcher(
		tmpFile.Name(),
		LoadPresets,
		newTestLogger(),
		WithDebounce[PresetsConfig](50*time.Millisecond),
	)

	watcher.OnReload(func(_ PresetsConfig) {
		count.Add(1)
	})

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}

	time.Sleep(100 * time.Millisecond)

	// Stop watcher
	if stopErr := watcher.Stop(); stopErr != nil {
		t.Fatal(stopErr)
	}

	// Changes after stop should not trigger handler
	writePresetFile(t, tmpFile.Name(), 99)
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected 0 calls after stop, got %d", got)
	}
}
