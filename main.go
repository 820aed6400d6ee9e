package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/smazurov/sensornode/cmd"
	"github.com/smazurov/sensornode/internal/api"
	"github.com/smazurov/sensornode/internal/config"
	"github.com/smazurov/sensornode/internal/devices"
	"github.com/smazurov/sensornode/internal/events"
	"github.com/smazurov/sensornode/internal/logging"
	"github.com/smazurov/sensornode/internal/power"
	"github.com/smazurov/sensornode/internal/sensor"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Sensor wiring settings
	Adapter       string `help:"I2C adapter (/dev/i2c-N, i2c-N, or N)" default:"1" toml:"sensor.adapter" env:"SENSOR_ADAPTER"`
	SensorAddress int    `help:"Sensor I2C address (0 = default 0x1a)" default:"0" toml:"sensor.address" env:"SENSOR_ADDRESS"`
	ResetPin      string `help:"XCLR reset GPIO name" default:"GPIO5" toml:"sensor.reset_pin" env:"SENSOR_RESET_PIN"`
	DataLanes     int    `help:"CSI-2 data lane count" default:"2" toml:"sensor.data_lanes" env:"SENSOR_DATA_LANES"`
	LinkFrequency int64  `help:"CSI-2 link frequency in Hz" default:"456000000" toml:"sensor.link_frequency" env:"SENSOR_LINK_FREQUENCY"`
	ClockRate     int64  `help:"External clock rate in Hz" default:"24000000" toml:"sensor.clock_rate" env:"SENSOR_CLOCK_RATE"`

	// Power rail settings. Empty means the rail is hardwired on, as on
	// the Pi camera connector; a GPIO name selects a load-switched rail.
	VanaPin  string `help:"GPIO enabling the VANA rail (empty = always on)" default:"" toml:"power.vana_pin" env:"POWER_VANA_PIN"`
	VdigPin  string `help:"GPIO enabling the VDIG rail (empty = always on)" default:"" toml:"power.vdig_pin" env:"POWER_VDIG_PIN"`
	VddlPin  string `help:"GPIO enabling the VDDL rail (empty = always on)" default:"" toml:"power.vddl_pin" env:"POWER_VDDL_PIN"`
	ClockPin string `help:"GPIO gating the external clock (empty = free-running)" default:"" toml:"power.clock_pin" env:"POWER_CLOCK_PIN"`

	// Presets settings
	PresetsConfigFile string `help:"Control preset definitions file" default:"presets.toml" toml:"presets.config_file" env:"PRESETS_CONFIG_FILE"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSensor  string `help:"Sensor logging level" default:"info" toml:"logging.sensor" env:"LOGGING_SENSOR"`
	LoggingPower   string `help:"Power sequencer logging level" default:"info" toml:"logging.power" env:"LOGGING_POWER"`
	LoggingRegmap  string `help:"Register access logging level" default:"info" toml:"logging.regmap" env:"LOGGING_REGMAP"`
	LoggingDevices string `help:"Device detection logging level" default:"info" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// railSupply wires a rail to its GPIO load switch, or as always-on when
// no pin is configured.
func railSupply(name, pinName string) (power.Supply, error) {
	if pinName == "" {
		return power.NewFixedSupply(name), nil
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("GPIO %s not found", pinName)
	}
	return power.NewGPIOSupply(name, pin), nil
}

func main() {
	// Create Huma CLI
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"sensor":  opts.LoggingSensor,
				"power":   opts.LoggingPower,
				"regmap":  opts.LoggingRegmap,
				"devices": opts.LoggingDevices,
				"api":     opts.LoggingAPI,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Bridge new log entries onto the event bus for SSE clients
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Initialize the host peripherals (GPIO and I2C drivers)
		if _, err := host.Init(); err != nil {
			logger.Error("Failed to initialize host peripherals", "error", err)
			os.Exit(1)
		}

		// Resolve and open the I2C adapter the module is wired to
		adapterPath, err := devices.ResolveAdapterRef(opts.Adapter)
		if err != nil {
			logger.Error("Invalid I2C adapter reference", "adapter", opts.Adapter, "error", err)
			os.Exit(1)
		}
		bus, err := i2creg.Open(adapterPath)
		if err != nil {
			logger.Error("Failed to open I2C adapter", "adapter", adapterPath, "error", err)
			os.Exit(1)
		}

		// Reset (XCLR) line
		resetPin := gpioreg.ByName(opts.ResetPin)
		if resetPin == nil {
			logger.Error("Reset GPIO not found", "pin", opts.ResetPin)
			os.Exit(1)
		}

		// Power sequencer over the module's three rails
		rails := []struct{ name, pin string }{
			{"vana", opts.VanaPin},
			{"vdig", opts.VdigPin},
			{"vddl", opts.VddlPin},
		}
		supplies := make([]power.Supply, 0, len(rails))
		for _, rail := range rails {
			supply, supplyErr := railSupply(rail.name, rail.pin)
			if supplyErr != nil {
				logger.Error("Failed to wire power rail", "rail", rail.name, "error", supplyErr)
				os.Exit(1)
			}
			supplies = append(supplies, supply)
		}

		var clk power.Clock = power.NewFixedClock(opts.ClockRate)
		if opts.ClockPin != "" {
			clockPin := gpioreg.ByName(opts.ClockPin)
			if clockPin == nil {
				logger.Error("Clock enable GPIO not found", "pin", opts.ClockPin)
				os.Exit(1)
			}
			clk = power.NewGPIOClock(clockPin, opts.ClockRate)
		}

		seq := power.NewSequencer(supplies, clk, resetPin, logging.GetLogger("power"))

		// Attach the sensor: validates the wiring, verifies the chip ID,
		// and leaves the device powered off.
		dev, err := sensor.Attach(sensor.Options{
			Bus:   bus,
			Addr:  uint16(opts.SensorAddress),
			Power: seq,
			Config: sensor.Config{
				NumDataLanes:    opts.DataLanes,
				LinkFrequencies: []int64{opts.LinkFrequency},
			},
			Logger: logging.GetLogger("sensor"),
			Events: eventBus,
		})
		if err != nil {
			logger.Error("Failed to attach sensor", "adapter", adapterPath, "error", err)
			os.Exit(1)
		}

		// Control presets, persisted to TOML
		presetManager := config.NewPresetManager(opts.PresetsConfigFile)
		if loadErr := presetManager.Load(); loadErr != nil {
			logger.Warn("Failed to load presets", "path", opts.PresetsConfigFile, "error", loadErr)
		}

		// Reload presets when the file changes on disk
		presetWatcher := config.NewConfigWatcher(
			opts.PresetsConfigFile,
			config.LoadPresets,
			logging.GetLogger("config"),
		)
		presetWatcher.OnReload(func(config.PresetsConfig) {
			if reloadErr := presetManager.Load(); reloadErr != nil {
				logger.Warn("Failed to reload presets", "error", reloadErr)
			} else {
				logger.Info("Presets reloaded", "path", opts.PresetsConfigFile)
			}
		})

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Sensor:            dev,
			Presets:           presetManager,
			EventBus:          eventBus,
			PrometheusHandler: promhttp.Handler(),
		})

		hooks.OnStart(func() {
			if watchErr := presetWatcher.Start(); watchErr != nil {
				logger.Warn("Failed to start preset watcher", "error", watchErr)
			}

			// Tell systemd we are ready; a no-op outside a unit
			if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
				logger.Warn("sd_notify failed", "error", notifyErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyStopping); notifyErr != nil {
				logger.Warn("sd_notify failed", "error", notifyErr)
			}

			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if stopErr := presetWatcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping preset watcher", "error", stopErr)
			}

			// Stop streaming and cut power before releasing the bus
			if closeErr := dev.Close(); closeErr != nil {
				logger.Warn("Error closing sensor", "error", closeErr)
			}
			if closeErr := bus.Close(); closeErr != nil {
				logger.Warn("Error closing I2C adapter", "error", closeErr)
			}
		})
	})

	// Add probe command
	probeCmd := cmd.CreateProbeCmd()
	cli.Root().AddCommand(probeCmd)

	// Add stream command
	streamCmd := cmd.CreateStreamCmd()
	cli.Root().AddCommand(streamCmd)

	// Run the CLI
	cli.Run()
}
