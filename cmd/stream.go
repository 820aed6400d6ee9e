package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/smazurov/sensornode/internal/devices"
	"github.com/smazurov/sensornode/internal/logging"
	"github.com/smazurov/sensornode/internal/power"
	"github.com/smazurov/sensornode/internal/sensor"
)

// CreateStreamCmd creates the stream command.
func CreateStreamCmd() *cobra.Command {
	var adapter string
	var resetPin string
	var address int
	var width int
	var height int
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream headlessly until a signal arrives",
		Long: `Attaches to the camera module, powers it up and starts pixel output ` +
			`without the HTTP API. SIGUSR1 suspends the stream, SIGUSR2 resumes it, ` +
			`SIGINT/SIGTERM stop and power down.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("stream")

			if _, err := host.Init(); err != nil {
				logger.Error("Failed to initialize host peripherals", "error", err)
				os.Exit(1)
			}

			adapterPath, err := devices.ResolveAdapterRef(adapter)
			if err != nil {
				logger.Error("Invalid I2C adapter reference", "adapter", adapter, "error", err)
				os.Exit(1)
			}
			bus, err := i2creg.Open(adapterPath)
			if err != nil {
				logger.Error("Failed to open I2C adapter", "adapter", adapterPath, "error", err)
				os.Exit(1)
			}
			defer bus.Close()

			pin := gpioreg.ByName(resetPin)
			if pin == nil {
				logger.Error("Reset GPIO not found", "pin", resetPin)
				os.Exit(1)
			}

			seq := power.NewSequencer(
				[]power.Supply{
					power.NewFixedSupply("vana"),
					power.NewFixedSupply("vdig"),
					power.NewFixedSupply("vddl"),
				},
				power.NewFixedClock(sensor.XClkFreq),
				pin,
				logging.GetLogger("power"),
			)

			dev, err := sensor.Attach(sensor.Options{
				Bus:   bus,
				Addr:  uint16(address),
				Power: seq,
				Config: sensor.Config{
					NumDataLanes:    sensor.NumDataLanes,
					LinkFrequencies: []int64{sensor.LinkFreq},
				},
				Logger: logging.GetLogger("sensor"),
			})
			if err != nil {
				logger.Error("Failed to attach sensor", "adapter", adapterPath, "error", err)
				os.Exit(1)
			}
			defer dev.Close()

			if width > 0 && height > 0 {
				format, fmtErr := dev.SetFormat(sensor.PadImage, sensor.Format{Width: width, Height: height})
				if fmtErr != nil {
					logger.Error("Failed to set format", "error", fmtErr)
					os.Exit(1)
				}
				logger.Info("Selected mode", "width", format.Width, "height", format.Height)
			}

			if err := dev.PowerOn(); err != nil {
				logger.Error("Failed to power on", "error", err)
				os.Exit(1)
			}
			if err := dev.SetStreaming(true); err != nil {
				logger.Error("Failed to start streaming", "error", err)
				os.Exit(1)
			}

			mode := dev.ActiveMode()
			logger.Info("Streaming", "width", mode.Width, "height", mode.Height)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)

			for sig := range sigCh {
				switch sig {
				case syscall.SIGUSR1:
					logger.Info("Suspending stream")
					dev.Suspend()
				case syscall.SIGUSR2:
					logger.Info("Resuming stream")
					if resumeErr := dev.Resume(); resumeErr != nil {
						logger.Error("Resume failed", "error", resumeErr)
					}
				default:
					logger.Info("Stopping", "signal", sig.String())
					if stopErr := dev.SetStreaming(false); stopErr != nil {
						logger.Warn("Stop streaming failed", "error", stopErr)
					}
					return
				}
			}
		},
	}

	cmd.Flags().StringVar(&adapter, "adapter", "1", "I2C adapter (/dev/i2c-N, i2c-N, or N)")
	cmd.Flags().StringVar(&resetPin, "reset-pin", "GPIO5", "XCLR reset GPIO name")
	cmd.Flags().IntVar(&address, "address", 0, "Sensor I2C address (0 = default 0x1a)")
	cmd.Flags().IntVar(&width, "width", 0, "Frame width (0 = default mode)")
	cmd.Flags().IntVar(&height, "height", 0, "Frame height (0 = default mode)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")

	return cmd
}
