package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/smazurov/sensornode/internal/devices"
	"github.com/smazurov/sensornode/internal/logging"
	"github.com/smazurov/sensornode/internal/power"
	"github.com/smazurov/sensornode/internal/sensor"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var adapter string
	var resetPin string
	var address int
	var clockRate int64
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Detect I2C adapters and identify the camera module",
		Long: `Lists the host's I2C adapters. With --adapter, opens the given adapter, ` +
			`runs the power-up and identification sequence, and reports whether the ` +
			`camera module answered with the expected chip ID.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("probe")

			if adapter == "" {
				detector := devices.NewDetector()
				adapters, err := detector.FindAdapters()
				if err != nil {
					logger.Error("Failed to enumerate I2C adapters", "error", err)
					os.Exit(1)
				}
				if len(adapters) == 0 {
					fmt.Println("No I2C adapters found")
					return
				}
				for _, a := range adapters {
					fmt.Printf("%s\t%s\n", a.Path, a.Name)
				}
				return
			}

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
				power.NewFixedClock(clockRate),
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
				var identErr *sensor.IdentificationError
				if errors.As(err, &identErr) {
					fmt.Printf("No camera module on %s: %v\n", adapterPath, identErr)
					os.Exit(1)
				}
				logger.Error("Probe failed", "adapter", adapterPath, "error", err)
				os.Exit(1)
			}
			defer dev.Close()

			mode := dev.ActiveMode()
			fmt.Printf("Arducam 64MP detected on %s (%dx%d default mode)\n",
				adapterPath, mode.Width, mode.Height)
		},
	}

	cmd.Flags().StringVar(&adapter, "adapter", "", "I2C adapter to probe (/dev/i2c-N, i2c-N, or N); empty lists adapters")
	cmd.Flags().StringVar(&resetPin, "reset-pin", "GPIO5", "XCLR reset GPIO name")
	cmd.Flags().IntVar(&address, "address", 0, "Sensor I2C address (0 = default 0x1a)")
	cmd.Flags().Int64Var(&clockRate, "clock-rate", sensor.XClkFreq, "External clock rate in Hz")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")

	return cmd
}
