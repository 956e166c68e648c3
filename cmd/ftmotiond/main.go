// Command ftmotiond runs the fixed-time-motion controller as a
// standalone daemon: it loads a YAML hardware/shaper configuration,
// drives GPIO STEP/DIR pins at a fixed sample rate, and advertises
// itself on the local network for a host application to find.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/doismellburning/ftmotion/clock"
	"github.com/doismellburning/ftmotion/discovery"
	"github.com/doismellburning/ftmotion/gpio"
	"github.com/doismellburning/ftmotion/motion"
)

// quiescer adapts Controller.Busy to motion.Quiescer. Its controller
// pointer is filled in after NewController, since the control API (and
// hence its Quiescer) must exist before the controller that owns the
// busy state it reports.
type quiescer struct{ c *motion.Controller }

func (q *quiescer) Synchronize() {
	if q.c == nil {
		return
	}
	for q.c.Busy() {
		// Tick is driven by the audio callback; here we just wait for it
		// to catch up. A real daemon would use a condition variable
		// signalled from the callback instead of spinning.
	}
}

func main() {
	var (
		configFile = pflag.StringP("config-file", "c", "ftmotion.yaml", "Configuration file name.")
		gpioChip   = pflag.StringP("gpio-chip", "g", "", "Override the gpio_chip set in the config file.")
		verbose    = pflag.BoolP("verbose", "v", false, "Enable debug-level logging.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ftmotiond - fixed-time-motion trajectory daemon.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: ftmotiond [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	fc, err := loadFileConfig(*configFile)
	if err != nil {
		logger.Fatal("loading config", "err", err)
	}
	if *gpioChip != "" {
		fc.GPIOChip = *gpioChip
	}

	shaper := motion.NewShaper(4096)
	q := &quiescer{}
	api := motion.NewControlAPI(fc.motionConfig(), shaper, q, logger)

	src := motion.NewSliceSource(nil, fc.stepsToMM())
	ctrl := motion.NewController(src, api, shaper, 1024, motion.Options{Rounding: motion.RoundNearest}, logger)
	q.c = ctrl

	sink, err := gpio.Open(fc.GPIOChip, fc.Pins)
	if err != nil {
		logger.Fatal("opening gpio", "err", err)
	}
	defer sink.Close()

	ticker, err := clock.Open(fc.SampleRate, 64, func() {
		ctrl.Tick()
		if _, drainErr := sink.Drain(ctrl.Ring(), ctrl.Ring().Size()); drainErr != nil {
			logger.Error("gpio drain", "err", drainErr)
		}
	})
	if err != nil {
		logger.Fatal("opening clock", "err", err)
	}
	defer ticker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if fc.DiscoveryName != "" {
		svc := &discovery.Service{Name: fc.DiscoveryName, Port: fc.ControlPort}
		if err := discovery.Advertise(ctx, svc); err != nil {
			logger.Warn("mdns advertisement failed", "err", err)
		} else {
			defer svc.Shutdown()
		}
	}

	logger.Info("ftmotiond running", "sampleRate", fc.SampleRate, "shaper", api.Config().Mode)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
}
