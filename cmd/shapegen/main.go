// Command shapegen prints the impulse amplitude/delay table an input
// shaper would use for a given mode, frequency, damping ratio and
// vibration tolerance, for offline tuning without a running daemon.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/pflag"

	"github.com/doismellburning/ftmotion/motion"
)

func main() {
	var (
		modeStr    = pflag.StringP("mode", "m", "zv", "Shaper mode: none, zv, zvd, zvdd, zvddd, ei, 2hei, 3hei, mzv.")
		freq       = pflag.Float64P("frequency", "f", 40, "Shaping frequency in Hz.")
		zeta       = pflag.Float64P("zeta", "z", 0.1, "Damping ratio, 0-1.")
		vtol       = pflag.Float64P("vibration-tolerance", "t", 0.05, "Vibration tolerance, 0-1 (EI-family modes only).")
		sampleRate = pflag.Float64P("sample-rate", "r", 1000, "Sample rate in Hz.")
		version    = pflag.Bool("version", false, "Print version and exit.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "shapegen - print input-shaper coefficients for a given mode/frequency.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}
	if *version {
		printVersion()
		os.Exit(0)
	}

	mode, ok := shaperModeByName[*modeStr]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown shaper mode %q\n", *modeStr)
		os.Exit(1)
	}

	s := motion.NewAxisShaper(4096)
	s.UpdateAmplitudes(mode, *zeta, *vtol)
	s.UpdateDelays(mode, *freq, *zeta, *sampleRate)

	fmt.Printf("mode=%s frequency=%.3gHz zeta=%.3g vtol=%.3g sampleRate=%.0fHz\n", mode, *freq, *zeta, *vtol, *sampleRate)
	for i := 0; i <= s.MaxI; i++ {
		fmt.Printf("  impulse[%d]: amplitude=%.6f delay=%d samples\n", i, s.A[i], s.N[i])
	}
}

var shaperModeByName = map[string]motion.ShaperMode{
	"none": motion.ShaperNone, "zv": motion.ShaperZV, "zvd": motion.ShaperZVD,
	"zvdd": motion.ShaperZVDD, "zvddd": motion.ShaperZVDDD, "ei": motion.ShaperEI,
	"2hei": motion.Shaper2HEI, "3hei": motion.Shaper3HEI, "mzv": motion.ShaperMZV,
}

func getBuildSettingOrDefault(bi *debug.BuildInfo, key, defaultValue string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}
	return defaultValue
}

func printVersion() {
	bi, _ := debug.ReadBuildInfo()
	commit := getBuildSettingOrDefault(bi, "vcs.revision", "UNKNOWN")
	buildTime := getBuildSettingOrDefault(bi, "vcs.time", "UNKNOWN")
	fmt.Printf("shapegen (revision %s, built at %s)\n", commit, buildTime)
}
