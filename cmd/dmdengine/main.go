// Package main is the dmdengine CLI harness: it reads command-line
// flags, assembles a config.Config, and hands it to
// engine.New along with the reference (dependency-free) driver
// implementations, mirroring the upstream server's flag-then-construct
// boot sequence.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pinlab/dmdengine/internal/alphanumeric"
	"github.com/pinlab/dmdengine/internal/config"
	"github.com/pinlab/dmdengine/internal/engine"
	"github.com/pinlab/dmdengine/internal/sinks/hardware"
	"github.com/pinlab/dmdengine/internal/sinks/pattern"
	"github.com/pinlab/dmdengine/internal/sinks/secondary"
)

func main() {
	hardwareEnabled := flag.Bool("hardware", false, "enable the primary pixel-display sink (reference in-memory driver)")
	hardwareDevice := flag.String("hardware-device", "", "primary display device identifier")
	secondaryEnabled := flag.Bool("secondary", false, "enable the secondary pixel-display sink (reference in-memory driver)")
	altColor := flag.Bool("altcolor", false, "enable the colorization worker")
	altColorPath := flag.String("altcolor-path", "", "colorization asset directory")
	patternCapture := flag.Bool("pattern-capture", false, "enable the pattern-trigger matcher sink")
	patternVideoPath := flag.String("pattern-video-path", "", "pattern capture asset directory")
	networkEnabled := flag.Bool("network", false, "enable the TCP mirror sink")
	networkAddr := flag.String("network-addr", "127.0.0.1", "TCP mirror sink host")
	networkPort := flag.Int("network-port", 6789, "TCP mirror sink port")
	textDumpPath := flag.String("text-dump", "", "directory for per-ROM text capture files")
	rawDumpPath := flag.String("raw-dump", "", "directory for per-ROM raw capture files")
	romName := flag.String("rom", "", "ROM name to set at startup")
	flag.Parse()

	cfg := config.Default()
	cfg.HardwareDisplayEnabled = *hardwareEnabled
	cfg.HardwareDevice = *hardwareDevice
	cfg.SecondaryDisplayEnabled = *secondaryEnabled
	cfg.AltColor = *altColor
	cfg.AltColorPath = *altColorPath
	cfg.PatternCapture = *patternCapture
	cfg.PatternVideoPath = *patternVideoPath
	cfg.NetworkEnabled = *networkEnabled
	cfg.NetworkAddr = *networkAddr
	cfg.NetworkPort = *networkPort
	cfg.TextDumpPath = *textDumpPath
	cfg.RawDumpPath = *rawDumpPath

	deps := engine.Dependencies{
		AlphaRenderer: alphanumeric.NewSevenSegmentRenderer(),
	}
	if cfg.HardwareDisplayEnabled {
		deps.HardwareDriver = hardware.NewRecorder(256)
	}
	if cfg.SecondaryDisplayEnabled {
		deps.SecondaryDriver = secondary.NewRecorder()
	}
	if cfg.PatternCapture {
		deps.PatternMatcher = pattern.NoneMatcher{}
	}

	eng, err := engine.New(cfg, deps)
	if err != nil {
		log.Fatalf("dmdengine: %v", err)
	}
	if *romName != "" {
		eng.SetROMName(*romName)
	}

	log.Printf("dmdengine: running (hardware=%v secondary=%v altcolor=%v pattern=%v network=%v)",
		cfg.HardwareDisplayEnabled, cfg.SecondaryDisplayEnabled, cfg.AltColor, cfg.PatternCapture, cfg.NetworkEnabled)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Println("dmdengine: shutting down")
	if err := eng.Shutdown(shutdownCtx); err != nil {
		log.Printf("dmdengine: shutdown: %v", err)
	}
	fmt.Println("dmdengine: stopped")
}
