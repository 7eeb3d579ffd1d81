// Command specsweep sweeps a configurable frequency band with an SDR
// dongle, computes batched power spectra, and writes timestamped
// per-bin power readings to stdout. See SPEC_FULL.md for the full
// component design.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/kb9vqg/specsweep/internal/averaging"
	"github.com/kb9vqg/specsweep/internal/clockcorr"
	"github.com/kb9vqg/specsweep/internal/config"
	"github.com/kb9vqg/specsweep/internal/controller"
	"github.com/kb9vqg/specsweep/internal/dump"
	"github.com/kb9vqg/specsweep/internal/fftstage"
	"github.com/kb9vqg/specsweep/internal/history"
	"github.com/kb9vqg/specsweep/internal/hop"
	"github.com/kb9vqg/specsweep/internal/logging"
	"github.com/kb9vqg/specsweep/internal/manager"
	"github.com/kb9vqg/specsweep/internal/plan"
	"github.com/kb9vqg/specsweep/internal/queue"
	"github.com/kb9vqg/specsweep/internal/sampling"
	"github.com/kb9vqg/specsweep/internal/sdr"
)

const queueCapacity = 32

func main() {
	os.Exit(run(os.Args[0], os.Args[1:]))
}

func run(prog string, args []string) int {
	log := logging.New()

	cfg, fs, err := config.Parse(prog, args)
	if err != nil {
		log.Error("invalid arguments", "err", err)
		fs.Usage()
		return 1
	}

	if cfg.Version {
		printVersion()
		return 0
	}

	planner, hopConfig := buildPlanner(cfg)

	if cfg.DryRun {
		printDryRunPlan(planner, hopConfig)
		return 0
	}

	dev, err := openDevice(cfg, log)
	if err != nil {
		log.Error("failed to open SDR", "err", err)
		return 1
	}
	defer dev.Close()

	// SupportedGains is in tenths of dB; cfg.Gain and SetGain are in dB.
	gain := sdr.NearestSupportedGain(cfg.Gain*10) / 10
	if gain != cfg.Gain {
		log.Info("gain snapped to nearest supported value", "requested", cfg.Gain, "used", gain)
	}
	if err := dev.SetGain(gain); err != nil {
		log.Error("failed to set gain", "err", err)
		return 1
	}

	qFFT := queue.New(queueCapacity)
	qAvg := queue.New(queueCapacity)
	qDump := queue.New(queueCapacity)

	var similarity *hop.SimilarityStrategy
	if s, ok := planner.(*hop.SimilarityStrategy); ok {
		similarity = s
	}

	avg := averaging.New(qAvg, []*queue.Queue{qDump})
	dumpStage := dump.New(qDump, os.Stdout)
	sampleStage := sampling.New(dev, []*queue.Queue{qFFT}, logging.For(log, "sampling"))
	fftStage := fftstage.New(qFFT, []*queue.Queue{qAvg}, cfg.FFTBatchLen, similarityCallback(similarity))

	requests := make(chan *plan.Plan)
	completed := make(chan struct{})
	ctrl := controller.New(planner, requests, completed,
		time.Duration(cfg.MonitorTimeSec)*time.Second,
		time.Duration(cfg.MinTimeResSec)*time.Second,
		cfg.SampleRuns, logging.For(log, "controller"))

	clk := clockcorr.New(cfg.ClkOffPPM, "")
	mgr := manager.New(ctrl, clk, sampleStage, time.Duration(cfg.ClkCorrPeriodSec)*time.Second, logging.For(log, "manager"))

	go avg.Run()
	go dumpStage.Run()
	go fftStage.Run()
	go sampleStage.Run(requests, completed, mgr.Done())

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("signal received, shutting down")
		close(stop)
	}()

	mgr.Run(stop)
	return 0
}

func buildPlanner(cfg *config.Config) (hop.Planner, hop.Config) {
	hopCfg := hop.Config{
		MinFreq:     cfg.MinFreq,
		MaxFreq:     cfg.MaxFreq,
		SampRate:    cfg.SampRate,
		Log2FFTSize: cfg.Log2FFTSize,
		AvgFactor:   cfg.AvgFactor,
		Soverlap:    cfg.Soverlap,
		FreqOverlap: cfg.FreqOverlap,
		WindowFun:   int(cfg.WindowFun),
	}

	switch cfg.Strategy {
	case hop.Sequential:
		return hop.NewSequential(hopCfg), hopCfg
	case hop.Random:
		return hop.NewRandom(hopCfg), hopCfg
	default:
		return hop.NewSimilarity(hopCfg, history.New()), hopCfg
	}
}

func similarityCallback(s *hop.SimilarityStrategy) fftstage.Callback {
	if s == nil {
		return nil
	}
	return s.OnFFTItem
}

func printDryRunPlan(planner hop.Planner, _ hop.Config) {
	p := planner.Plan()
	for _, step := range p.Steps {
		fmt.Printf("%d\n", step.CenterFreq)
	}
}

// openDevice locates the SDR over USB (the actual bit-banging driver for
// a given dongle chipset is out of scope per spec.md §1 — "SDR device
// driver primitives" is listed as an out-of-scope collaborator) and
// substitutes a software simulator as the in-scope stand-in
// that still exercises the full Device interface end to end. The
// simulator is used whether or not a USB device is found, and is seeded
// from the device index plus the wall clock.
func openDevice(cfg *config.Config, log *charmlog.Logger) (sdr.Device, error) {
	if node, err := sdr.FindUSBDevice(sdr.RTL2832VendorID, sdr.RTL2832ProductID); err != nil {
		log.Warn("no RTL2832U-class USB device found, using simulated device", "err", err)
	} else {
		log.Info("found SDR device node", "node", node)
	}
	return sdr.NewSim(int64(cfg.DevIndex) + time.Now().UnixNano()), nil
}

func printVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Println("specsweep: version information unavailable")
		return
	}
	fmt.Printf("specsweep %s (%s)\n", info.Main.Version, info.GoVersion)
}
