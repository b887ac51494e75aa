// stagectl drives a linear stepper-motor stage: oscillation between
// two configured endpoints, playback of an uploaded trajectory, an
// acceleration test mode, and switch-referenced homing. Commands
// arrive over a local console (stdin or a serial port) and over a
// websocket control channel; both speak the same line protocol.
//
// Usage:
//
//	stagectl [options]
//
// Options:
//
//	-config string      Configuration file (default "stage.yaml")
//	-trajectory string  Trajectory file (default "trajectory.dat")
//	-listen string      Wireless listen address (default ":8765", empty disables)
//	-device string      Serial console device (default: stdin/stdout)
//	-baud int           Serial console baud rate (default 115200)
//	-logfile string     Log file path with rotation (default: stderr)
//	-trace              Enable debug logging
//	-hw                 Drive real GPIO pins (Linux only)
//
// Examples:
//
//	# Run against the simulated stage, console on stdin
//	stagectl
//
//	# Hardware stage with a serial console
//	stagectl -hw -device /dev/ttyUSB0 -baud 115200
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"stagectl/pkg/command"
	"stagectl/pkg/config"
	"stagectl/pkg/console"
	"stagectl/pkg/controller"
	"stagectl/pkg/gpio"
	"stagectl/pkg/log"
	"stagectl/pkg/reactor"
	"stagectl/pkg/serial"
	"stagectl/pkg/stepgen"
	"stagectl/pkg/telemetry"
	"stagectl/pkg/trajectory"
	"stagectl/pkg/wireless"
)

func main() {
	configPath := flag.String("config", "stage.yaml", "Configuration file")
	trajPath := flag.String("trajectory", "trajectory.dat", "Trajectory file")
	listen := flag.String("listen", ":8765", "Wireless listen address (empty disables)")
	device := flag.String("device", "", "Serial console device (default: stdin/stdout)")
	baud := flag.Int("baud", serial.DefaultBaudRate, "Serial console baud rate")
	logFile := flag.String("logfile", "", "Log file path (default: stderr)")
	trace := flag.Bool("trace", false, "Enable debug logging")
	hw := flag.Bool("hw", false, "Drive real GPIO pins (Linux only)")
	enablePin := flag.Int("enable-pin", 18, "Enable line BCM pin number")
	switchPin := flag.Int("switch-pin", 23, "Homing switch BCM pin number")
	indicatorPin := flag.Int("indicator-pin", 24, "Status indicator BCM pin number")
	flag.Parse()

	logger := log.New("stagectl")
	log.ConfigureFromEnv(logger)
	if *trace {
		logger.SetLevel(log.DEBUG)
	}
	if *logFile != "" {
		w, err := log.NewRotatingFileWriter(log.RotationConfig{
			Filename:   *logFile,
			MaxSize:    10,
			MaxBackups: 3,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer w.Close()
		logger.SetWriter(w)
		logger.SetColorize(false)
	}
	log.SetDefaultLogger(logger)

	logger.Info("stagectl starting")

	// Configuration record, with defaults when the file is missing.
	cfgStore := config.NewFileStore(*configPath)
	record, err := cfgStore.Load()
	if err != nil {
		logger.WithError(err).Warn("config load failed, using defaults")
	}
	if err := record.Validate(); err != nil {
		logger.WithError(err).Warn("stored config invalid, using defaults")
		record = config.Defaults()
	}

	// Trajectory store, seeded from the persisted file when present.
	trajStore := trajectory.NewStore()
	trajFile := trajectory.NewFileStore(*trajPath)
	if samples, err := trajFile.Load(); err == nil {
		trajStore.SetSamples(samples)
		logger.WithField("samples", trajStore.Count()).Info("trajectory loaded")
	}

	// Physical pins: real GPIO when asked for, fakes otherwise. The
	// step generator is always the simulated one here; a hardware
	// pulse generator plugs in through the same interface.
	var pins *gpio.Hardware
	if *hw {
		pins, err = gpio.OpenHardware(*enablePin, *switchPin, *indicatorPin)
		if err != nil {
			logger.WithError(err).Error("GPIO init failed")
			os.Exit(1)
		}
		defer pins.Close()
	} else {
		pins = &gpio.Hardware{
			Enable:    &gpio.FakeOutput{},
			Switch:    &gpio.FakeInput{},
			Indicator: &gpio.FakeOutput{},
		}
	}

	reac := reactor.New()
	gen := stepgen.NewSim(reac.Monotonic)

	ctl := controller.New(controller.Options{
		Config:      record,
		ConfigStore: cfgStore,
		Trajectory:  trajStore,
		Generator:   gen,
		Enable:      gpio.NewEnableLine(pins.Enable, record.InvertEnable),
		HomeSwitch:  pins.Switch,
		Indicator:   pins.Indicator,
		Clock:       reac.Monotonic,
	})

	sampler := telemetry.NewSampler(ctl)
	router := command.NewRouter(ctl, trajFile, sampler)

	// Both transports push command lines through the controller's
	// queue; only the control loop touches state.
	handler := func(line string, reply func(string)) {
		if !ctl.Enqueue(func() {
			if resp := router.Execute(line); resp != "" {
				reply(resp)
			}
		}) {
			reply("!! command queue full")
		}
	}

	var wsrv *wireless.Server
	if *listen != "" {
		wsrv = wireless.New(wireless.Config{Addr: *listen, Handler: handler})
		sampler.AddSink(&telemetry.WirelessSink{B: wsrv})
		ctl.SetNotify(wsrv.Broadcast)
		go func() {
			if err := wsrv.Start(); err != nil {
				logger.WithError(err).Error("wireless server stopped")
			}
		}()
	}

	// Console: a serial port when a device is given, stdin/stdout
	// otherwise.
	var conIn io.Reader = os.Stdin
	var conOut io.Writer = os.Stdout
	if *device != "" {
		port, err := serial.Open(serial.Config{Device: *device, BaudRate: *baud})
		if err != nil {
			logger.WithError(err).Error("serial open failed")
			os.Exit(1)
		}
		defer port.Close()
		conIn, conOut = port, port
	}
	con := console.New(conIn, conOut, handler)
	sampler.AddSink(&telemetry.ConsoleSink{W: con})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := con.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("console loop exited")
		}
	}()

	// The control loop and the telemetry sampler run as reactor
	// timers on the dispatch goroutine.
	reac.RegisterTimer(func(eventtime float64) float64 {
		ctl.Tick(eventtime)
		return eventtime + controller.TickInterval
	}, reactor.NOW)
	reac.RegisterTimer(sampler.Tick, reactor.NOW)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("shutting down")
		cancel()
		if wsrv != nil {
			wsrv.Stop()
		}
		reac.End()
	}()

	reac.Run()
	ctl.StopAll()
	logger.Info("stagectl stopped")
}
