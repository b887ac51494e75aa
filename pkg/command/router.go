// Command router
//
// Parses one-line text commands from either transport into calls on
// the controller, the upload pipeline, and the telemetry sampler.
// Execute must run on the control loop; transports enqueue a closure
// that calls it and delivers the response back over their own channel.
//
// Responses are single lines: "OK:<keyword>" or a command-specific
// payload on success, "!! <reason>" on rejection. Multi-line payloads
// (CONFIG, HELP, STATS) are joined with newlines; an empty response
// means nothing should be sent.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package command

import (
	"fmt"
	"strconv"
	"strings"

	"stagectl/pkg/config"
	"stagectl/pkg/controller"
	"stagectl/pkg/log"
	"stagectl/pkg/metrics"
	"stagectl/pkg/telemetry"
	"stagectl/pkg/trajectory"
)

// Router dispatches text commands.
type Router struct {
	log      *log.Logger
	ctl      *controller.Controller
	upload   *trajectory.Upload
	trajFile *trajectory.FileStore
	sampler  *telemetry.Sampler
}

func NewRouter(ctl *controller.Controller, trajFile *trajectory.FileStore, sampler *telemetry.Sampler) *Router {
	return &Router{
		log:      log.GetLogger("command"),
		ctl:      ctl,
		upload:   trajectory.NewUpload(),
		trajFile: trajFile,
		sampler:  sampler,
	}
}

// Upload exposes the upload session, mainly for tests.
func (r *Router) Upload() *trajectory.Upload {
	return r.upload
}

// Execute parses and runs one command line and returns the response
// text. Must be called from the control loop.
func (r *Router) Execute(line string) string {
	metrics.Default.Counter("commands_total").Inc()
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	// While an upload is open every line except the upload controls
	// is trajectory data.
	if r.upload.Open() && line != "UPLOAD:START" && line != "UPLOAD:END" {
		payload := line
		if rest, ok := strings.CutPrefix(line, "BATCH:"); ok {
			payload = rest
		}
		if _, err := r.upload.Accept(payload); err != nil {
			return r.reject(err.Error())
		}
		return ""
	}

	keyword, arg, _ := strings.Cut(line, ":")
	switch keyword {
	case "START":
		if err := r.ctl.Start(); err != nil {
			return r.reject(err.Error())
		}
		return "OK:START"
	case "STOP":
		r.ctl.StopAll()
		return "OK:STOP"
	case "HOME":
		if err := r.ctl.StartHoming(); err != nil {
			return r.reject(err.Error())
		}
		return "OK:HOME"
	case "PLAYBACK":
		switch arg {
		case "ON":
			r.ctl.SetPlaybackEnabled(true)
		case "OFF":
			r.ctl.SetPlaybackEnabled(false)
		default:
			return r.reject("PLAYBACK wants ON or OFF")
		}
		return "OK:PLAYBACK"
	case "ACCELTEST":
		return r.cmdAccelTest(arg)
	case "UPLOAD":
		return r.cmdUpload(arg)
	case "BATCH":
		return r.reject("no upload in progress")
	case "MONITOR":
		return r.cmdMonitor(arg)
	case "MICROSTEPS":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.MicrostepsPerRev = int(parseInt(arg))
		})
	case "PITCH":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.ScrewPitchMm = parseFloat(arg)
		})
	case "ACCEL":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.AccelerationMmS2 = parseFloat(arg)
		})
	case "VELOCITY":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.MaxVelocityMmS = parseFloat(arg)
		})
	case "POS1":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.Position1Mm = parseFloat(arg)
		})
	case "POS2":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.Position2Mm = parseFloat(arg)
		})
	case "INVERTPULSE":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.InvertPulse = parseBool(arg)
		})
	case "INVERTDIR":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.InvertDir = parseBool(arg)
		})
	case "INVERTENABLE":
		return r.setConfig(keyword, func(rec *config.Record) {
			rec.InvertEnable = parseBool(arg)
		})
	case "CONFIG":
		return strings.Join(r.ctl.ConfigRecord().Dump(), "\n")
	case "HELP":
		return strings.Join(helpText, "\n")
	case "STATS":
		return strings.Join(metrics.Default.Snapshot(), "\n")
	}
	return r.reject(fmt.Sprintf("unknown command %q", keyword))
}

func (r *Router) cmdAccelTest(arg string) string {
	distStr, accelStr, ok := strings.Cut(arg, ",")
	if !ok {
		return r.reject("ACCELTEST wants <distance>,<acceleration>")
	}
	if err := r.ctl.StartAccelTest(parseFloat(distStr), parseFloat(accelStr)); err != nil {
		return r.reject(err.Error())
	}
	return "OK:ACCELTEST"
}

func (r *Router) cmdUpload(arg string) string {
	switch arg {
	case "START":
		token := r.upload.Begin()
		r.log.WithField("token", token).Info("upload started")
		return "UPLOAD:" + token
	case "END":
		count, err := r.upload.End(r.ctl.Trajectory(), r.trajFile)
		if err != nil {
			return r.reject(err.Error())
		}
		metrics.Default.Counter("uploads_total").Inc()
		r.log.WithField("samples", count).Info("upload committed")
		return fmt.Sprintf("UPLOAD:DONE:%d", count)
	}
	return r.reject("UPLOAD wants START or END")
}

// cmdMonitor adjusts the telemetry channel set. The per-channel forms
// are additive; ALL and NONE replace the whole set.
func (r *Router) cmdMonitor(arg string) string {
	pos, vel, acc := r.sampler.Channels()
	switch arg {
	case "POS":
		pos = true
	case "VEL":
		vel = true
	case "ACC":
		acc = true
	case "ALL":
		pos, vel, acc = true, true, true
	case "NONE":
		pos, vel, acc = false, false, false
	default:
		return r.reject("MONITOR wants POS, VEL, ACC, ALL or NONE")
	}
	r.sampler.Set(pos, vel, acc)
	return "OK:MONITOR"
}

func (r *Router) setConfig(keyword string, mutate func(*config.Record)) string {
	if err := r.ctl.ApplyConfig(mutate); err != nil {
		return r.reject(err.Error())
	}
	return "OK:" + keyword
}

func (r *Router) reject(reason string) string {
	metrics.Default.Counter("commands_rejected_total").Inc()
	r.log.WithField("reason", reason).Debug("command rejected")
	return "!! " + reason
}

// Numeric arguments use the same lenient parse as trajectory data: a
// malformed value reads as zero and config validation catches the
// fields where zero is illegal.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBool(s string) bool {
	switch strings.TrimSpace(s) {
	case "1", "true", "TRUE", "True", "on", "ON":
		return true
	}
	return false
}

var helpText = []string{
	"START - begin oscillation or playback",
	"STOP - stop all motion and disable the drive",
	"HOME - run the homing sequence",
	"PLAYBACK:ON|OFF - select trajectory playback for START",
	"ACCELTEST:<distance>,<accel> - back-and-forth acceleration test",
	"UPLOAD:START / UPLOAD:END - stream a trajectory",
	"BATCH:<v1>,<v2>,... - batched samples during an upload",
	"MONITOR:POS|VEL|ACC|ALL|NONE - telemetry channels",
	"MICROSTEPS:<int> PITCH:<mm> ACCEL:<mm/s2> VELOCITY:<mm/s>",
	"POS1:<mm> POS2:<mm> - oscillation endpoints",
	"INVERTPULSE|INVERTDIR|INVERTENABLE:<0|1> - pin polarity",
	"CONFIG - dump the configuration",
	"STATS - process counters",
}
