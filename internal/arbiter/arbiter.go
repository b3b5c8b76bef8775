// Package arbiter decides when the local fallback and the windowed model
// act, and reconciles their outputs into lighting requests and events.
//
// Each path has its own cooldowns, so neither starves the other and one
// physical event is not reported twice by the same path. All methods run on
// the control loop goroutine.
package arbiter

import (
	"time"

	"luma/internal/classify"
	"luma/internal/fallback"
	"luma/internal/features"
	"luma/internal/imu"
)

// Lights is the subset of the actuation machine the arbiter drives.
type Lights interface {
	Braking() bool
	Crashing() bool
	CrashSince() uint32
	Brake(now uint32, hold time.Duration) bool
	ExtendBrake(now uint32, hold time.Duration) bool
	Crash(now uint32) bool
}

// Sink receives outbound notifications.
type Sink interface {
	Event(e Event)
	// Alert is raised once when a crash stays undismissed past the
	// confirmation window.
	Alert(now uint32)
}

type Source uint8

const (
	Local Source = iota
	Model
)

func (s Source) String() string {
	if s == Model {
		return "model"
	}
	return "local"
}

type Event struct {
	Class       classify.EventClass
	Confidence  float64
	Source      Source
	TimestampMs uint32
}

type Cooldowns struct {
	LocalBrake   time.Duration
	LocalCrash   time.Duration
	ModelAttempt time.Duration
	ModelBrake   time.Duration
	ModelCrash   time.Duration
}

type Config struct {
	SampleRateHz float64
	Window       int
	// PostCapture is the number of samples gathered after a trigger before
	// the model runs.
	PostCapture int

	// Coarse model trigger.
	TriggerG    float64
	TriggerJerk float64

	Fallback fallback.Thresholds

	LocalBrakeHold time.Duration
	ModelBrakeHold time.Duration

	Cooldowns Cooldowns

	// CrashConfirm is how long a crash may stay undismissed before an alert.
	// Zero disables the alert.
	CrashConfirm time.Duration
}

func DefaultConfig() Config {
	return Config{
		SampleRateHz:   50,
		Window:         imu.DefaultWindow,
		PostCapture:    25,
		TriggerG:       1.6,
		TriggerJerk:    6,
		Fallback:       fallback.DefaultThresholds(),
		LocalBrakeHold: 800 * time.Millisecond,
		ModelBrakeHold: 900 * time.Millisecond,
		Cooldowns: Cooldowns{
			LocalBrake:   400 * time.Millisecond,
			LocalCrash:   3 * time.Second,
			ModelAttempt: 800 * time.Millisecond,
			ModelBrake:   1500 * time.Millisecond,
			ModelCrash:   5 * time.Second,
		},
		CrashConfirm: 30 * time.Second,
	}
}

// Stats counts what each path has done since construction.
type Stats struct {
	Ticks        uint64
	LocalBrakes  uint64
	LocalCrashes uint64
	ModelPasses  uint64
	ModelBrakes  uint64
	ModelCrashes uint64
	Alerts       uint64
	LastModel    classify.Classification
}

type cooldown struct {
	period uint32
	last   uint32
	armed  bool
}

func newCooldown(d time.Duration) cooldown {
	return cooldown{period: uint32(d / time.Millisecond)}
}

func (c *cooldown) ready(now uint32) bool {
	return !c.armed || imu.Since(now, c.last) >= c.period
}

func (c *cooldown) stamp(now uint32) {
	c.last = now
	c.armed = true
}

type Arbiter struct {
	cfg    Config
	buf    *imu.Buffer
	ext    *features.Extractor
	model  classify.Classifier
	lights Lights
	sink   Sink

	localBrake   cooldown
	localCrash   cooldown
	modelAttempt cooldown
	modelBrake   cooldown
	modelCrash   cooldown

	lastMag float64

	// remaining counts samples still to capture before the model runs;
	// capturing is false when no pass is pending.
	capturing bool
	remaining int

	alerted bool

	window []imu.Sample
	stats  Stats
}

func New(cfg Config, model classify.Classifier, lights Lights, sink Sink) *Arbiter {
	d := DefaultConfig()
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = d.SampleRateHz
	}
	if cfg.Window <= 0 {
		cfg.Window = d.Window
	}
	if cfg.PostCapture < 0 {
		cfg.PostCapture = 0
	}
	return &Arbiter{
		cfg:          cfg,
		buf:          imu.NewBuffer(cfg.Window),
		ext:          features.NewExtractor(cfg.SampleRateHz),
		model:        model,
		lights:       lights,
		sink:         sink,
		localBrake:   newCooldown(cfg.Cooldowns.LocalBrake),
		localCrash:   newCooldown(cfg.Cooldowns.LocalCrash),
		modelAttempt: newCooldown(cfg.Cooldowns.ModelAttempt),
		modelBrake:   newCooldown(cfg.Cooldowns.ModelBrake),
		modelCrash:   newCooldown(cfg.Cooldowns.ModelCrash),
		lastMag:      1.0,
		window:       make([]imu.Sample, 0, cfg.Window),
	}
}

func (a *Arbiter) Buffer() *imu.Buffer { return a.buf }
func (a *Arbiter) Stats() Stats        { return a.stats }

// Capturing reports whether a model pass is waiting on post-trigger samples.
func (a *Arbiter) Capturing() bool { return a.capturing }

// Tick ingests one sample and runs both detection paths.
func (a *Arbiter) Tick(s imu.Sample) {
	now := s.TimestampMs
	a.stats.Ticks++
	a.buf.Push(s)

	jerk := fallback.Jerk(s.AccelMag, a.lastMag, a.cfg.SampleRateHz)
	a.lastMag = s.AccelMag

	a.local(now, s.AccelMag, jerk)
	a.modelPath(now, s.AccelMag, jerk)
	a.confirmCrash(now)
}

func (a *Arbiter) local(now uint32, mag, jerk float64) {
	if a.lights.Crashing() {
		return
	}
	switch a.cfg.Fallback.Check(mag, jerk) {
	case fallback.Crash:
		if !a.localCrash.ready(now) {
			return
		}
		a.localCrash.stamp(now)
		if a.lights.Crash(now) {
			a.stats.LocalCrashes++
			a.emit(now, classify.Crash, fallback.CrashConfidence(jerk, mag), Local)
		}
	case fallback.Brake:
		if !a.localBrake.ready(now) {
			return
		}
		a.localBrake.stamp(now)
		if a.lights.Braking() {
			a.lights.ExtendBrake(now, a.cfg.LocalBrakeHold)
			return
		}
		if a.lights.Brake(now, a.cfg.LocalBrakeHold) {
			a.stats.LocalBrakes++
			a.emit(now, classify.Brake, fallback.BrakeConfidence(jerk), Local)
		}
	}
}

func (a *Arbiter) modelPath(now uint32, mag, jerk float64) {
	if a.capturing {
		a.remaining--
		if a.remaining <= 0 {
			a.capturing = false
			a.runModel(now)
		}
		return
	}
	if a.model == nil || !a.buf.IsFull() || !a.modelAttempt.ready(now) {
		return
	}
	if mag <= a.cfg.TriggerG && jerk <= a.cfg.TriggerJerk {
		return
	}
	a.modelAttempt.stamp(now)
	if a.cfg.PostCapture == 0 {
		a.runModel(now)
		return
	}
	a.capturing = true
	a.remaining = a.cfg.PostCapture
}

func (a *Arbiter) runModel(now uint32) {
	a.window = a.buf.Snapshot(a.window[:0])
	vec := a.ext.Extract(a.window)
	res := a.model.Classify(&vec)
	a.stats.ModelPasses++
	a.stats.LastModel = res

	switch res.Class {
	case classify.Crash:
		if !a.modelCrash.ready(now) || a.lights.Crashing() {
			return
		}
		a.modelCrash.stamp(now)
		if a.lights.Crash(now) {
			a.stats.ModelCrashes++
			a.emit(now, res.Class, res.Confidence, Model)
		}
	case classify.Brake:
		if a.lights.Crashing() {
			return
		}
		if !a.modelBrake.ready(now) {
			a.lights.ExtendBrake(now, a.cfg.ModelBrakeHold)
			return
		}
		a.modelBrake.stamp(now)
		if a.lights.Braking() {
			a.lights.ExtendBrake(now, a.cfg.ModelBrakeHold)
			return
		}
		if a.lights.Brake(now, a.cfg.ModelBrakeHold) {
			a.stats.ModelBrakes++
			a.emit(now, res.Class, res.Confidence, Model)
		}
	default:
		a.emit(now, res.Class, res.Confidence, Model)
	}
}

func (a *Arbiter) confirmCrash(now uint32) {
	if !a.lights.Crashing() {
		a.alerted = false
		return
	}
	if a.alerted || a.cfg.CrashConfirm <= 0 {
		return
	}
	if imu.Since(now, a.lights.CrashSince()) >= uint32(a.cfg.CrashConfirm/time.Millisecond) {
		a.alerted = true
		a.stats.Alerts++
		if a.sink != nil {
			a.sink.Alert(now)
		}
	}
}

func (a *Arbiter) emit(now uint32, c classify.EventClass, conf float64, src Source) {
	if a.sink == nil {
		return
	}
	a.sink.Event(Event{Class: c, Confidence: conf, Source: src, TimestampMs: now})
}
