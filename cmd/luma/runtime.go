package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"luma/internal/actuation"
	"luma/internal/arbiter"
	"luma/internal/button"
	"luma/internal/classify"
	"luma/internal/config"
	"luma/internal/i2c"
	"luma/internal/imu"
	"luma/internal/ledstrip"
	"luma/internal/link"
	"luma/internal/mount"
	"luma/internal/replay"
	"luma/internal/sensors/mpu6500"
	"luma/internal/sim"
	"luma/internal/wire"
)

// sampleSource is what the loop reads every tick.
type sampleSource interface {
	Read(now uint32) (imu.Sample, error)
	Close() error
}

var (
	openSensorFn = openSensor
	openStripFn  = ledstrip.Open
	newLinkFn    = link.New
)

type runtime struct {
	cfg    config.Config
	period time.Duration
	start  time.Time

	sensor       sampleSource
	sensorErr    error
	mount        *mount.Mount
	mountSettled bool
	strip        ledstrip.Strip
	machine      *actuation.Machine
	arb          *arbiter.Arbiter
	link         link.Link
	mailbox      *actuation.Mailbox
	button       *button.Button
	rec          *replay.Writer

	linked bool

	last        imu.Sample
	haveLast    bool
	consecutive int
	glitches    uint64
	faulted     bool

	lastStatus   uint32
	statusPrimed bool
	showErrs     uint64
	recErrs      uint64
	scratch      []byte
}

func newRuntime(cfg config.Config) (*runtime, error) {
	r := &runtime{
		cfg:     cfg,
		period:  cfg.SamplePeriod(),
		start:   time.Now(),
		machine: actuation.NewMachine(actuationConfig(cfg)),
		mailbox: &actuation.Mailbox{},
		link:    link.None{},
	}

	strip, err := openStripFn(stripConfig(cfg))
	if err != nil {
		log.Printf("leds unavailable, running dark: %v", err)
		strip = &ledstrip.None{}
	}
	r.strip = strip

	sensor, err := openSensorFn(cfg)
	if err != nil {
		// Boot continues so the strip can show the fault.
		r.sensorErr = err
		log.Printf("sensor unavailable: %v", err)
		return r, nil
	}
	r.sensor = sensor

	m, err := mount.New(mountConfig(cfg))
	if err != nil {
		r.Close()
		return nil, err
	}
	r.mount = m

	model, err := classify.New(cfg.Detect.Classifier)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.arb = arbiter.New(arbiterConfig(cfg), model, r.machine, r)

	lk, err := newLinkFn(linkConfig(cfg), r.mailbox)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.link = lk

	btn, err := button.Open(buttonConfig(cfg), r.mailbox)
	if err != nil {
		log.Printf("dismiss button unavailable: %v", err)
	}
	r.button = btn

	if cfg.Record.Path != "" {
		w, err := replay.CreateWriter(cfg.Record.Path)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.rec = w
		log.Printf("recording ride to %s", cfg.Record.Path)
	}
	return r, nil
}

func openSensor(cfg config.Config) (sampleSource, error) {
	s := cfg.Sensor
	switch s.Driver {
	case "sim":
		script, err := sim.LoadScript(s.Sim.Script)
		if err != nil {
			return nil, err
		}
		scn, err := sim.NewScenario(script)
		if err != nil {
			return nil, err
		}
		return sim.NewSensor(scn, s.Sim.Loop), nil
	case "replay":
		return replay.OpenSensor(s.Replay.Path, s.Replay.Loop)
	case "mpu6500":
		bus, err := i2c.Open(s.I2CBus)
		if err != nil {
			return nil, err
		}
		dev, err := mpu6500.New(bus.Dev(s.Address))
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		log.Printf("sensor: %s on %s addr=0x%02X", dev.Model(), s.I2CBus, s.Address)
		return &busSensor{Device: dev, bus: bus}, nil
	default:
		return nil, fmt.Errorf("unknown sensor driver %q", s.Driver)
	}
}

// busSensor releases the i2c bus along with the device.
type busSensor struct {
	*mpu6500.Device
	bus *i2c.Bus
}

func (s *busSensor) Close() error {
	_ = s.Device.Close()
	return s.bus.Close()
}

func (r *runtime) now() uint32 {
	return uint32(time.Since(r.start) / time.Millisecond)
}

// Run drives the control loop at the sample period until ctx is done or a
// non-looping replay runs out.
func (r *runtime) Run(ctx context.Context) error {
	t := time.NewTicker(r.period)
	defer t.Stop()

	if r.sensorErr != nil {
		r.machine.Fault()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				r.show(r.now())
			}
		}
	}

	if err := r.link.Start(ctx); err != nil {
		log.Printf("link start failed, continuing offline: %v", err)
		_ = r.link.Close()
		r.link = link.None{}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := r.step(r.now()); err != nil {
				if errors.Is(err, replay.ErrEnd) {
					log.Printf("replay finished: %+v", r.arb.Stats())
					return nil
				}
				return err
			}
		}
	}
}

// step runs one tick. Order matters: commands and link edges land before
// detection so a dismiss and a new crash in the same tick resolve as crash.
func (r *runtime) step(now uint32) error {
	if c, ok := r.mailbox.Take(); ok {
		if r.machine.Apply(c) {
			log.Printf("command %s -> %s", c, r.machine.Pattern())
		}
	}

	if up := r.link.Connected(); up != r.linked {
		r.linked = up
		r.machine.SetLinked(now, up)
		if up {
			log.Printf("link up")
		} else {
			log.Printf("link down")
		}
	}

	if !r.faulted {
		s, ok, err := r.read(now)
		if err != nil {
			return err
		}
		if ok {
			r.arb.Tick(s)
			r.publish(now, s)
		}
	}

	r.show(now)
	return nil
}

// read returns the next sample, substituting the last good one on a glitch.
// ok is false when there is nothing to feed the arbiter this tick.
func (r *runtime) read(now uint32) (s imu.Sample, ok bool, err error) {
	s, err = r.sensor.Read(now)
	if err == nil {
		s = r.orient(s)
		r.consecutive = 0
		r.last, r.haveLast = s, true
		return s, true, nil
	}
	if errors.Is(err, replay.ErrEnd) {
		return imu.Sample{}, false, err
	}

	r.glitches++
	r.consecutive++
	if r.glitches == 1 || r.glitches%250 == 0 {
		log.Printf("sensor read failed (%d total): %v", r.glitches, err)
	}
	if r.consecutive >= r.cfg.Sensor.GlitchLimit {
		log.Printf("sensor failed %d reads in a row, faulting", r.consecutive)
		r.faulted = true
		r.machine.Fault()
		return imu.Sample{}, false, nil
	}
	if !r.haveLast {
		return imu.Sample{}, false, nil
	}
	l := r.last
	return imu.NewSample(l.Ax, l.Ay, l.Az, l.Gx, l.Gy, l.Gz, now), true, nil
}

// orient remaps s into the body frame and logs once when leveling settles.
func (r *runtime) orient(s imu.Sample) imu.Sample {
	s = r.mount.Apply(s)
	if r.mountSettled || !r.mount.Enabled() {
		return s
	}
	if r.mount.Ready() {
		r.mountSettled = true
		log.Printf("mount leveled, gravity along sensor axis %+d", r.mount.GravityAxis())
	} else if err := r.mount.Err(); err != nil {
		r.mountSettled = true
		log.Printf("mount leveling failed, using raw axes: %v", err)
	}
	return s
}

func (r *runtime) publish(now uint32, s imu.Sample) {
	if r.rec != nil || (r.linked && r.cfg.Link.StreamIMU) {
		r.scratch = wire.TelemetryFromSample(s).Append(r.scratch[:0])
		if r.linked && r.cfg.Link.StreamIMU {
			r.link.Notify(wire.TopicIMU, r.scratch)
		}
		r.record(wire.TopicIMU, r.scratch)
	}

	if !r.linked {
		return
	}
	interval := uint32(r.cfg.Link.StatusInterval / time.Millisecond)
	if r.statusPrimed && imu.Since(now, r.lastStatus) < interval {
		return
	}
	r.lastStatus, r.statusPrimed = now, true
	st := wire.StatusFromSample(uint8(r.machine.Pattern()), s)
	r.link.Notify(wire.TopicStatus, st.Append(nil))
}

func (r *runtime) show(now uint32) {
	f, changed := r.machine.Advance(now)
	if !changed {
		return
	}
	if err := r.strip.Show(f); err != nil {
		r.showErrs++
		if r.showErrs == 1 || r.showErrs%250 == 0 {
			log.Printf("leds show failed (%d total): %v", r.showErrs, err)
		}
	}
}

func (r *runtime) record(topic wire.Topic, payload []byte) {
	if r.rec == nil {
		return
	}
	if err := r.rec.WriteMessage(time.Now(), topic, payload); err != nil {
		r.recErrs++
		if r.recErrs == 1 || r.recErrs%250 == 0 {
			log.Printf("ride log write failed (%d total): %v", r.recErrs, err)
		}
	}
}

// Event implements arbiter.Sink.
func (r *runtime) Event(e arbiter.Event) {
	log.Printf("event %s from %s confidence=%.2f at %dms", e.Class, e.Source, e.Confidence, e.TimestampMs)
	p := wire.Event{Class: uint8(e.Class), Confidence: float32(e.Confidence)}.Append(nil)
	r.link.Notify(wire.TopicEvent, p)
	r.record(wire.TopicEvent, p)
}

// Alert implements arbiter.Sink.
func (r *runtime) Alert(now uint32) {
	log.Printf("crash unconfirmed after %s", r.cfg.Detect.CrashConfirm)
	p := wire.AppendAlert(nil)
	r.link.Notify(wire.TopicAlert, p)
	r.record(wire.TopicAlert, p)
}

func (r *runtime) Close() {
	if r.link != nil {
		_ = r.link.Close()
	}
	if r.button != nil {
		_ = r.button.Close()
	}
	if r.sensor != nil {
		_ = r.sensor.Close()
	}
	if r.strip != nil {
		_ = r.strip.Show(make(actuation.Frame, r.cfg.LEDs.Count))
		_ = r.strip.Close()
	}
	if r.rec != nil {
		if err := r.rec.Close(); err != nil {
			log.Printf("ride log close failed: %v", err)
		}
	}
}
