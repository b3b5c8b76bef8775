package mpu6500

import (
	"errors"
	"fmt"
	"time"

	"luma/internal/i2c"
	"luma/internal/imu"
)

var sleep = time.Sleep

// ErrNotFound means nothing answering as an MPU-6500 family part sits at
// the configured address.
var ErrNotFound = errors.New("mpu6500: device not found")

const (
	addrDefault = 0x68

	regConfig      = 0x1A
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXoutH  = 0x3B // accel, temp, gyro: 14 contiguous bytes
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	dlpf41Hz    = 0x04
	fsGyro500   = 0x08
	fsAccel8g   = 0x10
	burstLength = 14

	lsbPerG   = 4096.0
	lsbPerDps = 65.5
)

// WHO_AM_I values seen on MPU-6500, MPU-9250 and MPU-6050 boards.
var knownIDs = map[byte]string{
	0x70: "MPU-6500",
	0x71: "MPU-9250",
	0x68: "MPU-6050",
}

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

type Device struct {
	dev   regIO
	model string
	buf   [burstLength]byte
}

func DefaultAddress() uint16 { return addrDefault }

func New(dev *i2c.Dev) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("mpu6500: dev is nil")
	}
	return newWithIO(dev)
}

func newWithIO(dev regIO) (*Device, error) {
	who, err := dev.ReadRegU8(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("%w: whoami read: %v", ErrNotFound, err)
	}
	model, ok := knownIDs[who]
	if !ok {
		return nil, fmt.Errorf("%w: whoami=0x%02X", ErrNotFound, who)
	}

	d := &Device{dev: dev, model: model}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Model names the part identified at probe time.
func (d *Device) Model() string { return d.model }

func (d *Device) init() error {
	steps := []struct {
		reg, val byte
		what     string
	}{
		{regPwrMgmt1, 0x00, "wake"},
		{regConfig, dlpf41Hz, "dlpf"},
		{regGyroConfig, fsGyro500, "gyro range"},
		{regAccelConfig, fsAccel8g, "accel range"},
	}
	for i, s := range steps {
		if err := d.dev.WriteReg(s.reg, s.val); err != nil {
			return fmt.Errorf("mpu6500: %s: %w", s.what, err)
		}
		if i == 0 {
			// Oscillator settles after wake.
			sleep(100 * time.Millisecond)
		}
	}
	return nil
}

// Read burst-reads accel and gyro and stamps the sample with now (ms).
func (d *Device) Read(now uint32) (imu.Sample, error) {
	if err := d.dev.ReadReg(regAccelXoutH, d.buf[:]); err != nil {
		return imu.Sample{}, fmt.Errorf("mpu6500: read: %w", err)
	}
	b := d.buf[:]
	word := func(i int) float64 { return float64(int16(uint16(b[i])<<8 | uint16(b[i+1]))) }

	// Bytes 6..7 are temperature.
	return imu.NewSample(
		word(0)/lsbPerG, word(2)/lsbPerG, word(4)/lsbPerG,
		word(8)/lsbPerDps, word(10)/lsbPerDps, word(12)/lsbPerDps,
		now,
	), nil
}

func (d *Device) Close() error { return nil }
