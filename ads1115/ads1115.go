// Package ads1115 drives a TI ADS1115 16-bit ADC over I²C. It digitizes the
// breath sensor strain gauge and reports readings on a 10-bit scale.
package ads1115

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

var (
	// ErrNotDevice is returned when the configuration written to the device
	// cannot be read back, meaning no ADS1115 answers at the address.
	ErrNotDevice = errors.New("ads1115: configuration read back does not match")
	// ErrTimeout is returned when a conversion does not complete in time.
	ErrTimeout = errors.New("ads1115: conversion timed out")
)

// Device defines an ADS1115 device.
type Device struct {
	dev *i2c.Dev
	bus i2c.BusCloser

	cfg    uint16
	supply float64 // volts at which the sensor reading is full scale
}

// New returns a new ADS1115 device, reading AIN0 in single-shot mode with a
// ±4.096V range at 128 samples/s, scaled for a sensor powered at 3.3V.
//
// Argument "busName" can be used to specify the exact bus to use ("/dev/i2c-1", "I2C1", "1").
// If "busName" argument is specified as an empty string "" the first available bus will be used.
// Argument "addr" can be used to specify an alternative address, 0 selects Addr.
func New(busName string, addr uint16, options ...Option) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ads1115: could not initialize host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("ads1115: could not open I2C bus: %w", err)
	}

	d, err := NewI2C(bus, addr, options...)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return d, nil
}

// NewI2C returns a new ADS1115 device on an open bus. The device takes
// ownership of the bus.
func NewI2C(bus i2c.BusCloser, addr uint16, options ...Option) (*Device, error) {
	if addr == 0 {
		addr = Addr
	}

	d := &Device{
		dev: &i2c.Dev{
			Addr: addr,
			Bus:  bus,
		},
		bus:    bus,
		supply: 3.3,
	}
	d.config(muxMask, uint16(AIN0+0b100)<<12)
	d.config(pgaMask, uint16(FS4096)<<9)
	d.config(drMask, uint16(SPS128)<<5)

	if _, err := d.Options(options...); err != nil {
		return nil, fmt.Errorf("ads1115: could not initialize device: %w", err)
	}

	// Conversions are started one at a time by Raw, with the comparator and
	// its ALERT pin unused.
	d.config(modeMask, modeSingle)
	d.config(compMask, compDisable)

	if err := d.WriteReg(RegConfig, d.cfg); err != nil {
		return nil, fmt.Errorf("ads1115: could not configure device: %w", err)
	}
	got, err := d.ReadReg(RegConfig)
	if err != nil {
		return nil, fmt.Errorf("ads1115: could not read configuration: %w", err)
	}
	if got&^OS != d.cfg {
		return nil, ErrNotDevice
	}

	return d, nil
}

// Close closes the I²C bus.
func (d *Device) Close() error {
	return d.bus.Close()
}

// Read performs a single conversion and returns it on a 0 to 1023 scale,
// where 1023 is the supply voltage.
func (d *Device) Read() (int, error) {
	v, err := d.Raw()
	if err != nil {
		return 0, err
	}

	pga := (d.cfg & pgaMask) >> 9
	fs := fullScale[min(int(pga), len(fullScale)-1)]
	top := d.supply / fs * maxRaw

	if v <= 0 {
		return 0, nil
	}
	return min(int(float64(v)*maxRead/top+0.5), maxRead), nil
}

// Raw performs a single conversion and returns the signed 16-bit result.
func (d *Device) Raw() (int16, error) {
	if err := d.WriteReg(RegConfig, d.cfg|OS); err != nil {
		return 0, fmt.Errorf("ads1115: could not start conversion: %w", err)
	}
	if err := d.waitReady(); err != nil {
		return 0, err
	}

	v, err := d.ReadReg(RegConversion)
	if err != nil {
		return 0, fmt.Errorf("ads1115: could not read conversion: %w", err)
	}

	return int16(v), nil
}

// waitReady polls the OS bit until the conversion completes, allowing twice
// the nominal conversion time.
func (d *Device) waitReady() error {
	dr := (d.cfg & drMask) >> 5
	conv := time.Duration(float64(time.Second) / dataRate[dr])
	deadline := time.Now().Add(2*conv + time.Millisecond)

	for {
		state, err := d.ReadReg(RegConfig)
		if err != nil {
			return fmt.Errorf("ads1115: could not wait for conversion: %w", err)
		} else if state&OS != 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(conv / 8)
	}
}

// ReadReg reads a 16-bit register.
func (d *Device) ReadReg(reg byte) (uint16, error) {
	b := make([]byte, 2)
	if err := d.dev.Tx([]byte{reg}, b); err != nil {
		return 0, fmt.Errorf("ads1115: could not read register %#x: %w", reg, err)
	}

	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// WriteReg writes a 16-bit register.
func (d *Device) WriteReg(reg byte, data uint16) error {
	n, err := d.dev.Write([]byte{reg, byte(data >> 8), byte(data)})
	if err != nil {
		return err
	}
	n-- // remove register write
	if n != 2 {
		return fmt.Errorf("write: wrong number of bytes written: want %d, got %d", 2, n)
	}

	return nil
}
