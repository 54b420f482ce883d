package ads1115

import "fmt"

// Option defines a functional option for the device.
type Option func(d *Device) (Option, error)

// Options set different configuration options and returns the previous value
// of the last option passed.
func (d *Device) Options(options ...Option) (Option, error) {
	var old Option
	var err error
	for _, opt := range options {
		old, err = opt(d)
		if err != nil {
			return nil, err
		}
	}

	return old, nil
}

func (d *Device) config(mask, flag uint16) uint16 {
	old := d.cfg & mask
	d.cfg &^= mask
	d.cfg |= flag & mask

	return old
}

// Channel selects the single ended input read against GND.
func Channel(ch int) Option {
	return func(d *Device) (Option, error) {
		if ch < AIN0 || ch > AIN3 {
			return nil, fmt.Errorf("ads1115: invalid channel %d", ch)
		}
		old := d.config(muxMask, uint16(ch+0b100)<<12)

		return Channel(int(old>>12) - 0b100), nil
	}
}

// Range sets the full scale range of the programmable gain amplifier.
func Range(fs int) Option {
	return func(d *Device) (Option, error) {
		if fs < FS6144 || fs > FS256 {
			return nil, fmt.Errorf("ads1115: invalid range %d", fs)
		}
		old := d.config(pgaMask, uint16(fs)<<9)

		return Range(int(old >> 9)), nil
	}
}

// DataRate sets the conversion rate.
func DataRate(dr int) Option {
	return func(d *Device) (Option, error) {
		if dr < SPS8 || dr > SPS860 {
			return nil, fmt.Errorf("ads1115: invalid data rate %d", dr)
		}
		old := d.config(drMask, uint16(dr)<<5)

		return DataRate(int(old >> 5)), nil
	}
}

// Supply sets the voltage that maps to the top of the 10-bit scale, usually
// the supply of the sensor bridge. It accepts values from 0.1V to 6.144V.
func Supply(volts float64) Option {
	return func(d *Device) (Option, error) {
		if volts > 6.144 {
			volts = 6.144
		}
		if volts < 0.1 {
			volts = 0.1
		}
		old := d.supply
		d.supply = volts

		return Supply(old), nil
	}
}
