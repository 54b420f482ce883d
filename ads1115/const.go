package ads1115

// Addr is the default I²C address (ADDR pin tied to GND).
const Addr = 0x48

// Register addresses
const (
	RegConversion = 0x00
	RegConfig     = 0x01
)

// Config register fields
const (
	// OS starts a single conversion when written, and reads 1 when no
	// conversion is in progress.
	OS uint16 = 1 << 15

	muxMask  uint16 = 0b111 << 12
	pgaMask  uint16 = 0b111 << 9
	modeMask uint16 = 1 << 8
	drMask   uint16 = 0b111 << 5
	compMask uint16 = 0b11111

	modeSingle  uint16 = 1 << 8
	compDisable uint16 = 0b00011
)

// Single ended input channels.
const (
	AIN0 = iota
	AIN1
	AIN2
	AIN3
)

// Programmable gain amplifier full scale ranges.
const (
	FS6144 = iota // ±6.144V
	FS4096        // ±4.096V
	FS2048        // ±2.048V
	FS1024        // ±1.024V
	FS512         // ±0.512V
	FS256         // ±0.256V
)

var fullScale = [...]float64{6.144, 4.096, 2.048, 1.024, 0.512, 0.256}

// Data rates in samples per second.
const (
	SPS8 = iota
	SPS16
	SPS32
	SPS64
	SPS128
	SPS250
	SPS475
	SPS860
)

var dataRate = [...]float64{8, 16, 32, 64, 128, 250, 475, 860}

// Resolution of the readings returned by Device.Read, matching the 10-bit
// converter the breath processing is tuned for.
const (
	maxRaw  = 32767
	maxRead = 1023
)
