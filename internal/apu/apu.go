// Package apu implements the Audio Processing Unit: two pulse
// channels, a triangle channel, a noise channel, a DMC channel, the
// frame counter that drives their envelope/sweep/length/linear units,
// and the mixer that turns their outputs into a single sample stream.
package apu

// CPUFrequency is the NTSC CPU clock rate the APU is clocked from.
const CPUFrequency = 1789773

// FrameCounterRate is the divider that turns CPU cycles into the
// 240 Hz frame-sequencer clock.
const FrameCounterRate = CPUFrequency / 240

const sampleRateDivider = CPUFrequency / 44100

// CPUBus is the callback interface the APU uses to fetch DMC sample
// bytes through the CPU's address space, charging the stall cycles
// the real DMA unit imposes on the CPU.
type CPUBus interface {
	Read(address uint16) uint8
	AddStall(cycles uint64)
}

// APU is the NES Audio Processing Unit.
type APU struct {
	pulse1   PulseChannel
	pulse2   PulseChannel
	triangle TriangleChannel
	noise    NoiseChannel
	dmc      DMCChannel

	cycle uint64

	frameMode      bool // false = 4-step, true = 5-step
	frameStep      uint8
	frameIRQEnable bool
	frameIRQFlag   bool

	channelEnable [5]bool

	cpuBus      CPUBus
	writeSample func(sample float64)
}

// PulseChannel is one of the two pulse-wave channels.
type PulseChannel struct {
	isPulse1 bool

	dutyMode   uint8
	dutyValue  uint8
	lengthHalt bool
	constant   bool
	volume     uint8

	sweepEnable bool
	sweepPeriod uint8
	sweepNegate bool
	sweepShift  uint8
	sweepReload bool
	sweepValue  uint8

	timerPeriod uint16
	timerValue  uint16

	lengthValue uint8

	envelopeStart   bool
	envelopeValue   uint8
	envelopeVolume  uint8
	envelopeEnabled bool
}

// TriangleChannel is the triangle-wave channel.
type TriangleChannel struct {
	lengthEnabled bool
	lengthValue   uint8

	timerPeriod uint16
	timerValue  uint16
	dutyValue   uint8

	counterPeriod uint8
	counterValue  uint8
	counterReload bool
}

// NoiseChannel is the noise channel.
type NoiseChannel struct {
	lengthHalt bool
	constant   bool
	volume     uint8

	mode        bool
	timerPeriod uint16
	timerValue  uint16

	lengthValue uint8
	shift       uint16

	envelopeStart   bool
	envelopeValue   uint8
	envelopeVolume  uint8
	envelopeEnabled bool
}

// DMCChannel is the delta-modulation sample-playback channel.
type DMCChannel struct {
	irqEnable bool
	loop      bool
	rate      uint16

	value uint8

	sampleAddress uint16
	sampleLength  uint16

	currentAddress uint16
	bytesRemaining uint16

	shiftRegister uint8
	bitCount      uint8
	tickValue     uint16
	tickPeriod    uint16

	irqFlag bool
}

// New creates an APU with the frame counter in 4-step mode.
func New() *APU {
	a := &APU{
		frameIRQEnable: true,
	}
	a.noise.shift = 1
	return a
}

// SetCPUBus wires the callback used for DMC sample-byte reads.
func (a *APU) SetCPUBus(bus CPUBus) { a.cpuBus = bus }

// SetSampleCallback wires the host's per-sample audio sink.
func (a *APU) SetSampleCallback(callback func(sample float64)) { a.writeSample = callback }

// Reset restores the APU to power-on state.
func (a *APU) Reset() {
	a.pulse1 = PulseChannel{isPulse1: true}
	a.pulse2 = PulseChannel{}
	a.triangle = TriangleChannel{}
	a.noise = NoiseChannel{shift: 1}
	a.dmc = DMCChannel{}

	a.cycle = 0
	a.frameMode = false
	a.frameStep = 0
	a.frameIRQEnable = true
	a.frameIRQFlag = false

	for i := range a.channelEnable {
		a.channelEnable[i] = false
	}
}

// Step advances the APU by one CPU cycle.
func (a *APU) Step() {
	prev := a.cycle
	a.cycle++
	now := a.cycle

	if prev/FrameCounterRate != now/FrameCounterRate {
		a.stepFrameCounter()
	}
	if prev/sampleRateDivider != now/sampleRateDivider {
		a.emitSample()
	}

	a.stepTriangleTimer()
	if a.cycle%2 == 0 {
		a.stepPulseTimer(&a.pulse1)
		a.stepPulseTimer(&a.pulse2)
		a.stepNoiseTimer()
		a.stepDMCTimer()
	}
}

func (a *APU) emitSample() {
	if a.writeSample == nil {
		return
	}
	p1 := a.pulseOutput(&a.pulse1)
	p2 := a.pulseOutput(&a.pulse2)
	t := a.triangleOutput()
	n := a.noiseOutput()
	d := a.dmc.value

	pulseOut := pulseTable[p1+p2]
	tndOut := tndTable[3*t+2*n+d]
	a.writeSample(pulseOut + tndOut)
}

// stepFrameCounter advances the 4- or 5-step envelope/sweep/length
// sequencer and raises the frame IRQ in 4-step mode.
func (a *APU) stepFrameCounter() {
	if a.frameMode {
		switch a.frameStep {
		case 0, 2:
			a.clockEnvelopesAndLinear()
		case 1, 3:
			a.clockEnvelopesAndLinear()
			a.clockLengthAndSweep()
		case 4:
			// idle step
		}
		a.frameStep = (a.frameStep + 1) % 5
	} else {
		switch a.frameStep {
		case 0, 2:
			a.clockEnvelopesAndLinear()
		case 1:
			a.clockEnvelopesAndLinear()
			a.clockLengthAndSweep()
		case 3:
			a.clockEnvelopesAndLinear()
			a.clockLengthAndSweep()
			if a.frameIRQEnable {
				a.frameIRQFlag = true
			}
		}
		a.frameStep = (a.frameStep + 1) % 4
	}
}

func (a *APU) clockEnvelopesAndLinear() {
	a.clockPulseEnvelope(&a.pulse1)
	a.clockPulseEnvelope(&a.pulse2)
	a.clockNoiseEnvelope()
	a.clockTriangleLinear()
}

func (a *APU) clockPulseEnvelope(p *PulseChannel) {
	if p.envelopeStart {
		p.envelopeStart = false
		p.envelopeVolume = 15
		p.envelopeValue = p.volume
		return
	}
	if p.envelopeValue > 0 {
		p.envelopeValue--
		return
	}
	p.envelopeValue = p.volume
	if p.envelopeVolume > 0 {
		p.envelopeVolume--
	} else if p.lengthHalt {
		p.envelopeVolume = 15
	}
}

func (a *APU) clockNoiseEnvelope() {
	n := &a.noise
	if n.envelopeStart {
		n.envelopeStart = false
		n.envelopeVolume = 15
		n.envelopeValue = n.volume
		return
	}
	if n.envelopeValue > 0 {
		n.envelopeValue--
		return
	}
	n.envelopeValue = n.volume
	if n.envelopeVolume > 0 {
		n.envelopeVolume--
	} else if n.lengthHalt {
		n.envelopeVolume = 15
	}
}

func (a *APU) clockTriangleLinear() {
	t := &a.triangle
	if t.counterReload {
		t.counterValue = t.counterPeriod
	} else if t.counterValue > 0 {
		t.counterValue--
	}
	if t.lengthEnabled {
		t.counterReload = false
	}
}

func (a *APU) clockLengthAndSweep() {
	a.clockPulseLength(&a.pulse1)
	a.clockPulseSweep(&a.pulse1)
	a.clockPulseLength(&a.pulse2)
	a.clockPulseSweep(&a.pulse2)
	if a.triangle.lengthEnabled && a.triangle.lengthValue > 0 {
		a.triangle.lengthValue--
	}
	if !a.noise.lengthHalt && a.noise.lengthValue > 0 {
		a.noise.lengthValue--
	}
}

func (a *APU) clockPulseLength(p *PulseChannel) {
	if !p.lengthHalt && p.lengthValue > 0 {
		p.lengthValue--
	}
}

// clockPulseSweep implements the sweep unit, including pulse 1's
// one's-complement quirk: it subtracts one extra on a negative sweep
// so that a given shift produces a slightly lower target period than
// pulse 2's two's-complement subtraction.
func (a *APU) clockPulseSweep(p *PulseChannel) {
	if p.sweepValue == 0 && p.sweepEnable && p.sweepShift > 0 {
		delta := p.timerPeriod >> p.sweepShift
		if p.sweepNegate {
			if p.isPulse1 {
				p.timerPeriod -= delta + 1
			} else {
				p.timerPeriod -= delta
			}
		} else {
			p.timerPeriod += delta
		}
	}
	if p.sweepValue == 0 || p.sweepReload {
		p.sweepValue = p.sweepPeriod
		p.sweepReload = false
	} else {
		p.sweepValue--
	}
}

func (a *APU) stepPulseTimer(p *PulseChannel) {
	if p.timerValue == 0 {
		p.timerValue = p.timerPeriod
		p.dutyValue = (p.dutyValue + 1) & 0x07
	} else {
		p.timerValue--
	}
}

func (a *APU) stepTriangleTimer() {
	t := &a.triangle
	if t.timerValue == 0 {
		t.timerValue = t.timerPeriod
		if t.lengthValue > 0 && t.counterValue > 0 {
			t.dutyValue = (t.dutyValue + 1) & 0x1F
		}
	} else {
		t.timerValue--
	}
}

func (a *APU) stepNoiseTimer() {
	n := &a.noise
	if n.timerValue == 0 {
		n.timerValue = n.timerPeriod
		var feedback uint16
		if n.mode {
			feedback = (n.shift & 1) ^ ((n.shift >> 6) & 1)
		} else {
			feedback = (n.shift & 1) ^ ((n.shift >> 1) & 1)
		}
		n.shift = (n.shift >> 1) | (feedback << 14)
	} else {
		n.timerValue--
	}
}

// stepDMCTimer clocks the DMC output unit and, when its internal
// shift register empties, fetches the next sample byte over the CPU
// bus at the cost of 4 CPU stall cycles.
func (a *APU) stepDMCTimer() {
	d := &a.dmc
	if d.tickValue == 0 {
		d.tickValue = d.tickPeriod

		if d.bitCount > 0 {
			if d.shiftRegister&0x01 != 0 {
				if d.value <= 125 {
					d.value += 2
				}
			} else {
				if d.value >= 2 {
					d.value -= 2
				}
			}
			d.shiftRegister >>= 1
			d.bitCount--
		}

		if d.bitCount == 0 && d.bytesRemaining > 0 {
			if a.cpuBus != nil {
				d.shiftRegister = a.cpuBus.Read(d.currentAddress)
				a.cpuBus.AddStall(4)
			}
			d.bitCount = 8
			d.currentAddress++
			if d.currentAddress == 0 {
				d.currentAddress = 0x8000
			}
			d.bytesRemaining--

			if d.bytesRemaining == 0 {
				if d.loop {
					d.currentAddress = d.sampleAddress
					d.bytesRemaining = d.sampleLength
				} else if d.irqEnable {
					d.irqFlag = true
				}
			}
		}
	} else {
		d.tickValue--
	}
}

func (a *APU) pulseOutput(p *PulseChannel) uint8 {
	if p.lengthValue == 0 || dutyTable[p.dutyMode][p.dutyValue] == 0 ||
		p.timerPeriod < 8 || p.timerPeriod > 0x7FF {
		return 0
	}
	if p.constant {
		return p.volume
	}
	return p.envelopeVolume
}

func (a *APU) triangleOutput() uint8 {
	t := &a.triangle
	if t.lengthValue == 0 || t.counterValue == 0 || t.timerPeriod < 3 {
		return 0
	}
	return triangleTable[t.dutyValue]
}

func (a *APU) noiseOutput() uint8 {
	n := &a.noise
	if n.lengthValue == 0 || n.shift&0x01 != 0 {
		return 0
	}
	if n.constant {
		return n.volume
	}
	return n.envelopeVolume
}

// WriteRegister dispatches a CPU write to one of the APU's registers.
func (a *APU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x4000:
		a.writePulseControl(&a.pulse1, value)
	case 0x4001:
		a.writePulseSweep(&a.pulse1, value)
	case 0x4002:
		a.writePulseTimerLow(&a.pulse1, value)
	case 0x4003:
		a.writePulseTimerHigh(&a.pulse1, value)

	case 0x4004:
		a.writePulseControl(&a.pulse2, value)
	case 0x4005:
		a.writePulseSweep(&a.pulse2, value)
	case 0x4006:
		a.writePulseTimerLow(&a.pulse2, value)
	case 0x4007:
		a.writePulseTimerHigh(&a.pulse2, value)

	case 0x4008:
		a.triangle.lengthEnabled = value&0x80 == 0
		a.triangle.counterPeriod = value & 0x7F
	case 0x400A:
		a.triangle.timerPeriod = (a.triangle.timerPeriod & 0xFF00) | uint16(value)
	case 0x400B:
		a.triangle.timerPeriod = (a.triangle.timerPeriod & 0x00FF) | (uint16(value&0x07) << 8)
		a.triangle.lengthValue = lengthTable[value>>3]
		a.triangle.counterReload = true

	case 0x400C:
		a.noise.lengthHalt = value&0x20 != 0
		a.noise.constant = value&0x10 != 0
		a.noise.volume = value & 0x0F
	case 0x400E:
		a.noise.mode = value&0x80 != 0
		a.noise.timerPeriod = noisePeriodTable[value&0x0F]
	case 0x400F:
		a.noise.lengthValue = lengthTable[value>>3]
		a.noise.envelopeStart = true

	case 0x4010:
		a.dmc.irqEnable = value&0x80 != 0
		a.dmc.loop = value&0x40 != 0
		a.dmc.tickPeriod = dmcRateTable[value&0x0F]
		if !a.dmc.irqEnable {
			a.dmc.irqFlag = false
		}
	case 0x4011:
		a.dmc.value = value & 0x7F
	case 0x4012:
		a.dmc.sampleAddress = 0xC000 | (uint16(value) << 6)
	case 0x4013:
		a.dmc.sampleLength = (uint16(value) << 4) | 1

	case 0x4015:
		a.writeChannelEnable(value)
	case 0x4017:
		a.writeFrameCounter(value)
	}
}

func (a *APU) writePulseControl(p *PulseChannel, value uint8) {
	p.dutyMode = (value >> 6) & 0x03
	p.lengthHalt = value&0x20 != 0
	p.constant = value&0x10 != 0
	p.volume = value & 0x0F
	p.envelopeStart = true
}

func (a *APU) writePulseSweep(p *PulseChannel, value uint8) {
	p.sweepEnable = value&0x80 != 0
	p.sweepPeriod = (value >> 4) & 0x07
	p.sweepNegate = value&0x08 != 0
	p.sweepShift = value & 0x07
	p.sweepReload = true
}

func (a *APU) writePulseTimerLow(p *PulseChannel, value uint8) {
	p.timerPeriod = (p.timerPeriod & 0xFF00) | uint16(value)
}

func (a *APU) writePulseTimerHigh(p *PulseChannel, value uint8) {
	p.timerPeriod = (p.timerPeriod & 0x00FF) | (uint16(value&0x07) << 8)
	p.lengthValue = lengthTable[value>>3]
	p.envelopeStart = true
	p.dutyValue = 0
}

func (a *APU) writeChannelEnable(value uint8) {
	a.channelEnable[0] = value&0x01 != 0
	a.channelEnable[1] = value&0x02 != 0
	a.channelEnable[2] = value&0x04 != 0
	a.channelEnable[3] = value&0x08 != 0
	a.channelEnable[4] = value&0x10 != 0

	if !a.channelEnable[0] {
		a.pulse1.lengthValue = 0
	}
	if !a.channelEnable[1] {
		a.pulse2.lengthValue = 0
	}
	if !a.channelEnable[2] {
		a.triangle.lengthValue = 0
	}
	if !a.channelEnable[3] {
		a.noise.lengthValue = 0
	}
	if !a.channelEnable[4] {
		a.dmc.bytesRemaining = 0
	} else if a.dmc.bytesRemaining == 0 {
		a.dmc.currentAddress = a.dmc.sampleAddress
		a.dmc.bytesRemaining = a.dmc.sampleLength
	}

	a.dmc.irqFlag = false
}

func (a *APU) writeFrameCounter(value uint8) {
	a.frameMode = value&0x80 != 0
	a.frameIRQEnable = value&0x40 == 0
	if !a.frameIRQEnable {
		a.frameIRQFlag = false
	}
	a.frameStep = 0

	if a.frameMode {
		a.clockEnvelopesAndLinear()
		a.clockLengthAndSweep()
	}
}

// ReadStatus reads $4015, clearing the frame-IRQ flag as a side
// effect.
func (a *APU) ReadStatus() uint8 {
	var status uint8
	if a.pulse1.lengthValue > 0 {
		status |= 0x01
	}
	if a.pulse2.lengthValue > 0 {
		status |= 0x02
	}
	if a.triangle.lengthValue > 0 {
		status |= 0x04
	}
	if a.noise.lengthValue > 0 {
		status |= 0x08
	}
	if a.dmc.bytesRemaining > 0 {
		status |= 0x10
	}
	if a.frameIRQFlag {
		status |= 0x40
	}
	if a.dmc.irqFlag {
		status |= 0x80
	}
	a.frameIRQFlag = false
	return status
}

// IRQPending reports whether either the frame counter or the DMC
// channel has a pending IRQ.
func (a *APU) IRQPending() bool {
	return a.frameIRQFlag || a.dmc.irqFlag
}

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// pulseTable and tndTable are precomputed once at package init so the
// mixer never has to evaluate the NES's non-linear DAC formulas in
// the hot sampling path.
var pulseTable [31]float64
var tndTable [203]float64

func init() {
	for i := 1; i < len(pulseTable); i++ {
		pulseTable[i] = 95.52 / (8128.0/float64(i) + 100.0)
	}
	for i := 1; i < len(tndTable); i++ {
		tndTable[i] = 163.67 / (24329.0/float64(i) + 100.0)
	}
}
