//go:build stm32f7

package stm32f7

import (
	"machine"

	"github.com/tinygo-org/motorboot/boot"
)

// Indicator channels.
const (
	MotorL boot.Channel = iota
	MotorR
	numChannels
)

// breathPeriod is the length of one indicator breath in loop iterations.
const breathPeriod = 512

// PWM is the subset of a TinyGo PWM peripheral used by the indicator.
type PWM interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
	Top() uint32
}

// Indicator drives the motor outputs as a liveness indicator. The level set
// for a channel is modulated by a slow triangle wave, advanced by Step.
type Indicator struct {
	pwm   PWM
	pins  [numChannels]machine.Pin
	ch    [numChannels]uint8
	level [numChannels]float32
	phase int
}

// NewIndicator returns an indicator on pwm with one pin per channel.
func NewIndicator(pwm PWM, motorL, motorR machine.Pin) *Indicator {
	return &Indicator{pwm: pwm, pins: [numChannels]machine.Pin{motorL, motorR}}
}

// configure is called by the HAL, which also owns the timer teardown.
func (ind *Indicator) configure() error {
	if err := ind.pwm.Configure(machine.PWMConfig{Period: 50000}); err != nil { // 20kHz
		return err
	}
	for i, pin := range ind.pins {
		ch, err := ind.pwm.Channel(pin)
		if err != nil {
			return err
		}
		ind.ch[i] = ch
		ind.pwm.Set(ch, 0)
	}
	return nil
}

// SetLevel implements boot.Indicator.
func (ind *Indicator) SetLevel(ch boot.Channel, level float32) {
	if ch >= numChannels {
		return
	}
	switch {
	case level < 0:
		level = 0
	case level > 1:
		level = 1
	}
	ind.level[ch] = level
}

// Step implements boot.Indicator.
func (ind *Indicator) Step() {
	ind.phase = (ind.phase + 1) % breathPeriod
	wave := float32(ind.phase) / (breathPeriod / 2)
	if wave > 1 {
		wave = 2 - wave
	}
	top := float32(ind.pwm.Top())
	for i := range ind.ch {
		// The motors only hum, they never turn: duty is capped at 5%.
		ind.pwm.Set(ind.ch[i], uint32(top*0.05*ind.level[i]*wave))
	}
}
