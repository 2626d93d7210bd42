// Package boottest provides recording test doubles for the boot package.
//
// Every double appends its calls to a shared [Recorder], so tests can assert
// on the global order of peripheral, session and CPU operations:
//
//	rec := new(boottest.Recorder)
//	cpu := &boottest.CPU{Rec: rec}
//	...
//	halted := boottest.RunToHalt(m.Run)
//	rec.Filter("link.", "debug.", "hal.", "cpu.")
package boottest

import (
	"fmt"
	"strings"

	"github.com/tinygo-org/motorboot/boot"
)

// Recorder collects events in call order.
type Recorder struct {
	Events []string
}

// Record appends a formatted event.
func (r *Recorder) Record(format string, args ...any) {
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
}

// Filter returns the events starting with any of the given prefixes, in
// order.
func (r *Recorder) Filter(prefixes ...string) []string {
	var out []string
	for _, ev := range r.Events {
		for _, p := range prefixes {
			if strings.HasPrefix(ev, p) {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

// Count returns how many times event was recorded.
func (r *Recorder) Count(event string) int {
	n := 0
	for _, ev := range r.Events {
		if ev == event {
			n++
		}
	}
	return n
}

// Index returns the position of the first occurrence of event, or -1.
func (r *Recorder) Index(event string) int {
	for i, ev := range r.Events {
		if ev == event {
			return i
		}
	}
	return -1
}

// Peripheral records "<name>.init" and "<name>.deinit".
type Peripheral struct {
	Name      string
	Rec       *Recorder
	InitErr   error
	DeinitErr error
}

// Init implements boot.Peripheral.
func (p *Peripheral) Init() error {
	p.Rec.Record("%s.init", p.Name)
	return p.InitErr
}

// Deinit implements boot.Peripheral.
func (p *Peripheral) Deinit() error {
	p.Rec.Record("%s.deinit", p.Name)
	return p.DeinitErr
}

// Reading is one scripted arming state query result.
type Reading struct {
	State boot.ArmingState
	Err   error
}

// OK returns a successful reading of state.
func OK(state boot.ArmingState) Reading {
	return Reading{State: state}
}

// Fail returns a failed reading.
func Fail() Reading {
	return Reading{Err: boot.ErrQueryFailed}
}

// Repeat returns n copies of r.
func Repeat(r Reading, n int) []Reading {
	out := make([]Reading, n)
	for i := range out {
		out[i] = r
	}
	return out
}

// Link is a status link that replays a script of readings. Once the script
// is exhausted the last reading repeats. Each query records "link.query".
type Link struct {
	Peripheral
	Script []Reading

	queries int
}

// NewLink returns a link named "link" that replays script.
func NewLink(rec *Recorder, script ...Reading) *Link {
	return &Link{Peripheral: Peripheral{Name: "link", Rec: rec}, Script: script}
}

// QueryState implements boot.ArmingLink.
func (l *Link) QueryState() (boot.ArmingState, error) {
	l.Rec.Record("link.query")
	if len(l.Script) == 0 {
		return 0, boot.ErrQueryFailed
	}
	i := l.queries
	if i >= len(l.Script) {
		i = len(l.Script) - 1
	}
	l.queries++
	return l.Script[i].State, l.Script[i].Err
}

// Queries returns the number of QueryState calls.
func (l *Link) Queries() int {
	return l.queries
}

// Session records "session.service". OnService, when set, is called with the
// 1-based call number after recording.
type Session struct {
	Rec       *Recorder
	OnService func(n int)

	calls int
}

// Service implements boot.Session.
func (s *Session) Service() {
	s.calls++
	s.Rec.Record("session.service")
	if s.OnService != nil {
		s.OnService(s.calls)
	}
}

// Calls returns the number of Service calls.
func (s *Session) Calls() int {
	return s.calls
}

// USBSession is a Session that also owns the USB controller and records
// "usb.deinit" when released.
type USBSession struct {
	Session
}

// Deinit implements boot.Closer.
func (s *USBSession) Deinit() error {
	s.Rec.Record("usb.deinit")
	return nil
}

// Indicator records "indicator.level <ch> <level>" and "indicator.step".
type Indicator struct {
	Rec *Recorder
}

// SetLevel implements boot.Indicator.
func (i *Indicator) SetLevel(ch boot.Channel, level float32) {
	i.Rec.Record("indicator.level %d %.1f", ch, level)
}

// Step implements boot.Indicator.
func (i *Indicator) Step() {
	i.Rec.Record("indicator.step")
}
