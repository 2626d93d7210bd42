package boot_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/tinygo-org/motorboot/boot"
	"github.com/tinygo-org/motorboot/boot/boottest"
)

const (
	appAddress = 0x08010000
	appStack   = 0x20040000
	appReset   = 0x08010199
)

func TestMain(m *testing.M) {
	boot.SetLogger(boot.NewLogger(io.Discard))
	os.Exit(m.Run())
}

type rig struct {
	rec     *boottest.Recorder
	link    *boottest.Link
	debug   *boottest.Peripheral
	hal     *boottest.Peripheral
	session *boottest.USBSession
	cfg     boot.Config
}

func newRig(script ...boottest.Reading) *rig {
	rec := new(boottest.Recorder)
	r := &rig{
		rec:     rec,
		link:    boottest.NewLink(rec, script...),
		debug:   &boottest.Peripheral{Name: "debug", Rec: rec},
		hal:     &boottest.Peripheral{Name: "hal", Rec: rec},
		session: &boottest.USBSession{Session: boottest.Session{Rec: rec}},
	}
	r.cfg = boot.Config{
		ApplicationAddress: appAddress,
		Link:               r.link,
		Debug:              r.debug,
		HAL:                r.hal,
		Session:            &r.session.Session,
		Indicator:          &boottest.Indicator{Rec: rec},
		IndicatorChannel:   3,
		CPU:                &boottest.CPU{Rec: rec},
		Memory:             boottest.NewVectorTable(rec, appAddress, appStack, appReset),
	}
	return r
}

func (r *rig) machine(t *testing.T) *boot.Machine {
	t.Helper()
	m, err := boot.NewMachine(r.cfg)
	if err != nil {
		t.Fatalf("NewMachine() error = %v", err)
	}
	return m
}

func (r *rig) run(t *testing.T) *boot.Machine {
	t.Helper()
	m := r.machine(t)
	if !boottest.RunToHalt(m.Run) {
		t.Fatal("Run() returned")
	}
	return m
}

func TestRun_UnarmedBootsImmediately(t *testing.T) {
	r := newRig(boottest.OK(boot.Unarmed))
	m := r.run(t)

	if got := r.session.Calls(); got != 0 {
		t.Errorf("session calls = %d, want 0", got)
	}
	if got := r.link.Queries(); got != 1 {
		t.Errorf("link queries = %d, want 1", got)
	}
	if got := r.rec.Count("cpu.branch 0x08010199"); got != 1 {
		t.Errorf("branches = %d, want 1", got)
	}
	if got := m.State(); got != boot.StateTransferring {
		t.Errorf("State() = %v, want transferring", got)
	}
}

func TestRun_ServicesUntilUnarmed(t *testing.T) {
	script := append(boottest.Repeat(boottest.OK(boot.Armed), 5), boottest.OK(boot.Unarmed))
	r := newRig(script...)
	m := r.run(t)

	if got := r.session.Calls(); got != 5 {
		t.Errorf("session calls = %d, want 5", got)
	}
	if got := m.Iterations(); got != 5 {
		t.Errorf("Iterations() = %d, want 5", got)
	}
	if got := r.rec.Count("cpu.branch 0x08010199"); got != 1 {
		t.Errorf("branches = %d, want 1", got)
	}
}

func TestRun_QueryFailureStaysInUpdateMode(t *testing.T) {
	r := newRig(boottest.Fail(), boottest.Fail(), boottest.OK(boot.Unarmed))
	var m *boot.Machine
	var states []boot.State
	r.session.OnService = func(int) {
		states = append(states, m.State())
	}
	m = r.machine(t)
	if !boottest.RunToHalt(m.Run) {
		t.Fatal("Run() returned")
	}

	want := []boot.State{boot.StateServicing, boot.StateServicing}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("states during service = %v, want %v", states, want)
	}
}

func TestRun_QueryFailureNeverTransfers(t *testing.T) {
	r := newRig(boottest.Fail())
	var m *boot.Machine
	r.session.OnService = func(n int) {
		if r.rec.Count("cpu.branch 0x08010199") != 0 {
			t.Fatalf("transferred after %d failed queries", n)
		}
		if n == 50 {
			m.Latch().Clear()
		}
	}
	m = r.machine(t)
	boottest.RunToHalt(m.Run)

	if got := r.session.Calls(); got != 50 {
		t.Errorf("session calls = %d, want 50", got)
	}
}

func TestRun_LatchClearedFallsThrough(t *testing.T) {
	r := newRig(boottest.OK(boot.Armed))
	latch := new(boot.Latch)
	r.cfg.Latch = latch
	r.session.OnService = func(n int) {
		if n == 2 {
			latch.Clear()
		}
	}
	r.run(t)

	if got := r.session.Calls(); got != 2 {
		t.Errorf("session calls = %d, want 2", got)
	}
	if got := r.rec.Count("cpu.branch 0x08010199"); got != 1 {
		t.Errorf("branches = %d, want 1", got)
	}
}

func TestRun_ArmingSentinel(t *testing.T) {
	for v := 0; v <= 255; v++ {
		state := boot.ArmingState(v)
		r := newRig(boottest.OK(state))
		latch := new(boot.Latch)
		r.cfg.Latch = latch
		r.session.OnService = func(int) { latch.Clear() }
		r.run(t)

		wantCalls := 1
		if state == boot.Unarmed {
			wantCalls = 0
		}
		if got := r.session.Calls(); got != wantCalls {
			t.Errorf("state %v: session calls = %d, want %d", state, got, wantCalls)
		}
	}
}

func TestRun_SingleTransfer(t *testing.T) {
	for _, n := range []int{0, 1, 2, 10, 100} {
		script := append(boottest.Repeat(boottest.OK(boot.Armed), n), boottest.OK(boot.Unarmed))
		r := newRig(script...)
		r.run(t)

		if got := r.session.Calls(); got != n {
			t.Errorf("n=%d: session calls = %d", n, got)
		}
		if got := len(r.rec.Filter("cpu.branch")); got != 1 {
			t.Errorf("n=%d: branches = %d, want 1", n, got)
		}
		if got := len(r.rec.Filter("cpu.sp")); got != 1 {
			t.Errorf("n=%d: stack pointer loads = %d, want 1", n, got)
		}
	}
}

func TestRun_IterationOrder(t *testing.T) {
	r := newRig(boottest.OK(boot.Armed), boottest.OK(boot.Unarmed))
	r.run(t)

	got := r.rec.Filter("link.query", "indicator.", "session.")
	want := []string{
		"link.query",
		"indicator.level 3 1.0",
		"session.service",
		"indicator.step",
		"link.query",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestRun_InitOrder(t *testing.T) {
	r := newRig(boottest.OK(boot.Unarmed))
	r.run(t)

	got := r.rec.Filter("hal.init", "debug.init", "link.init", "link.query")
	want := []string{"hal.init", "debug.init", "link.init", "link.query"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestRun_NoReentrantInit(t *testing.T) {
	r := newRig(append(boottest.Repeat(boottest.OK(boot.Armed), 20), boottest.OK(boot.Unarmed))...)
	r.run(t)

	for _, name := range []string{"hal", "debug", "link"} {
		if got := r.rec.Count(name + ".init"); got != 1 {
			t.Errorf("%s inits = %d, want 1", name, got)
		}
		if got := r.rec.Count(name + ".deinit"); got != 1 {
			t.Errorf("%s deinits = %d, want 1", name, got)
		}
		if r.rec.Index(name+".init") > r.rec.Index(name+".deinit") {
			t.Errorf("%s deinit before init", name)
		}
	}
}

func TestRun_BringUpFailureHalts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *rig)
	}{
		{"hal", func(r *rig) { r.hal.InitErr = boot.ErrClockConfig }},
		{"debug", func(r *rig) { r.debug.InitErr = errors.New("uart") }},
		{"link", func(r *rig) { r.link.InitErr = errors.New("link") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(boottest.OK(boot.Unarmed))
			tt.setup(r)
			m := r.run(t)

			if got := r.link.Queries(); got != 0 {
				t.Errorf("link queries = %d, want 0", got)
			}
			if got := len(r.rec.Filter("cpu.branch", "cpu.sp")); got != 0 {
				t.Errorf("jump steps = %d, want 0", got)
			}
			if got := m.State(); got != boot.StateEntry {
				t.Errorf("State() = %v, want entry", got)
			}
		})
	}
}

func TestRun_StatusBannerOnce(t *testing.T) {
	var buf bytes.Buffer
	boot.SetLogger(boot.NewLogger(&buf))
	defer boot.SetLogger(boot.NewLogger(io.Discard))

	r := newRig(boottest.OK(boot.Armed), boottest.OK(boot.Armed), boottest.OK(boot.Unarmed))
	r.run(t)

	if got := strings.Count(buf.String(), "dfu bootload"); got != 1 {
		t.Errorf("status banner logged %d times, want 1:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), "application=0x08010000") {
		t.Errorf("banner missing application address:\n%s", buf.String())
	}
}

type checkFunc func(addr uint32) error

func (f checkFunc) Check(addr uint32) error { return f(addr) }

func TestRun_ImageCheck(t *testing.T) {
	r := newRig(boottest.OK(boot.Unarmed))
	var checked []uint32
	r.cfg.ImageCheck = checkFunc(func(addr uint32) error {
		checked = append(checked, addr)
		if len(checked) < 3 {
			return errors.New("bad image")
		}
		return nil
	})
	r.run(t)

	if got := r.session.Calls(); got != 2 {
		t.Errorf("session calls = %d, want 2", got)
	}
	for _, addr := range checked {
		if addr != appAddress {
			t.Errorf("checked address 0x%08x, want 0x%08x", addr, appAddress)
		}
	}
}

func TestRun_ImageCheckLogsChangesOnly(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		wantChecks   int
		wantAccepted int
	}{
		{"never accepted", 1000, 101, 0},
		{"accepted after a new image", 40, 41, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			boot.SetLogger(boot.NewLogger(&buf))
			defer boot.SetLogger(boot.NewLogger(io.Discard))

			r := newRig(boottest.OK(boot.Unarmed))
			latch := new(boot.Latch)
			r.cfg.Latch = latch
			r.session.OnService = func(n int) {
				if n == 100 {
					latch.Clear()
				}
			}
			checks := 0
			r.cfg.ImageCheck = checkFunc(func(uint32) error {
				checks++
				if checks <= tt.failures {
					return errors.New("bad image")
				}
				return nil
			})
			r.run(t)

			if checks != tt.wantChecks {
				t.Errorf("image checks = %d, want %d", checks, tt.wantChecks)
			}
			if got := strings.Count(buf.String(), "application image rejected"); got != 1 {
				t.Errorf("rejection logged %d times, want 1:\n%s", got, buf.String())
			}
			if got := strings.Count(buf.String(), "application image accepted"); got != tt.wantAccepted {
				t.Errorf("acceptance logged %d times, want %d", got, tt.wantAccepted)
			}
		})
	}
}

func TestRun_ImageCheckSkippedWhileArmed(t *testing.T) {
	r := newRig(boottest.OK(boot.Armed), boottest.OK(boot.Unarmed))
	calls := 0
	r.cfg.ImageCheck = checkFunc(func(uint32) error {
		calls++
		return nil
	})
	r.run(t)

	if calls != 1 {
		t.Errorf("image checks = %d, want 1", calls)
	}
}
