package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	if err := Default.Validate(); err != nil {
		t.Fatalf("Default.Validate() error = %v", err)
	}
	app := Default.ApplicationRegion()
	if app.Start != ApplicationAddress || app.End() != 0x08080000 {
		t.Errorf("ApplicationRegion() = %v", app)
	}
}

func TestRegion(t *testing.T) {
	r := Region{Start: 0x20000000, Size: 0x100}
	tests := []struct {
		addr uint32
		n    int
		in   bool
		fits bool
	}{
		{0x20000000, 0x100, true, true},
		{0x200000ff, 1, true, true},
		{0x200000ff, 2, true, false},
		{0x20000100, 0, false, true},
		{0x1fffffff, 1, false, false},
	}

	for _, tt := range tests {
		if got := r.Contains(tt.addr); got != tt.in {
			t.Errorf("Contains(0x%08x) = %v, want %v", tt.addr, got, tt.in)
		}
		if got := r.ContainsRange(tt.addr, tt.n); got != tt.fits {
			t.Errorf("ContainsRange(0x%08x, %d) = %v, want %v", tt.addr, tt.n, got, tt.fits)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *Layout)
		ok     bool
	}{
		{"default", func(l *Layout) {}, true},
		{"no flash", func(l *Layout) { l.Flash.Size = 0 }, false},
		{"no ram", func(l *Layout) { l.RAM.Size = 0 }, false},
		{"application at flash start", func(l *Layout) { l.Application = l.Flash.Start }, false},
		{"application outside flash", func(l *Layout) { l.Application = 0x08100000 }, false},
		{"misaligned application", func(l *Layout) { l.Application = 0x08010100 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Default
			tt.mutate(&l)
			if err := l.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestParse(t *testing.T) {
	l, err := Parse([]byte("application: 0x08020000\nram: {start: 0x20000000, size: 0x10000}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if l.Application != 0x08020000 {
		t.Errorf("Application = 0x%08x", l.Application)
	}
	if l.RAM.Size != 0x10000 {
		t.Errorf("RAM.Size = 0x%x", l.RAM.Size)
	}
	if l.Flash != Default.Flash {
		t.Errorf("Flash = %v, want default %v", l.Flash, Default.Flash)
	}

	if _, err := Parse([]byte("application: 0x08000100\n")); err == nil {
		t.Error("Parse() accepted a misaligned application address")
	}
	if _, err := Parse([]byte("unknown: 1\n")); err == nil {
		t.Error("Parse() accepted an unknown field")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte("application: 0x08010000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if l != Default {
		t.Errorf("Load() = %+v, want %+v", l, Default)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}
