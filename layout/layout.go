// Package layout describes the flash and RAM layout shared by the bootloader
// and the application images it starts.
package layout

import (
	"errors"
	"fmt"
)

// ApplicationAddress is the start of the application vector table. The first
// 64kB of flash are reserved for the bootloader.
const ApplicationAddress = 0x08010000

// Default is the layout of the STM32F722 motor controller.
var Default = Layout{
	Flash:       Region{Start: 0x08000000, Size: 512 * 1024},
	RAM:         Region{Start: 0x20000000, Size: 256 * 1024},
	Application: ApplicationAddress,
}

// Region is a contiguous address range.
type Region struct {
	Start uint32 `yaml:"start"`
	Size  uint32 `yaml:"size"`
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return uint64(r.Start) + uint64(r.Size)
}

// Contains reports whether addr lies inside the region.
func (r Region) Contains(addr uint32) bool {
	return addr >= r.Start && uint64(addr) < r.End()
}

// ContainsRange reports whether the n bytes starting at addr lie inside the
// region.
func (r Region) ContainsRange(addr uint32, n int) bool {
	return addr >= r.Start && uint64(addr)+uint64(n) <= r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("0x%08x..0x%08x", r.Start, r.End())
}

// Layout is a memory map.
type Layout struct {
	Flash       Region `yaml:"flash"`
	RAM         Region `yaml:"ram"`
	Application uint32 `yaml:"application"`
}

// ApplicationRegion returns the flash available to the application image.
func (l Layout) ApplicationRegion() Region {
	return Region{Start: l.Application, Size: uint32(l.Flash.End() - uint64(l.Application))}
}

// Validate checks that the application starts inside flash, past its start,
// and that the vector table is aligned for VTOR.
func (l Layout) Validate() error {
	switch {
	case l.Flash.Size == 0:
		return errors.New("layout: empty flash region")
	case l.RAM.Size == 0:
		return errors.New("layout: empty RAM region")
	case !l.Flash.Contains(l.Application) || l.Application == l.Flash.Start:
		return fmt.Errorf("layout: application 0x%08x not in flash %s past the bootloader", l.Application, l.Flash)
	case l.Application%0x200 != 0:
		return fmt.Errorf("layout: application 0x%08x not aligned to 512 bytes", l.Application)
	}
	return nil
}
