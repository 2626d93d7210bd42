// Package image validates application images for the motorboot bootloader.
//
// An image starts with a Cortex-M vector table: the initial main stack pointer
// followed by the address of the reset handler. The bootloader loads both
// words during the control transfer, so an image is only accepted when they
// point into RAM and into the application flash respectively.
package image

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sigurn/crc16"

	"github.com/tinygo-org/motorboot/boot"
	"github.com/tinygo-org/motorboot/layout"
)

// Image validation errors.
var (
	ErrErased          = errors.New("no application image (erased flash)")
	ErrBadStackPointer = errors.New("initial stack pointer outside RAM")
	ErrBadResetVector  = errors.New("reset vector outside application flash")
	ErrImageTooLarge   = errors.New("image does not fit the application flash")
	ErrWrongAddress    = errors.New("image not linked at the application address")
	ErrChecksum        = errors.New("checksum mismatch")
)

// erased is the value of a word of erased flash.
const erased = 0xffffffff

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Checksum returns the CRC-16/CCITT-FALSE of data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// Table is the head of a Cortex-M vector table.
type Table struct {
	StackPointer uint32
	Reset        uint32
}

// ReadTable reads the vector table at addr.
func ReadTable(mem boot.Memory, addr uint32) Table {
	return Table{
		StackPointer: mem.ReadWord(addr),
		Reset:        mem.ReadWord(addr + 4),
	}
}

// Check validates the table against l. The stack pointer may equal the end of
// RAM since the stack grows down from there.
func (t Table) Check(l layout.Layout) error {
	if t.StackPointer == erased && t.Reset == erased {
		return ErrErased
	}
	sp := uint64(t.StackPointer)
	if sp <= uint64(l.RAM.Start) || sp > l.RAM.End() || sp%4 != 0 {
		return errors.Wrapf(ErrBadStackPointer, "sp 0x%08x, ram %s", t.StackPointer, l.RAM)
	}
	if t.Reset&1 == 0 {
		return errors.Wrapf(ErrBadResetVector, "reset 0x%08x is not a thumb address", t.Reset)
	}
	if app := l.ApplicationRegion(); !app.Contains(t.Reset &^ 1) {
		return errors.Wrapf(ErrBadResetVector, "reset 0x%08x, application %s", t.Reset, app)
	}
	return nil
}

// VectorCheck checks the vector table in flash before the bootloader starts
// the application. It implements boot.ImageCheck.
type VectorCheck struct {
	Memory boot.Memory
	Layout layout.Layout
}

// Check implements boot.ImageCheck.
func (v *VectorCheck) Check(addr uint32) error {
	return errors.Wrapf(ReadTable(v.Memory, addr).Check(v.Layout), "image at 0x%08x", addr)
}

// Image is a flat firmware image and its load address.
type Image struct {
	Address uint32
	Data    []byte
}

// ReadWord implements boot.Memory over the image contents. Words outside the
// image read as erased flash.
func (img *Image) ReadWord(addr uint32) uint32 {
	if addr < img.Address || uint64(addr)+4 > uint64(img.Address)+uint64(len(img.Data)) {
		return erased
	}
	off := addr - img.Address
	return binary.LittleEndian.Uint32(img.Data[off:])
}

// Table returns the vector table at the start of the image.
func (img *Image) Table() Table {
	return ReadTable(img, img.Address)
}

// Validate checks that the image is linked at the application address, fits
// in the application flash and starts with a usable vector table.
func (img *Image) Validate(l layout.Layout) error {
	if img.Address != l.Application {
		return errors.Wrapf(ErrWrongAddress, "linked at 0x%08x, application at 0x%08x", img.Address, l.Application)
	}
	if !l.ApplicationRegion().ContainsRange(img.Address, len(img.Data)) {
		return errors.Wrapf(ErrImageTooLarge, "%d bytes, %d available", len(img.Data), l.ApplicationRegion().Size)
	}
	return img.Table().Check(l)
}

// Manifest describes an image.
type Manifest struct {
	Address      Hex    `yaml:"address"`
	Size         int    `yaml:"size"`
	CRC16        Hex    `yaml:"crc16"`
	StackPointer Hex    `yaml:"stack_pointer"`
	Reset        Hex    `yaml:"reset"`
	Source       string `yaml:"source,omitempty"`
}

// Manifest returns the manifest of the image.
func (img *Image) Manifest() Manifest {
	t := img.Table()
	return Manifest{
		Address:      Hex(img.Address),
		Size:         len(img.Data),
		CRC16:        Hex(Checksum(img.Data)),
		StackPointer: Hex(t.StackPointer),
		Reset:        Hex(t.Reset),
	}
}

// Verify checks that the image matches the size and checksum of m.
func (img *Image) Verify(m Manifest) error {
	if uint32(m.Address) != img.Address || m.Size != len(img.Data) {
		return errors.Wrapf(ErrChecksum, "manifest covers 0x%08x+%d, image is 0x%08x+%d",
			uint32(m.Address), m.Size, img.Address, len(img.Data))
	}
	if sum := Checksum(img.Data); uint32(m.CRC16) != uint32(sum) {
		return errors.Wrapf(ErrChecksum, "crc16 0x%04x, manifest 0x%04x", sum, uint32(m.CRC16))
	}
	return nil
}

// Hex is a word that is written as a hexadecimal string in YAML.
type Hex uint32

func (h Hex) String() string {
	return fmt.Sprintf("0x%08x", uint32(h))
}

// MarshalYAML implements yaml.Marshaler.
func (h Hex) MarshalYAML() (interface{}, error) {
	return h.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *Hex) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid hex word %q", s)
	}
	*h = Hex(v)
	return nil
}
