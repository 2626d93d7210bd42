//go:build !tinygo

package image

import (
	"debug/elf"
	"io"
	"os"
	"sort"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"

	"github.com/tinygo-org/motorboot/layout"
)

// Format is an input file format.
type Format string

// Supported input formats.
const (
	FormatELF    Format = "elf"
	FormatHex    Format = "hex"
	FormatBinary Format = "bin"
)

// Load reads a firmware image from an ELF file, an Intel HEX file or a raw
// binary. The format is detected from the file contents; raw binaries are
// placed at the application address of l.
func Load(filename string, l layout.Layout) (*Image, Format, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	// Read the magic (first 4 bytes) of the file.
	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, 0); err != nil {
		return nil, "", errors.Wrap(err, "could not read file magic")
	}

	switch {
	case string(magic) == "\x7fELF":
		img, err := extractELF(f)
		return img, FormatELF, err
	case magic[0] == ':':
		img, err := extractHex(f, l.ApplicationRegion().Size)
		return img, FormatHex, err
	default:
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return &Image{Address: l.Application, Data: data}, FormatBinary, nil
	}
}

// extractELF extracts a firmware image and the first load address from the
// given ELF file. It tries to emulate the behavior of objcopy.
func extractELF(r io.ReaderAt) (*Image, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ELF file to extract text segment")
	}
	defer f.Close()

	// GNU objcopy starts a raw binary at the load address of the lowest
	// section copied into the output file.
	startAddr := ^uint64(0)
	for _, section := range f.Sections {
		if section.Type != elf.SHT_PROGBITS || section.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		if section.Addr < startAddr {
			startAddr = section.Addr
		}
	}

	progs := make([]*elf.Prog, 0, 2)
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		progs = append(progs, prog)
	}
	if len(progs) == 0 {
		return nil, errors.New("file does not contain ROM segments")
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].Paddr < progs[j].Paddr })

	var rom []byte
	for _, prog := range progs {
		if prog.Paddr != progs[0].Paddr+uint64(len(rom)) {
			return nil, errors.New("ROM segments are non-contiguous")
		}
		data, err := io.ReadAll(prog.Open())
		if err != nil {
			return nil, errors.Wrap(err, "failed to extract segment from ELF file")
		}
		rom = append(rom, data...)
	}
	if startAddr > 0xffffffff {
		return nil, errors.Errorf("load address 0x%x out of range", startAddr)
	}
	if progs[0].Paddr < startAddr {
		// Data loaded before the first section is discarded, as objcopy
		// does. This happens for ELF files linked behind a bootloader.
		return &Image{Address: uint32(startAddr), Data: rom[startAddr-progs[0].Paddr:]}, nil
	}
	return &Image{Address: uint32(progs[0].Paddr), Data: rom}, nil
}

// extractHex reads an Intel HEX file. Gaps between data records are filled
// with the erased flash value, so the span from the first to the last record
// must not exceed limit bytes.
func extractHex(r io.Reader, limit uint32) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, errors.Wrap(err, "failed to parse Intel HEX file")
	}
	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, errors.New("file does not contain data records")
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Address < segments[j].Address })

	start := segments[0].Address
	last := segments[len(segments)-1]
	end := uint64(last.Address) + uint64(len(last.Data))
	if end-uint64(start) > uint64(limit) {
		return nil, errors.Wrapf(ErrImageTooLarge, "records span 0x%08x-0x%08x, %d bytes available", start, end, limit)
	}
	return &Image{Address: start, Data: mem.ToBinary(start, uint32(end-uint64(start)), 0xff)}, nil
}

// WriteHex writes img as Intel HEX.
func WriteHex(w io.Writer, img *Image) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(img.Address, img.Data); err != nil {
		return err
	}
	return mem.DumpIntelHex(w, 16)
}
