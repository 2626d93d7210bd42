// Command imagetool prepares and checks application images for the motorboot
// bootloader, and watches the bootloader debug output.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"

	"github.com/tinygo-org/motorboot/image"
	"github.com/tinygo-org/motorboot/layout"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [-layout file.yaml] <command> [arguments]

commands:
  inspect <image>               show the image and check it against the layout
  manifest <image> [out.yaml]   write the image manifest (address, size, crc16)
  verify <image> <manifest>     check an image against its manifest
  hex <image> <out.hex>         convert an image to Intel HEX
  monitor [-port p] [-baud b] [-wait]
                                print the bootloader debug output
`, os.Args[0])
	os.Exit(2)
}

func main() {
	layoutFile := flag.String("layout", "", "YAML memory layout (default: STM32F722 motor controller)")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	l := layout.Default
	if *layoutFile != "" {
		var err error
		l, err = layout.Load(*layoutFile)
		handleError("could not read layout", err)
	}

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "inspect":
		if len(args) != 1 {
			usage()
		}
		img, format := load(args[0], l)
		err := describe(os.Stdout, img, format, l)
		handleError("invalid image", err)
	case "manifest":
		if len(args) < 1 || len(args) > 2 {
			usage()
		}
		img, _ := load(args[0], l)
		handleError("invalid image", img.Validate(l))
		m := img.Manifest()
		m.Source = args[0]
		out, err := yaml.Marshal(m)
		handleError("could not encode manifest", err)
		if len(args) == 2 {
			err = os.WriteFile(args[1], out, 0o644)
		} else {
			_, err = os.Stdout.Write(out)
		}
		handleError("could not write manifest", err)
	case "verify":
		if len(args) != 2 {
			usage()
		}
		img, _ := load(args[0], l)
		data, err := os.ReadFile(args[1])
		handleError("could not read manifest", err)
		var m image.Manifest
		handleError("could not decode manifest", yaml.Unmarshal(data, &m))
		handleError("verification failed", img.Verify(m))
		fmt.Printf("%s matches %s (crc16 0x%04x)\n", args[0], args[1], uint32(m.CRC16))
	case "hex":
		if len(args) != 2 {
			usage()
		}
		img, _ := load(args[0], l)
		f, err := os.Create(args[1])
		handleError("could not create output", err)
		err = image.WriteHex(f, img)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		handleError("could not write Intel HEX", err)
	case "monitor":
		monitor(args)
	default:
		usage()
	}
}

func load(filename string, l layout.Layout) (*image.Image, image.Format) {
	img, format, err := image.Load(filename, l)
	handleError("could not read input file", err)
	return img, format
}

// describe prints the image summary and returns the validation result.
func describe(w io.Writer, img *image.Image, format image.Format, l layout.Layout) error {
	t := img.Table()
	app := l.ApplicationRegion()
	fmt.Fprintf(w, "format:        %s\n", format)
	fmt.Fprintf(w, "address:       0x%08x\n", img.Address)
	fmt.Fprintf(w, "size:          %s (%d bytes, %.1f%% of %s)\n",
		bytesize.New(float64(len(img.Data))), len(img.Data),
		float64(len(img.Data))*100/float64(app.Size), bytesize.New(float64(app.Size)))
	fmt.Fprintf(w, "stack pointer: 0x%08x\n", t.StackPointer)
	fmt.Fprintf(w, "reset handler: 0x%08x\n", t.Reset)
	fmt.Fprintf(w, "crc16:         0x%04x\n", image.Checksum(img.Data))

	err := img.Validate(l)
	if err == nil {
		fmt.Fprintf(w, "status:        ok\n")
	} else {
		fmt.Fprintf(w, "status:        %s\n", err)
	}
	return err
}

func handleError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", msg, err)
		os.Exit(1)
	}
}
