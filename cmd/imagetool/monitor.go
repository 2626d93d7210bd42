package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Lines the bootloader prints on its debug channel.
const (
	bannerUpdateMode = "dfu bootload"
	bannerStarting   = "starting application"
)

func monitor(args []string) {
	flags := flag.NewFlagSet("monitor", flag.ExitOnError)
	port := flags.String("port", "", "serial port (default: the only one present)")
	baud := flags.Int("baud", 115200, "baud rate")
	wait := flags.Bool("wait", false, "exit once the bootloader reports update mode")
	timeout := flags.Duration("timeout", 0, "give up after this long (0: never)")
	flags.Parse(args)

	if *port == "" {
		ports, err := serial.GetPortsList()
		handleError("could not list serial ports", err)
		if len(ports) != 1 {
			handleError("could not pick a serial port", fmt.Errorf("found %d ports, use -port", len(ports)))
		}
		*port = ports[0]
	}

	p, err := serial.Open(*port, &serial.Mode{BaudRate: *baud})
	handleError("could not open serial port", err)
	defer p.Close()

	var r io.Reader = p
	if *timeout > 0 {
		handleError("could not set read timeout", p.SetReadTimeout(*timeout))
		r = &timeoutReader{r: p}
	}

	until := ""
	if *wait {
		until = bannerUpdateMode
	}
	fmt.Fprintf(os.Stderr, "Listening on %s at %d baud...\n", *port, *baud)
	found, err := watch(r, os.Stdout, until)
	handleError("monitor failed", err)
	if *wait && !found {
		handleError("bootloader not seen", errors.New("timeout"))
	}
}

// watch copies lines from r to w, prefixed with the time since the start,
// until a line contains until. It reports whether that line was seen. An
// empty until copies until r ends.
func watch(r io.Reader, w io.Writer, until string) (bool, error) {
	start := time.Now()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		fmt.Fprintf(w, "[%8.3f] %s\n", time.Since(start).Seconds(), line)
		if until != "" && strings.Contains(line, until) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// timeoutReader turns the zero-length read of an expired serial read timeout
// into io.EOF.
type timeoutReader struct {
	r io.Reader
}

func (t *timeoutReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}
