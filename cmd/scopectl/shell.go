package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/danmuck/scopectl/internal/hds200"
	"github.com/danmuck/scopectl/internal/scpi"
)

// queryClient is the engine surface the shell drives. Narrower than
// scpi.Client so tests can stub it without a transport.
type queryClient interface {
	Set(command string) error
	Query(command string, dataType scpi.DataType, framing scpi.Framing) (scpi.Result, error)
	QueryRaw(command string) ([]byte, error)
	ReadPending() (string, error)
}

// screenReader is the device surface the values command needs.
type screenReader interface {
	ScreenHeader() (hds200.ScreenHeader, error)
	ScreenValues(ch hds200.Channel) ([]int8, error)
}

const benchmarkIterations = 100

// shell is the interactive SCPI prompt. Lines starting with ':' or '*' go to
// the instrument; everything else is a shell command.
type shell struct {
	client queryClient
	screen screenReader
	out    io.Writer
	logger zerolog.Logger
	mode   string
}

func newShell(client queryClient, screen screenReader, out io.Writer, logger zerolog.Logger) *shell {
	return &shell{
		client: client,
		screen: screen,
		out:    out,
		logger: logger,
		mode:   "str",
	}
}

func (s *shell) run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "scpi> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("shell init: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(s.out, "Type 'help' for shell commands; SCPI goes straight to the instrument.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("shell read: %w", err)
		}
		if s.handleLine(strings.TrimSpace(line)) {
			return nil
		}
	}
}

// handleLine dispatches one input line; it returns true when the shell
// should exit.
func (s *shell) handleLine(line string) bool {
	switch line {
	case "":
	case "exit", "quit":
		return true
	case "help":
		s.printHelp()
	case "str", "json", "bin", "int":
		s.mode = line
		fmt.Fprintf(s.out, "Print mode set to %s.\n", line)
	case "read":
		s.drainPending()
	case "values":
		s.printScreenValues()
	case "benchmark":
		s.benchmark()
	default:
		s.runQuery(line)
	}
	return false
}

func (s *shell) printHelp() {
	fmt.Fprint(s.out, `Shell commands:
  help                 show this text
  str | json | bin | int
                       set the print mode for query responses
  read                 force one read without sending a command
  values               fetch and print on-screen voltages per channel
  benchmark            time repeated screen captures
  exit | quit          leave the shell

Anything else is sent to the instrument verbatim, e.g. *IDN? or
:CH1:SCALe 200mV. Responses print according to the current mode:
  str   newline-framed text (default)
  json  length-prefixed structured data, pretty-printed
  bin   raw bytes, hex dump with framing metadata included
  int   length-prefixed signed 8-bit samples
`)
}

// runQuery sends one instrument line and prints the response per the
// current mode. Set commands produce no response, so a timeout after a
// command without '?' is normal and stays quiet.
func (s *shell) runQuery(line string) {
	switch s.mode {
	case "json":
		res, err := s.client.Query(line, scpi.TypeStructured, scpi.FramingLength)
		if err != nil {
			s.printQueryError(err)
			return
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, res.Bytes(), "", "  "); err != nil {
			s.printQueryError(err)
			return
		}
		fmt.Fprintln(s.out, pretty.String())
	case "bin":
		raw, err := s.client.QueryRaw(line)
		if err != nil {
			s.printQueryError(err)
			return
		}
		fmt.Fprintf(s.out, "Received %d bytes.\n", len(raw))
		if len(raw) >= 4 {
			fmt.Fprintf(s.out, "First 4 bytes as uint32 LE: %d\n", binary.LittleEndian.Uint32(raw[:4]))
		}
		hexDump(s.out, raw)
	case "int":
		res, err := s.client.Query(line, scpi.TypeInt8, scpi.FramingLength)
		if err != nil {
			s.printQueryError(err)
			return
		}
		samples := res.Samples()
		fmt.Fprintf(s.out, "Received %d samples.\n", len(samples))
		fmt.Fprintln(s.out, formatSamples(samples))
	default: // str
		if !strings.Contains(line, "?") {
			if err := s.client.Set(line); err != nil {
				s.printQueryError(err)
			}
			return
		}
		text, err := s.client.QueryRaw(line)
		if err != nil {
			s.printQueryError(err)
			return
		}
		fmt.Fprintln(s.out, strings.TrimRight(string(text), "\r\n"))
	}
}

func (s *shell) printQueryError(err error) {
	if errors.Is(err, scpi.ErrTimeout) {
		fmt.Fprintln(s.out, "No response from the instrument (timeout).")
		return
	}
	fmt.Fprintf(s.out, "Query failed: %v\n", err)
}

// drainPending reads a response that arrived after its query timed out.
func (s *shell) drainPending() {
	text, err := s.client.ReadPending()
	if err != nil {
		s.printQueryError(err)
		return
	}
	fmt.Fprintln(s.out, text)
}

// printScreenValues converts the on-screen trace of each displayed channel
// to volts using the calibration carried by the screen header.
func (s *shell) printScreenValues() {
	head, err := s.screen.ScreenHeader()
	if err != nil {
		s.printQueryError(err)
		return
	}
	fmt.Fprintf(s.out, "Timebase %s, offset %g div. Trigger %s %s at %s.\n",
		head.Timebase.Scale, head.Timebase.Offset,
		head.Trigger.Items.Channel, head.Trigger.Items.Edge, head.Trigger.Items.Level)

	for _, ch := range []hds200.Channel{hds200.CH1, hds200.CH2} {
		info, ok := head.Channel(ch.String())
		if !ok || !info.Displayed() {
			fmt.Fprintf(s.out, "%s is off.\n", ch)
			continue
		}
		attenuation, scaleVolts, err := info.Calibration()
		if err != nil {
			fmt.Fprintf(s.out, "%s calibration unreadable: %v\n", ch, err)
			continue
		}
		samples, err := s.screen.ScreenValues(ch)
		if err != nil {
			s.printQueryError(err)
			continue
		}
		volts := hds200.VoltagesFromScreen(samples, attenuation, scaleVolts, info.Offset)
		fmt.Fprintf(s.out, "%s (%s/div, %s probe, %s coupling):\n",
			ch, info.Scale, info.Probe, info.Coupling)
		printVoltages(s.out, volts)
	}
}

// benchmark times repeated screen captures of channel 1.
func (s *shell) benchmark() {
	start := time.Now()
	var captured int
	for i := 0; i < benchmarkIterations; i++ {
		samples, err := s.screen.ScreenValues(hds200.CH1)
		if err != nil {
			s.printQueryError(err)
			return
		}
		captured += len(samples)
	}
	elapsed := time.Since(start)
	fmt.Fprintf(s.out, "%d captures, %d samples in %v (%.1fms per capture).\n",
		benchmarkIterations, captured, elapsed.Round(time.Millisecond),
		float64(elapsed.Milliseconds())/float64(benchmarkIterations))
}

// hexDump prints 32 bytes per row, grouped in fours.
func hexDump(w io.Writer, data []byte) {
	for row := 0; row < len(data); row += 32 {
		end := row + 32
		if end > len(data) {
			end = len(data)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%04x  ", row)
		for i := row; i < end; i++ {
			fmt.Fprintf(&b, "%02x", data[i])
			if (i-row)%4 == 3 && i != end-1 {
				b.WriteByte(' ')
			}
		}
		fmt.Fprintln(w, b.String())
	}
}

// printVoltages writes 20 readings per row.
func printVoltages(w io.Writer, volts []float64) {
	for row := 0; row < len(volts); row += 20 {
		end := row + 20
		if end > len(volts) {
			end = len(volts)
		}
		fields := make([]string, 0, end-row)
		for _, v := range volts[row:end] {
			fields = append(fields, fmt.Sprintf("%.3fV", v))
		}
		fmt.Fprintln(w, strings.Join(fields, " "))
	}
}

func formatSamples(samples []int8) string {
	fields := make([]string, len(samples))
	for i, v := range samples {
		fields[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(fields, " ")
}
