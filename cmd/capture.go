/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/allbin/go-serialchat"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port> <output-file>",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

Everything received on the port is appended to the output file until the
command is interrupted (Ctrl+C) or the port fails.

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  serialchat capture /dev/ttyUSB0 data.log
  serialchat capture /dev/ttyUSB0 output.txt --baud 9600
  serialchat capture /dev/ttyUSB0 capture.log --console`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		showConsole, _ := cmd.Flags().GetBool("console")

		if err := runCapture(args[0], args[1], baudRate(cmd), showConsole); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().IntP("baud", "b", 115200, "Baud rate")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

// captureSink appends received data to a file. Callbacks arrive one at a
// time, but the totals are read from the command goroutine.
type captureSink struct {
	out     io.Writer
	console io.Writer

	mu      sync.Mutex
	written int64
	err     error

	opened chan struct{}
	done   chan error
}

func newCaptureSink(out, console io.Writer) *captureSink {
	return &captureSink{
		out:     out,
		console: console,
		opened:  make(chan struct{}, 1),
		done:    make(chan error, 1),
	}
}

func (s *captureSink) OnDataReceived(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}
	n, err := io.WriteString(s.out, text)
	s.written += int64(n)
	if err != nil {
		s.err = err
		s.finish(fmt.Errorf("write error: %w", err))
		return
	}
	if s.console != nil {
		io.WriteString(s.console, text)
	}
}

func (s *captureSink) OnDataSent(string) {}

func (s *captureSink) OnOpened(string, int) {
	s.opened <- struct{}{}
}

func (s *captureSink) OnOpenFailed(_ string, err error) {
	s.finish(err)
}

func (s *captureSink) OnClosed(err error) {
	s.finish(err)
}

func (s *captureSink) finish(err error) {
	select {
	case s.done <- err:
	default:
	}
}

func (s *captureSink) bytesWritten() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

var _ serial.StateObserver = (*captureSink)(nil)

func runCapture(portPath, outputPath string, baud int, showConsole bool) error {
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	mgr, log, err := newManager()
	if err != nil {
		return err
	}
	defer shutdown(mgr, log)

	var console io.Writer
	if showConsole {
		console = os.Stdout
	}
	sink := newCaptureSink(file, console)
	mgr.RegisterObserver(sink)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr.Open(portPath, baud)

	select {
	case <-sink.opened:
	case err := <-sink.done:
		return fmt.Errorf("failed to open port: %w", err)
	case <-ctx.Done():
		return nil
	}

	fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", portPath, outputPath)
	if showConsole {
		fmt.Fprintf(os.Stderr, "Console display enabled\n")
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	startTime := time.Now()
	select {
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
	case err := <-sink.done:
		if err != nil {
			log.Error("Capture stopped", zap.Error(err))
			return fmt.Errorf("capture stopped after %d bytes: %w", sink.bytesWritten(), err)
		}
	}

	// A delivery already in flight may still land after this; bytesWritten reads under the sink lock
	mgr.UnregisterObserver(sink)
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n",
		sink.bytesWritten(), time.Since(startTime).Round(time.Millisecond))
	return nil
}
