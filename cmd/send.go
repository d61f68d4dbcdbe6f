/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/allbin/go-serialchat"
	"github.com/allbin/go-serialchat/internal/tui/components"
	"github.com/allbin/go-serialchat/internal/tui/styles"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send one message to a serial port and wait until it has been written.

Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serialchat send /dev/ttyUSB0
- Interactive mode: serialchat send /dev/ttyUSB0 (prompts for input)

Example usage:
  serialchat send "Hello World" /dev/ttyUSB0
  serialchat send "AT+GMR" /dev/ttyUSB0 --newline
  serialchat send "48 65 6C 6C 6F" /dev/ttyUSB0 --hex
  echo "test" | serialchat send /dev/ttyUSB0`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		var portPath string

		// Parse arguments: either "send data port" or "send port"
		if len(args) == 1 {
			portPath = args[0]
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		} else {
			data = args[0]
			portPath = args[1]
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		payload := []byte(data)
		if hexMode {
			decoded, err := parseHex(data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
			payload = decoded
		} else if addNewline {
			payload = append(payload, '\n')
		}

		if len(payload) == 0 {
			fmt.Fprintln(os.Stderr, "Error: nothing to send")
			os.Exit(1)
		}

		if err := sendData(portPath, baudRate(cmd), payload, timeout); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", styles.ErrorStyle.Render("✗"), err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().IntP("baud", "b", 115200, "Baud rate")
	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for opening the port and sending")
}

func promptForData() string {
	fmt.Print(styles.InfoStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

var errSendTimeout = errors.New("timed out")

// sendWaiter turns manager callbacks into channel signals for a one-shot send
type sendWaiter struct {
	opened chan struct{}
	sent   chan int
	failed chan error
}

func newSendWaiter() *sendWaiter {
	return &sendWaiter{
		opened: make(chan struct{}, 1),
		sent:   make(chan int, 1),
		failed: make(chan error, 1),
	}
}

func (w *sendWaiter) OnOpened(string, int) { w.opened <- struct{}{} }

func (w *sendWaiter) OnOpenFailed(_ string, err error) { w.fail(err) }

func (w *sendWaiter) OnClosed(err error) {
	if err != nil {
		w.fail(err)
	}
}

func (w *sendWaiter) OnDataSent(text string) {
	select {
	case w.sent <- len(text):
	default:
	}
}

func (w *sendWaiter) OnDataReceived(string) {}

func (w *sendWaiter) fail(err error) {
	select {
	case w.failed <- err:
	default:
	}
}

// awaitSignal blocks until ch fires, a failure is reported or timeout expires
func awaitSignal[T any](w *sendWaiter, ch chan T, timeout time.Duration) (T, error) {
	var zero T
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v, nil
	case err := <-w.failed:
		return zero, err
	case <-timer.C:
		return zero, errSendTimeout
	}
}

func sendData(portPath string, baud int, payload []byte, timeout time.Duration) error {
	mgr, log, err := newManager()
	if err != nil {
		return err
	}
	defer shutdown(mgr, log)

	waiter := newSendWaiter()
	mgr.RegisterObserver(waiter)
	defer mgr.UnregisterObserver(waiter)

	fmt.Printf("%s Opening %s at %d baud...\n", styles.InfoStyle.Render("⚡"), portPath, baud)

	mgr.Open(portPath, baud)
	if _, err := awaitSignal(waiter, waiter.opened, timeout); err != nil {
		return fmt.Errorf("open %s: %w", portPath, err)
	}
	fmt.Printf("%s Connected successfully\n", styles.SuccessStyle.Render("✓"))

	fmt.Printf("%s Sending %d bytes...\n", styles.InfoStyle.Render("📤"), len(payload))
	mgr.SendBytes(payload)

	n, err := awaitSignal(waiter, waiter.sent, timeout)
	if err != nil {
		return fmt.Errorf("failed to send data: %w", err)
	}
	log.Info("Message sent", zap.String("port", portPath), zap.Int("bytes", n))

	fmt.Printf("%s Successfully sent %d bytes\n", styles.SuccessStyle.Render("✓"), n)

	preview := payload
	if len(preview) > 50 {
		preview = preview[:50]
	}
	suffix := ""
	if len(payload) > 50 {
		suffix = "..."
	}
	fmt.Printf("%s Data: %s%s\n", styles.InfoStyle.Render("📋"), components.Printable(preview), suffix)

	return nil
}

var _ serial.StateObserver = (*sendWaiter)(nil)
