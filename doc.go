// Package serial provides a connection manager for exchanging text over a
// single serial port, together with the drivers it opens ports through.
//
// The Manager owns at most one open port. Open, Close and Send never block the
// caller: they are queued and executed in submission order on one worker
// goroutine. While a port is open a read loop forwards every chunk it reads to
// the registered Observer. Observer callbacks are delivered one at a time on a
// single goroutine, or on an execution context chosen with WithExecutor.
//
// # Basic Usage
//
//	mgr, err := serial.NewManager(serial.NativeDriver{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Shutdown(context.Background())
//
//	mgr.RegisterObserver(printer) // implements OnDataSent / OnDataReceived
//	mgr.Open("/dev/ttyUSB0", 9600)
//	mgr.Send("ping")
//
// Outcomes are observable through IsOpen and, for observers that implement
// StateObserver, through OnOpened, OnOpenFailed and OnClosed.
//
// # Drivers
//
// A Driver enumerates and opens ports. Three are provided:
//
//   - NativeDriver: termios through golang.org/x/sys/unix (Linux)
//   - BugstDriver: go.bug.st/serial, with USB details from its enumerator
//   - TarmDriver: github.com/tarm/serial
//
// Every driver configures a read timeout, so the read loop blocks for at most
// that long and notices a Close promptly instead of spinning. A hung up line,
// such as an unplugged USB adapter, reads as an error wrapping ErrPortClosed
// rather than as an empty read, and closes the connection.
//
// # Error Handling
//
// Open failures wrap ErrPortUnavailable, read and write failures wrap
// ErrIOFailure. Neither is returned to the caller of Open or Send; both are
// logged and reported to a StateObserver. Use errors.Is for matching:
//
//	func (o *ui) OnClosed(err error) {
//	    if errors.Is(err, serial.ErrIOFailure) {
//	        // the device went away
//	    }
//	}
//
// # Native Port Defaults
//
//   - BaudRate: 115200
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - ReadTimeout: 100ms
//   - WriteMode: Buffered
package serial
