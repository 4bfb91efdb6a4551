package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

const defaultSerialReadTimeout = 300 * time.Millisecond

// SerialTransport reads newline-delimited status lines from a USB-attached sensor.
type SerialTransport struct {
	portName string
	baudRate int

	mu   sync.Mutex
	port serial.Port
}

func NewSerialTransport(portName string, baudRate int) *SerialTransport {
	return &SerialTransport{
		portName: portName,
		baudRate: baudRate,
	}
}

func (t *SerialTransport) Name() string {
	return "serial"
}

func (t *SerialTransport) StatusTarget() string {
	return fmt.Sprintf("%s@%d", t.portName, t.baudRate)
}

func (t *SerialTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.port != nil
}

func (t *SerialTransport) Connect(ctx context.Context) error {
	logger := connectorLogger("serial", "port", t.portName)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.portName == "" {
		return errors.New("serial port is empty")
	}
	if t.baudRate <= 0 {
		return fmt.Errorf("invalid serial baud rate: %d", t.baudRate)
	}

	port, err := serial.Open(t.portName, &serial.Mode{BaudRate: t.baudRate})
	if err != nil {
		logger.Warn("open failed", "error", err)

		return fmt.Errorf("open serial port %q: %w", t.portName, err)
	}
	if err := port.SetReadTimeout(defaultSerialReadTimeout); err != nil {
		_ = port.Close()

		return fmt.Errorf("set serial read timeout: %w", err)
	}
	t.port = port
	logger.Info("connected", "baud", t.baudRate)

	return nil
}

func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil

	return err
}

// ReadFrame returns the next line. Oversized lines are dropped.
func (t *SerialTransport) ReadFrame(ctx context.Context) (Frame, error) {
	logger := connectorLogger("serial", "port", t.portName)
	port, err := t.currentPort()
	if err != nil {
		return Frame{}, err
	}

	var buf [1]byte
	readByte := func() (byte, error) {
		for {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			n, err := port.Read(buf[:])
			if err != nil {
				return 0, err
			}
			// Zero bytes means the read timeout elapsed.
			if n == 0 {
				if !t.Connected() {
					return 0, ErrNotConnected
				}
				continue
			}

			return buf[0], nil
		}
	}

	for {
		line, err := readLine(readByte)
		if errors.Is(err, ErrLineTooLong) {
			logger.Warn("dropping oversized line", "error", err)
			continue
		}
		if err != nil {
			return Frame{}, fmt.Errorf("read serial line: %w", err)
		}

		return Frame{Payload: line}, nil
	}
}

func (t *SerialTransport) currentPort() (serial.Port, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil, ErrNotConnected
	}

	return t.port, nil
}
