package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Serial sensors send one status message per line.
const maxLineLen = 4096

var ErrLineTooLong = errors.New("line exceeds maximum length")

type readByteFunc func() (byte, error)

// readLine returns the next line without its "\n" or "\r\n" terminator.
// An oversized line is consumed up to its terminator and reported as ErrLineTooLong.
func readLine(readByte readByteFunc) ([]byte, error) {
	line := make([]byte, 0, 64)
	overflow := false
	for {
		b, err := readByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 && !overflow {
				return bytes.TrimSuffix(line, []byte{'\r'}), nil
			}

			return nil, err
		}
		if b == '\n' {
			if overflow {
				return nil, fmt.Errorf("%w: limit %d bytes", ErrLineTooLong, maxLineLen)
			}

			return bytes.TrimSuffix(line, []byte{'\r'}), nil
		}
		if overflow {
			continue
		}
		if len(line) >= maxLineLen {
			overflow = true
			line = line[:0]
			continue
		}
		line = append(line, b)
	}
}

func ioReadByteFunc(r io.Reader) readByteFunc {
	var buf [1]byte

	return func() (byte, error) {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}

		return buf[0], nil
	}
}
