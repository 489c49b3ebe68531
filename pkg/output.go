package dupedetector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/google/vectorio"
)

// fdWriter is implemented by *os.File
type fdWriter interface {
	io.Writer
	Fd() uintptr
}

// EncodeGroups renders groups as a JSON array of arrays of paths with 2-space
// indentation and no trailing newline. The document is returned as segments,
// one per group plus the separators between them, which concatenate to the
// full output. An empty result is "[]".
func EncodeGroups(groups [][]string) ([][]byte, error) {
	if len(groups) == 0 {
		return [][]byte{[]byte("[]")}, nil
	}

	segments := make([][]byte, 0, 2*len(groups)+1)
	segments = append(segments, []byte("[\n  "))
	for i, group := range groups {
		if i > 0 {
			segments = append(segments, []byte(",\n  "))
		}
		encoded, err := encodeGroup(group)
		if err != nil {
			return nil, err
		}
		segments = append(segments, encoded)
	}
	segments = append(segments, []byte("\n]"))
	return segments, nil
}

// encodeGroup encodes one inner array as it appears nested one level deep
func encodeGroup(group []string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("  ", "  ")
	if err := encoder.Encode(group); err != nil {
		return nil, fmt.Errorf("failed to encode group: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteGroups writes the JSON result to w. When w is a file the segments are
// written with gathered writes.
func WriteGroups(w io.Writer, groups [][]string) error {
	segments, err := EncodeGroups(groups)
	if err != nil {
		return err
	}

	if file, ok := w.(fdWriter); ok {
		return writeSegmentsVectored(file, segments)
	}

	for _, segment := range segments {
		if _, err := w.Write(segment); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult writes the JSON result to destination, a file path or "-" for
// standard output. Failures are reported as an *OutputError.
func WriteResult(destination string, groups [][]string) error {
	if destination == "" || destination == "-" {
		if err := WriteGroups(os.Stdout, groups); err != nil {
			return &OutputError{Destination: "stdout", Err: err}
		}
		return nil
	}

	file, err := os.OpenFile(destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return &OutputError{Destination: destination, Err: err}
	}

	if err := WriteGroups(file, groups); err != nil {
		file.Close()
		return &OutputError{Destination: destination, Err: err}
	}
	if err := file.Close(); err != nil {
		return &OutputError{Destination: destination, Err: err}
	}

	VerboseLog(1, "wrote %d groups to %s", len(groups), destination)
	return nil
}

// writeSegmentsVectored writes segments with writev, chunked to the iovec
// limit. A short write is completed with ordinary writes.
func writeSegmentsVectored(file fdWriter, segments [][]byte) error {
	iovecs := make([]syscall.Iovec, 0, len(segments))
	total := 0
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		iovec := syscall.Iovec{Base: &segment[0]}
		iovec.SetLen(len(segment))
		iovecs = append(iovecs, iovec)
		total += len(segment)
	}

	written := 0
	for offset := 0; offset < len(iovecs); offset += maxIovecs {
		end := offset + maxIovecs
		if end > len(iovecs) {
			end = len(iovecs)
		}

		chunk := iovecs[offset:end]
		nw, err := vectorio.WritevRaw(file.Fd(), chunk)
		if err != nil {
			return fmt.Errorf("failed to write result with vectorio: %w", err)
		}
		written += nw

		expected := 0
		for _, iovec := range chunk {
			expected += int(iovec.Len)
		}
		if nw < expected {
			return writeRemainder(file, segments, written)
		}
	}

	if written != total {
		return fmt.Errorf("result write incomplete: wrote %d bytes, expected %d", written, total)
	}
	return nil
}

// writeRemainder writes everything after the first skip bytes of segments
func writeRemainder(w io.Writer, segments [][]byte, skip int) error {
	for _, segment := range segments {
		if skip >= len(segment) {
			skip -= len(segment)
			continue
		}
		if _, err := w.Write(segment[skip:]); err != nil {
			return err
		}
		skip = 0
	}
	return nil
}
