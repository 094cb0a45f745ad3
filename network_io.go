package osm2ttm

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

const (
	DEFAULT_SCANNER_PROCS = 4
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// newOSMScanner guesses file format by extension and prepares scanner for it
func newOSMScanner(ctx context.Context, reader io.Reader, filename string, procs int) (OSMScanner, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(ctx, reader), nil
	case ".pbf":
		if procs < 1 {
			procs = DEFAULT_SCANNER_PROCS
		}
		return osmpbf.New(ctx, reader, procs), nil
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

// scanNetwork calls visit for every object of the network file
func scanNetwork(ctx context.Context, filename string, procs int, visit func(obj osm.Object) error) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "Can't open network file '%s'", filename)
	}
	defer file.Close()

	scanner, err := newOSMScanner(ctx, file, filename, procs)
	if err != nil {
		return err
	}
	defer scanner.Close()

	for scanner.Scan() {
		if err := visit(scanner.Object()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "Can't scan network file '%s'", filename)
	}
	return nil
}

// NetworkWriter serializes OSM objects into a network file
type NetworkWriter interface {
	Write(obj osm.Object) error
	Close() error
}

type osmXMLWriter struct {
	buffer  *bufio.Writer
	encoder *xml.Encoder
}

// newOSMXMLWriter starts OSM XML document in the given writer
func newOSMXMLWriter(w io.Writer) (*osmXMLWriter, error) {
	buffer := bufio.NewWriter(w)
	_, err := buffer.WriteString(xml.Header + `<osm version="0.6" generator="osm2ttm">` + "\n")
	if err != nil {
		return nil, err
	}
	encoder := xml.NewEncoder(buffer)
	encoder.Indent(" ", " ")
	return &osmXMLWriter{buffer: buffer, encoder: encoder}, nil
}

func (writer *osmXMLWriter) Write(obj osm.Object) error {
	return writer.encoder.Encode(obj)
}

// Close finishes document. Underlying writer is not closed.
func (writer *osmXMLWriter) Close() error {
	if err := writer.encoder.Flush(); err != nil {
		return err
	}
	if _, err := writer.buffer.WriteString("\n</osm>\n"); err != nil {
		return err
	}
	return writer.buffer.Flush()
}

func isOSMXMLFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".osm" || ext == ".xml"
}

// writeNetworkAtomically writes network into a temporary sibling of output and renames it on success
func writeNetworkAtomically(output string, write func(writer NetworkWriter) error) (err error) {
	if !isOSMXMLFile(output) {
		return fmt.Errorf("Output network '%s' must have .osm or .xml extension", output)
	}
	tmp, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "Can't create temporary file for '%s'", output)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			if rmErr := os.Remove(tmp.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
				reportWarning(&ResourceCleanupError{Path: tmp.Name(), Err: rmErr})
			}
		}
	}()

	writer, err := newOSMXMLWriter(tmp)
	if err != nil {
		return errors.Wrapf(err, "Can't start network '%s'", output)
	}
	if err = write(writer); err != nil {
		return err
	}
	if err = writer.Close(); err != nil {
		return errors.Wrapf(err, "Can't finish network '%s'", output)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "Can't close network '%s'", output)
	}
	if err = os.Rename(tmp.Name(), output); err != nil {
		return errors.Wrapf(err, "Can't move network into '%s'", output)
	}
	return nil
}

// rewriteNetwork streams input network into output one. Visit may modify ways in place;
// every object is written exactly once, in input order.
func rewriteNetwork(ctx context.Context, input, output string, procs int, visit func(obj osm.Object) error) error {
	return writeNetworkAtomically(output, func(writer NetworkWriter) error {
		return scanNetwork(ctx, input, procs, func(obj osm.Object) error {
			if visit != nil {
				if err := visit(obj); err != nil {
					return err
				}
			}
			if err := writer.Write(obj); err != nil {
				return errors.Wrapf(err, "Can't write %s", obj.ObjectID())
			}
			return nil
		})
	})
}
