// Package persistency reads and writes catalogs (structured, versioned) and
// multi-location indices (compact binary). Every write replaces the whole file.
package persistency

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/locations"
)

type Encoding int

const (
	XML Encoding = iota
	YAML
	Binary
)

func (e Encoding) String() string {
	switch e {
	case XML:
		return "xml"
	case YAML:
		return "yaml"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

const workInProgressFileSuffix = ".wip"
const compressedSuffix = ".gz"

// BinaryExtension marks multi-location index files.
const BinaryExtension = ".dcmi"

// EncodingOf derives the encoding from the file name: .xml, .yaml/.yml, each optionally
// followed by .gz, or the binary index extension.
func EncodingOf(path string) (encoding Encoding, compressed bool, err error) {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, compressedSuffix) {
		compressed = true
		name = strings.TrimSuffix(name, compressedSuffix)
	}
	switch {
	case strings.HasSuffix(name, ".xml"):
		encoding = XML
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		encoding = YAML
	case strings.HasSuffix(name, BinaryExtension):
		if compressed {
			return 0, false, fmt.Errorf("binary index files are never compressed: %s", path)
		}
		encoding = Binary
	default:
		return 0, false, fmt.Errorf("unknown catalog file type: %s", path)
	}
	return
}

// EncodeCatalog writes the structured form of the catalog in the current format version.
func EncodeCatalog(w io.Writer, c *catalog.Catalog, encoding Encoding) error {
	switch encoding {
	case XML:
		return encodeXML(w, c)
	case YAML:
		return encodeYAML(w, c)
	default:
		return fmt.Errorf("catalogs cannot be stored as %s", encoding)
	}
}

// DecodeCatalog reads a structured catalog. The source name is only used in error messages.
func DecodeCatalog(r io.Reader, encoding Encoding, source string) (*catalog.Catalog, error) {
	switch encoding {
	case XML:
		return decodeXML(r, source)
	case YAML:
		return decodeYAML(r, source)
	default:
		return nil, fmt.Errorf("catalogs cannot be loaded from %s", encoding)
	}
}

func EncodeIndex(w io.Writer, x *locations.Index) error {
	return encodeBinary(w, x)
}

func DecodeIndex(r io.Reader, source string) (*locations.Index, error) {
	return decodeBinary(r, source)
}

// Store persists catalogs and indices on a file system.
// No locking is done: concurrent writers to one file are not supported.
type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

func (s *Store) WriteCatalog(c *catalog.Catalog, path string, overwrite bool) error {
	encoding, compressed, err := EncodingOf(path)
	if err != nil {
		return err
	}
	return s.replace(path, overwrite, compressed, func(w io.Writer) error {
		return EncodeCatalog(w, c, encoding)
	})
}

// ReadCatalog loads a structured catalog; on any error no catalog is returned.
func (s *Store) ReadCatalog(path string) (*catalog.Catalog, error) {
	encoding, compressed, err := EncodingOf(path)
	if err != nil {
		return nil, err
	}
	var c *catalog.Catalog
	err = s.load(path, compressed, func(r io.Reader) (decodeErr error) {
		c, decodeErr = DecodeCatalog(r, encoding, path)
		return
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) WriteIndex(x *locations.Index, path string, overwrite bool) error {
	if encoding, _, err := EncodingOf(path); err != nil || encoding != Binary {
		return fmt.Errorf("index files need the %s extension: %s", BinaryExtension, path)
	}
	return s.replace(path, overwrite, false, func(w io.Writer) error {
		return EncodeIndex(w, x)
	})
}

func (s *Store) ReadIndex(path string) (*locations.Index, error) {
	var x *locations.Index
	err := s.load(path, false, func(r io.Reader) (decodeErr error) {
		x, decodeErr = DecodeIndex(r, path)
		return
	})
	if err != nil {
		return nil, err
	}
	return x, nil
}

// replace writes to a work-in-progress sibling first and renames it over the target on success.
func (s *Store) replace(path string, overwrite bool, compressed bool, encode func(io.Writer) error) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("saving %s failed: %w", path, err)
		}
	}()

	if !overwrite {
		if _, statErr := s.fs.Stat(path); statErr == nil {
			return fmt.Errorf("file exists already")
		} else if !os.IsNotExist(statErr) {
			return statErr
		}
	}

	tempPath := path + workInProgressFileSuffix
	file, err := s.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.NewIOError("create", tempPath, err)
	}
	committed := false
	defer func() {
		if !committed {
			file.Close()
			s.fs.Remove(tempPath)
		}
	}()

	var target io.Writer = file
	var compressor *gzip.Writer
	if compressed {
		compressor, _ = gzip.NewWriterLevel(file, gzip.BestSpeed) //level is valid
		target = compressor
	}
	if err = encode(target); err != nil {
		return err
	}
	if compressor != nil {
		if err = compressor.Close(); err != nil {
			return errors.NewIOError("compress", tempPath, err)
		}
	}
	if err = file.Sync(); err != nil {
		return errors.NewIOError("sync", tempPath, err)
	}
	committed = true
	if err = file.Close(); err != nil {
		s.fs.Remove(tempPath)
		return errors.NewIOError("close", tempPath, err)
	}
	if err = s.fs.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing %s with temporary working copy %s failed: %w", path, tempPath, err)
	}
	return nil
}

func (s *Store) load(path string, compressed bool, decode func(io.Reader) error) error {
	leftover := path + workInProgressFileSuffix
	if _, err := s.fs.Stat(leftover); err == nil {
		return errors.NewIOError("open", path, fmt.Errorf("unfinished write %s found, manual intervention necessary", leftover))
	}

	file, err := s.fs.Open(path)
	if err != nil {
		return errors.NewIOError("open", path, err)
	}
	defer file.Close()

	var source io.Reader = file
	if compressed {
		decompressor, err := gzip.NewReader(file)
		if err != nil {
			return errors.NewFormatError(path, "not gzip compressed", err)
		}
		defer decompressor.Close()
		source = decompressor
	}
	return decode(source)
}
