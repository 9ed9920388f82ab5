package persistency

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/n2code/dupcat/internal/content"
	"github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/locations"
)

// Binary multi-location layout, all integers little-endian:
//
//	magic "DCMI" | version u32 | item count u32
//	per item:     hash u64 | [v2: flags u8 | size i64 if flags&1] | location count u32
//	per location: path str | [v2: volume str] | read-only u8
//
// where str is a u32 byte length followed by UTF-8 bytes.
var binaryMagic = [4]byte{'D', 'C', 'M', 'I'}

const (
	binaryVersionMinimal uint32 = 1
	binaryVersionCurrent uint32 = 2
)

const (
	flagSizeKnown byte = 1 << iota
)

const maxStringLength = 1 << 16

var byteOrder = binary.LittleEndian

type binaryWriter struct {
	w   *bufio.Writer
	err error
}

func (bw *binaryWriter) put(data any) {
	if bw.err == nil {
		bw.err = binary.Write(bw.w, byteOrder, data)
	}
}

func (bw *binaryWriter) putString(s string) {
	bw.put(uint32(len(s)))
	if bw.err == nil {
		_, bw.err = bw.w.WriteString(s)
	}
}

func (bw *binaryWriter) putBool(b bool) {
	var v uint8
	if b {
		v = 1
	}
	bw.put(v)
}

func encodeBinary(w io.Writer, x *locations.Index) error {
	items := x.Items()
	bw := &binaryWriter{w: bufio.NewWriter(w)}
	bw.put(binaryMagic)
	bw.put(binaryVersionCurrent)
	bw.put(uint32(len(items)))
	for _, it := range items {
		bw.put(uint64(it.Hash))
		var flags byte
		if it.SizeKnown {
			flags |= flagSizeKnown
		}
		bw.put(flags)
		if it.SizeKnown {
			bw.put(it.Size)
		}
		bw.put(uint32(len(it.Locations)))
		for _, l := range it.Locations {
			bw.putString(l.FullPath)
			bw.putString(l.Volume)
			bw.putBool(l.ReadOnly)
		}
	}
	if bw.err != nil {
		return bw.err
	}
	return bw.w.Flush()
}

type binaryReader struct {
	r      *bufio.Reader
	source string
}

func (br *binaryReader) fail(what string, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.NewFormatError(br.source, "truncated or corrupt "+what, err)
}

func (br *binaryReader) get(what string, data any) error {
	if err := binary.Read(br.r, byteOrder, data); err != nil {
		return br.fail(what, err)
	}
	return nil
}

func (br *binaryReader) getString(what string) (string, error) {
	var length uint32
	if err := br.get(what+" length", &length); err != nil {
		return "", err
	}
	if length > maxStringLength {
		return "", errors.NewFormatError(br.source, fmt.Sprintf("%s length %d exceeds limit", what, length), nil)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return "", br.fail(what, err)
	}
	return string(buf), nil
}

func (br *binaryReader) getBool(what string) (bool, error) {
	var v uint8
	if err := br.get(what, &v); err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.NewFormatError(br.source, fmt.Sprintf("%s has invalid boolean value %d", what, v), nil)
	}
}

// decodeBinary validates magic and version before trusting anything else.
// Any inconsistency fails the whole read, there is no partial recovery.
func decodeBinary(r io.Reader, source string) (*locations.Index, error) {
	br := &binaryReader{r: bufio.NewReader(r), source: source}

	var magic [4]byte
	if err := br.get("magic", &magic); err != nil {
		return nil, err
	}
	if magic != binaryMagic {
		return nil, errors.NewFormatError(source, fmt.Sprintf("bad magic %q", magic[:]), nil)
	}
	var version uint32
	if err := br.get("version", &version); err != nil {
		return nil, err
	}
	if version != binaryVersionMinimal && version != binaryVersionCurrent {
		return nil, errors.NewFormatError(source, fmt.Sprintf("unsupported binary format version %d", version), nil)
	}
	var count uint32
	if err := br.get("item count", &count); err != nil {
		return nil, err
	}

	x := locations.NewIndex()
	for i := uint32(0); i < count; i++ {
		item, err := br.getItem(version)
		if err != nil {
			return nil, err
		}
		if err := x.Add(item); err != nil {
			return nil, errors.NewFormatError(source, fmt.Sprintf("item %d", i), err)
		}
	}
	if _, err := br.r.ReadByte(); err != io.EOF {
		return nil, errors.NewFormatError(source, "trailing data after last item", err)
	}
	return x, nil
}

func (br *binaryReader) getItem(version uint32) (locations.Item, error) {
	var item locations.Item
	var hash uint64
	if err := br.get("item hash", &hash); err != nil {
		return item, err
	}
	item.Hash = content.CompactHash(hash)
	if version >= binaryVersionCurrent {
		var flags byte
		if err := br.get("item flags", &flags); err != nil {
			return item, err
		}
		if flags&flagSizeKnown != 0 {
			if err := br.get("item size", &item.Size); err != nil {
				return item, err
			}
			if item.Size < 0 {
				return item, errors.NewFormatError(br.source, fmt.Sprintf("item %s has negative size", item.Hash), nil)
			}
			item.SizeKnown = true
		}
	}
	var count uint32
	if err := br.get("location count", &count); err != nil {
		return item, err
	}
	if count == 0 {
		return item, errors.NewFormatError(br.source, fmt.Sprintf("item %s has no locations", item.Hash), nil)
	}
	locs := make([]locations.Location, 0, min(count, 1024))
	for j := uint32(0); j < count; j++ {
		var l locations.Location
		var err error
		if l.FullPath, err = br.getString("location path"); err != nil {
			return item, err
		}
		if version >= binaryVersionCurrent {
			if l.Volume, err = br.getString("location volume"); err != nil {
				return item, err
			}
		}
		if l.ReadOnly, err = br.getBool("location read-only flag"); err != nil {
			return item, err
		}
		locs = append(locs, l)
	}
	sized := locations.NewItem(item.Hash, locs...)
	sized.Size, sized.SizeKnown = item.Size, item.SizeKnown
	return sized, nil
}
