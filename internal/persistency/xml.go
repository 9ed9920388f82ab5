package persistency

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/errors"
)

// xmlCatalog is the format 2 layout: every scalar is an attribute.
type xmlCatalog struct {
	XMLName           xml.Name  `xml:"catalog"`
	Version           string    `xml:"version,attr"`
	CatalogedOn       string    `xml:"catalogedOn,attr"`
	UpdatedOn         string    `xml:"updatedOn,attr"`
	BaseDirectoryPath string    `xml:"baseDirectoryPath,attr"`
	Files             []xmlFile `xml:"file"`
}

type xmlFile struct {
	RelativePath string `xml:"relativePath,attr"`
	ContentHash  string `xml:"contentHash,attr"`
	Length       int64  `xml:"length,attr"`
}

// xmlAnyCatalog accepts both the format 2 attribute layout and the format 1 element layout
// (scalars as child elements, entries wrapped in <files>).
type xmlAnyCatalog struct {
	XMLName              xml.Name     `xml:"catalog"`
	Version              string       `xml:"version,attr"`
	VersionElement       string       `xml:"version"`
	CatalogedOn          string       `xml:"catalogedOn,attr"`
	CatalogedOnElement   string       `xml:"catalogedOn"`
	UpdatedOn            string       `xml:"updatedOn,attr"`
	UpdatedOnElement     string       `xml:"updatedOn"`
	BaseDirectory        string       `xml:"baseDirectoryPath,attr"`
	BaseDirectoryElement string       `xml:"baseDirectoryPath"`
	Files                []xmlAnyFile `xml:"file"`
	WrappedFiles         []xmlAnyFile `xml:"files>file"`
}

type xmlAnyFile struct {
	RelativePath        string `xml:"relativePath,attr"`
	RelativePathElement string `xml:"relativePath"`
	ContentHash         string `xml:"contentHash,attr"`
	ContentHashElement  string `xml:"contentHash"`
	Length              string `xml:"length,attr"`
	LengthElement       string `xml:"length"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func encodeXML(w io.Writer, c *catalog.Catalog) error {
	doc := documentFromCatalog(c)
	out := xmlCatalog{
		Version:           doc.Version.String(),
		CatalogedOn:       doc.CatalogedOn,
		UpdatedOn:         doc.UpdatedOn,
		BaseDirectoryPath: doc.BaseDirectoryPath,
		Files:             make([]xmlFile, 0, len(doc.Files)),
	}
	for _, f := range doc.Files {
		out.Files = append(out.Files, xmlFile(f))
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "\t")
	if err := encoder.Encode(out); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func decodeXML(r io.Reader, source string) (*catalog.Catalog, error) {
	var in xmlAnyCatalog
	if err := xml.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.NewFormatError(source, "unparsable XML", err)
	}
	doc, err := in.normalize(source)
	if err != nil {
		return nil, err
	}
	return doc.toCatalog(source)
}

func (in xmlAnyCatalog) normalize(source string) (document, error) {
	var doc document
	versionText := strings.TrimSpace(firstNonEmpty(in.Version, in.VersionElement))
	if versionText == "" {
		return doc, errors.NewFormatError(source, "format version missing", nil)
	}
	version, err := ParseVersion(versionText)
	if err != nil {
		return doc, errors.NewFormatError(source, "bad format version", err)
	}
	doc.Version = version
	doc.CatalogedOn = strings.TrimSpace(firstNonEmpty(in.CatalogedOn, in.CatalogedOnElement))
	doc.UpdatedOn = strings.TrimSpace(firstNonEmpty(in.UpdatedOn, in.UpdatedOnElement))
	doc.BaseDirectoryPath = firstNonEmpty(in.BaseDirectory, in.BaseDirectoryElement)

	all := append(append([]xmlAnyFile(nil), in.Files...), in.WrappedFiles...)
	for i, f := range all {
		entry := fileEntry{
			RelativePath: firstNonEmpty(f.RelativePath, f.RelativePathElement),
			ContentHash:  strings.TrimSpace(firstNonEmpty(f.ContentHash, f.ContentHashElement)),
		}
		lengthText := strings.TrimSpace(firstNonEmpty(f.Length, f.LengthElement))
		if lengthText == "" {
			return doc, errors.NewFormatError(source, fmt.Sprintf("file entry %d has no length", i), nil)
		}
		if entry.Length, err = strconv.ParseInt(lengthText, 10, 64); err != nil {
			return doc, errors.NewFormatError(source, fmt.Sprintf("file entry %d has bad length", i), err)
		}
		doc.Files = append(doc.Files, entry)
	}
	return doc, nil
}
