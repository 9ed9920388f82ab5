package persistency

import (
	"fmt"
	"time"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/content"
	"github.com/n2code/dupcat/internal/errors"
)

// document is the encoding-neutral form of a persisted catalog.
type document struct {
	Version           Version
	CatalogedOn       string
	UpdatedOn         string //absent before format 2
	BaseDirectoryPath string
	Files             []fileEntry
}

type fileEntry struct {
	RelativePath string
	ContentHash  string
	Length       int64
}

const timestampLayout = time.RFC3339Nano

func documentFromCatalog(c *catalog.Catalog) document {
	doc := document{
		Version:           CurrentVersion,
		CatalogedOn:       c.CatalogedOn().UTC().Format(timestampLayout),
		UpdatedOn:         c.UpdatedOn().UTC().Format(timestampLayout),
		BaseDirectoryPath: c.BaseDirectory(),
	}
	for _, r := range c.Records() {
		doc.Files = append(doc.Files, fileEntry{
			RelativePath: string(r.Path()),
			ContentHash:  r.Hash().String(),
			Length:       r.Size(),
		})
	}
	return doc
}

// toCatalog validates the document completely before any catalog object exists.
func (doc document) toCatalog(source string) (*catalog.Catalog, error) {
	if !doc.Version.Readable() {
		return nil, errors.NewFormatError(source, fmt.Sprintf("unsupported format version %s", doc.Version), nil)
	}
	if doc.CatalogedOn == "" {
		return nil, errors.NewFormatError(source, "catalogedOn missing", nil)
	}
	catalogedOn, err := time.Parse(timestampLayout, doc.CatalogedOn)
	if err != nil {
		return nil, errors.NewFormatError(source, "bad catalogedOn", err)
	}
	updatedOn := catalogedOn
	if doc.UpdatedOn != "" {
		if updatedOn, err = time.Parse(timestampLayout, doc.UpdatedOn); err != nil {
			return nil, errors.NewFormatError(source, "bad updatedOn", err)
		}
	}
	records := make([]catalog.Record, 0, len(doc.Files))
	for i, f := range doc.Files {
		if f.RelativePath == "" {
			return nil, errors.NewFormatError(source, fmt.Sprintf("file entry %d has no path", i), nil)
		}
		hash, err := content.ParseHash(f.ContentHash)
		if err != nil {
			return nil, errors.NewFormatError(source, fmt.Sprintf("file entry %s", f.RelativePath), err)
		}
		if f.Length < 0 {
			return nil, errors.NewFormatError(source, fmt.Sprintf("file entry %s has negative length", f.RelativePath), nil)
		}
		records = append(records, catalog.NewRecord(f.RelativePath, f.Length, hash))
	}
	c, err := catalog.New(doc.BaseDirectoryPath, catalogedOn, updatedOn, records)
	if err != nil {
		return nil, errors.NewFormatError(source, "inconsistent file entries", err)
	}
	return c, nil
}
