package persistency

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/errors"
)

type yamlCatalog struct {
	Version           Version    `yaml:"version"`
	CatalogedOn       string     `yaml:"catalogedOn"`
	UpdatedOn         string     `yaml:"updatedOn,omitempty"`
	BaseDirectoryPath string     `yaml:"baseDirectoryPath"`
	Files             []yamlFile `yaml:"files"`
}

type yamlFile struct {
	RelativePath string `yaml:"relativePath"`
	ContentHash  string `yaml:"contentHash"`
	Length       int64  `yaml:"length"`
}

func encodeYAML(w io.Writer, c *catalog.Catalog) error {
	doc := documentFromCatalog(c)
	out := yamlCatalog{
		Version:           doc.Version,
		CatalogedOn:       doc.CatalogedOn,
		UpdatedOn:         doc.UpdatedOn,
		BaseDirectoryPath: doc.BaseDirectoryPath,
		Files:             make([]yamlFile, 0, len(doc.Files)),
	}
	for _, f := range doc.Files {
		out.Files = append(out.Files, yamlFile(f))
	}
	blob, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}

func decodeYAML(r io.Reader, source string) (*catalog.Catalog, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError("read", source, err)
	}
	var in yamlCatalog
	if err := yaml.Unmarshal(blob, &in); err != nil {
		return nil, errors.NewFormatError(source, "unparsable YAML", err)
	}
	doc := document{
		Version:           in.Version,
		CatalogedOn:       in.CatalogedOn,
		UpdatedOn:         in.UpdatedOn,
		BaseDirectoryPath: in.BaseDirectoryPath,
	}
	for _, f := range in.Files {
		doc.Files = append(doc.Files, fileEntry(f))
	}
	return doc.toCatalog(source)
}
