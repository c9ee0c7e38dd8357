// Command gentemplate writes the minimal Word template embedded by the
// Word exporter. Placeholders: {{Project}}, {{Date}}, {{TotalOperations}},
// {{TotalControllers}} and {{Content}}.
package main

import (
	"archive/zip"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var parts = []struct {
	name string
	body string
}{
	{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`},
	{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`},
	{"word/_rels/document.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>`},
	{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>{{Project}} Route Reference</w:t></w:r></w:p>
<w:p><w:r><w:t>Date: {{Date}}</w:t></w:r></w:p>
<w:p><w:r><w:t>Total Operations: {{TotalOperations}}</w:t></w:r></w:p>
<w:p><w:r><w:t>Total Controllers: {{TotalControllers}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">{{Content}}</w:t></w:r></w:p>
</w:body>
</w:document>`},
}

func main() {
	var output string

	cmd := &cobra.Command{
		Use:   "gentemplate",
		Short: "Write the Word report template",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTemplate(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "template.docx", "template file to write")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func writeTemplate(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, part := range parts {
		pw, err := w.Create(part.name)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", part.name, err)
		}
		if _, err := pw.Write([]byte(part.body)); err != nil {
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	return w.Close()
}
