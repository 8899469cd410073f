package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// extractDocx reads the main document part of a docx archive and collects
// paragraph text. Legacy binary .doc files are rejected by the zip reader.
func extractDocx(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, "failed to open docx archive")
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, openErr := f.Open()
			if openErr != nil {
				return "", errors.Wrap(openErr, "failed to open word/document.xml")
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", errors.Wrap(err, "failed to read word/document.xml")
			}
			break
		}
	}
	if docXML == nil {
		return "", errors.New("docx archive has no word/document.xml")
	}

	decoder := xml.NewDecoder(bytes.NewReader(docXML))
	var sb strings.Builder
	var inText bool
	for {
		tok, tokErr := decoder.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return "", errors.Wrap(tokErr, "failed to decode document xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	result := strings.TrimSpace(sb.String())
	if result == "" {
		return "", errors.New("docx contains no text")
	}
	return result, nil
}
