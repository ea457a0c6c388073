package parsers

import (
	"encoding/xml"
	"io"
	"strings"
)

// xmlTextRuns streams an OOXML part and gathers character data inside text
// run elements (local name runElem, "t" for both DrawingML and WordprocessingML),
// inserting a line break at the close of each paragraph element.
func xmlTextRuns(r io.Reader, runElem, paraElem string) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	depth := 0 // nesting depth inside runElem elements

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == runElem {
				depth++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case runElem:
				if depth > 0 {
					depth--
				}
			case paraElem:
				sb.WriteString("\n")
			}
		case xml.CharData:
			if depth > 0 {
				sb.Write(t)
			}
		}
	}

	// Collapse runs of blank lines left by empty paragraphs.
	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n")), nil
}
