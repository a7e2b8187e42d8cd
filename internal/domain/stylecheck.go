package domain

import (
	"bufio"
	"fmt"
	"os"
	"regexp"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// StyleChecker is the secondary, text-pattern checker. It runs over the
// raw file text independently of the compile chain: unused signal
// declarations and leftover task comments. It never consults the
// dependency database.
type StyleChecker struct{}

// NewStyleChecker constructs a StyleChecker.
func NewStyleChecker() *StyleChecker {
	return &StyleChecker{}
}

var (
	styleSignalDecl = regexp.MustCompile(`(?i)^\s*signal\s+(\w+)\s*(?:,\s*(\w+)\s*)?:`)
	styleTaskTag    = regexp.MustCompile(`(?i)\b(TODO|FIXME|XXX)\b\s*:?\s*(.*)`)
	styleComment    = regexp.MustCompile(`(--|//).*$`)
	styleWord       = regexp.MustCompile(`\w+`)
)

// Check scans one file. An unreadable file yields no diagnostics; the
// compile chain reports the hard failure.
func (c *StyleChecker) Check(path m.Path) []m.Diagnostic {
	f, err := os.Open(path.Name())
	if err != nil {
		return nil
	}
	defer f.Close()

	type declared struct {
		name string
		line int
		uses int
	}

	var signals []*declared

	byName := make(map[string]*declared)

	var diags []m.Diagnostic

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		if match := styleTaskTag.FindStringSubmatch(raw); match != nil {
			diags = append(diags, m.Diagnostic{
				Checker:  m.CheckerStyle,
				Severity: m.SeverityStyleInfo,
				Filename: path,
				Line:     lineNo,
				Text:     fmt.Sprintf("%s found: %q", match[1], match[2]),
			})
		}

		line := styleComment.ReplaceAllString(raw, "")

		if match := styleSignalDecl.FindStringSubmatch(line); match != nil {
			for _, name := range match[1:] {
				if name == "" {
					continue
				}

				d := &declared{name: name, line: lineNo}
				signals = append(signals, d)
				byName[normalizeWord(name)] = d
			}

			continue
		}

		for _, word := range styleWord.FindAllString(line, -1) {
			if d, ok := byName[normalizeWord(word)]; ok {
				d.uses++
			}
		}
	}

	for _, d := range signals {
		if d.uses == 0 {
			diags = append(diags, m.Diagnostic{
				Checker:  m.CheckerStyle,
				Severity: m.SeverityStyleWarning,
				Filename: path,
				Line:     d.line,
				Text:     fmt.Sprintf("signal %q is never used", d.name),
			})
		}
	}

	return diags
}

func normalizeWord(word string) string {
	return m.VHDLIdentifier(word).Key()
}
