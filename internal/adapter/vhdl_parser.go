package adapter

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// VHDLParser is a regex-based scanner for VHDL sources. It extracts
// entity, package and context declarations plus the use clauses,
// context references, entity instantiations and package bodies that
// form dependency edges. It does no semantic elaboration.
type VHDLParser struct{}

// NewVHDLParser constructs a VHDLParser.
func NewVHDLParser() *VHDLParser {
	return &VHDLParser{}
}

var (
	vhdlEntityDecl  = regexp.MustCompile(`(?i)\bentity\s+(\w+)\s+is\b`)
	vhdlPackageDecl = regexp.MustCompile(`(?i)\bpackage\s+(\w+)\s+is\b`)
	vhdlContextDecl = regexp.MustCompile(`(?i)\bcontext\s+(\w+)\s+is\b`)

	vhdlUseClause    = regexp.MustCompile(`(?i)\buse\s+(\w+)\.(\w+)`)
	vhdlContextRef   = regexp.MustCompile(`(?i)\bcontext\s+(\w+)\.(\w+)`)
	vhdlEntityInst   = regexp.MustCompile(`(?i)\bentity\s+(\w+)\.(\w+)`)
	vhdlPackageBody  = regexp.MustCompile(`(?i)\bpackage\s+body\s+(\w+)\s+is\b`)
	vhdlLineComment  = regexp.MustCompile(`--.*$`)
	vhdlWorkLibrary  = "work"
)

// Parse scans the file line by line. Unreadable files produce an empty
// result and an error.
func (p *VHDLParser) Parse(path m.Path) ([]m.DesignUnit, []m.DependencySpec, error) {
	f, err := os.Open(path.Name())
	if err != nil {
		return nil, nil, fmt.Errorf("open vhdl source: %w", err)
	}
	defer f.Close()

	var units []m.DesignUnit

	var deps []m.DependencySpec

	seenDeps := make(map[string]int)

	addDep := func(spec m.DependencySpec, loc m.Location) {
		key := string(spec.Kind) + "|" + spec.Name.Key()
		if spec.Library != nil {
			key += "|" + spec.Library.Key()
		}

		if idx, ok := seenDeps[key]; ok {
			deps[idx].Locations = append(deps[idx].Locations, loc)
			return
		}

		spec.Locations = []m.Location{loc}
		seenDeps[key] = len(deps)
		deps = append(deps, spec)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := vhdlLineComment.ReplaceAllString(scanner.Text(), "")

		// Package bodies depend on their own package and define
		// nothing visible to other files.
		if match := vhdlPackageBody.FindStringSubmatchIndex(line); match != nil {
			name := line[match[2]:match[3]]
			addDep(
				m.RequiredUnit(path, m.VHDLIdentifier(name), nil),
				m.Location{Line: lineNo, Column: match[2] + 1},
			)

			continue
		}

		for _, decl := range []struct {
			re   *regexp.Regexp
			kind m.UnitKind
		}{
			{vhdlEntityDecl, m.UnitEntity},
			{vhdlPackageDecl, m.UnitPackage},
			{vhdlContextDecl, m.UnitContext},
		} {
			if match := decl.re.FindStringSubmatchIndex(line); match != nil {
				name := line[match[2]:match[3]]
				units = append(units, m.DesignUnit{
					Owner:     path,
					Kind:      decl.kind,
					Name:      m.VHDLIdentifier(name),
					Locations: []m.Location{{Line: lineNo, Column: match[2] + 1}},
				})
			}
		}

		for _, ref := range []struct {
			re *regexp.Regexp
		}{
			{vhdlUseClause},
			{vhdlContextRef},
			{vhdlEntityInst},
		} {
			for _, match := range ref.re.FindAllStringSubmatchIndex(line, -1) {
				library := line[match[2]:match[3]]
				name := line[match[4]:match[5]]
				addDep(
					m.RequiredUnit(path, m.VHDLIdentifier(name), libraryRef(library)),
					m.Location{Line: lineNo, Column: match[2] + 1},
				)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan vhdl source: %w", err)
	}

	return units, deps, nil
}

// libraryRef maps a written library name to its dependency form: the
// magic "work" library resolves against the owner's own library at
// lookup time, so it is recorded as unset.
func libraryRef(name string) *m.Identifier {
	if strings.EqualFold(name, vhdlWorkLibrary) {
		return nil
	}

	id := m.VHDLIdentifier(name)

	return &id
}
