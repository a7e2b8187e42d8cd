package adapter

import (
	"bufio"
	"fmt"
	"os"
	"regexp"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// VerilogParser is a regex-based scanner for Verilog and SystemVerilog
// sources. Modules and packages are the defined units; `include
// directives become textual-inclusion dependencies and package imports
// become design unit dependencies. Verilog has no library concept, so
// required units carry no library qualifier.
type VerilogParser struct{}

// NewVerilogParser constructs a VerilogParser.
func NewVerilogParser() *VerilogParser {
	return &VerilogParser{}
}

var (
	verilogModuleDecl  = regexp.MustCompile(`(?m)^\s*(?:macro)?module\s+(\w+)`)
	verilogPackageDecl = regexp.MustCompile(`(?m)^\s*package\s+(\w+)`)
	verilogInclude     = regexp.MustCompile("`include\\s+\"([^\"]+)\"")
	verilogImport      = regexp.MustCompile(`\bimport\s+(\w+)\s*::`)
	verilogComment     = regexp.MustCompile(`//.*$`)
)

// Parse scans the file line by line. Block comments spanning lines are
// not tracked; the scanners only need declaration heads, which real
// sources keep outside comment blocks.
func (p *VerilogParser) Parse(path m.Path) ([]m.DesignUnit, []m.DependencySpec, error) {
	f, err := os.Open(path.Name())
	if err != nil {
		return nil, nil, fmt.Errorf("open verilog source: %w", err)
	}
	defer f.Close()

	var units []m.DesignUnit

	var deps []m.DependencySpec

	seenDeps := make(map[string]int)

	addDep := func(spec m.DependencySpec, loc m.Location) {
		key := string(spec.Kind) + "|" + spec.Name.Key()
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

		// Includes are resolved before comment stripping would not
		// matter; order kept simple.
		raw := scanner.Text()
		line := verilogComment.ReplaceAllString(raw, "")

		if match := verilogModuleDecl.FindStringSubmatchIndex(line); match != nil {
			units = append(units, m.DesignUnit{
				Owner:     path,
				Kind:      m.UnitEntity,
				Name:      m.VerilogIdentifier(line[match[2]:match[3]]),
				Locations: []m.Location{{Line: lineNo, Column: match[2] + 1}},
			})
		}

		if match := verilogPackageDecl.FindStringSubmatchIndex(line); match != nil {
			units = append(units, m.DesignUnit{
				Owner:     path,
				Kind:      m.UnitPackage,
				Name:      m.VerilogIdentifier(line[match[2]:match[3]]),
				Locations: []m.Location{{Line: lineNo, Column: match[2] + 1}},
			})
		}

		for _, match := range verilogInclude.FindAllStringSubmatchIndex(line, -1) {
			name := line[match[2]:match[3]]
			addDep(
				m.IncludedPath(path, m.VerilogIdentifier(name)),
				m.Location{Line: lineNo, Column: match[2] + 1},
			)
		}

		for _, match := range verilogImport.FindAllStringSubmatchIndex(line, -1) {
			name := line[match[2]:match[3]]
			addDep(
				m.RequiredUnit(path, m.VerilogIdentifier(name), nil),
				m.Location{Line: lineNo, Column: match[2] + 1},
			)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan verilog source: %w", err)
	}

	return units, deps, nil
}
