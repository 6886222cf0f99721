package errors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Severity represents the severity of a build diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one problem reported in build tool output.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Raw      string   `json:"raw"`
}

// Location renders file:line:col, omitting unknown parts.
func (d *Diagnostic) Location() string {
	if d.File == "" {
		return ""
	}
	if d.Line == 0 {
		return d.File
	}
	if d.Column == 0 {
		return fmt.Sprintf("%s:%d", d.File, d.Line)
	}

	return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
}

// String formats the diagnostic like compiler output.
func (d *Diagnostic) String() string {
	if loc := d.Location(); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
	}

	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// DiagnosticParser extracts diagnostics from the stderr of script
// bundlers and type checkers.
type DiagnosticParser struct {
	patterns []diagnosticPattern
	// pending location lines follow a message that had none (esbuild).
	location *regexp.Regexp
}

type diagnosticPattern struct {
	regex       *regexp.Regexp
	parseFields func(matches []string) Diagnostic
}

// NewDiagnosticParser creates a parser that knows tsc, esbuild, and the
// generic file:line:col form used by most other tools.
func NewDiagnosticParser() *DiagnosticParser {
	return &DiagnosticParser{
		patterns: buildDiagnosticPatterns(),
		location: regexp.MustCompile(`^(\S+?):(\d+):(\d+):?$`),
	}
}

// Parse returns every diagnostic found in output, in order.
func (p *DiagnosticParser) Parse(output string) []*Diagnostic {
	var diagnostics []*Diagnostic

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if last := lastOf(diagnostics); last != nil && last.File == "" {
			if m := p.location.FindStringSubmatch(line); m != nil {
				last.File = m[1]
				last.Line, _ = strconv.Atoi(m[2])
				last.Column, _ = strconv.Atoi(m[3])
				continue
			}
		}

		if d := p.match(line); d != nil {
			diagnostics = append(diagnostics, d)
			continue
		}

		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
			diagnostics = append(diagnostics, &Diagnostic{
				Severity: SeverityError,
				Message:  line,
				Raw:      line,
			})
		}
	}

	return diagnostics
}

// First returns the first error-severity diagnostic in output, or nil.
func (p *DiagnosticParser) First(output string) *Diagnostic {
	for _, d := range p.Parse(output) {
		if d.Severity == SeverityError {
			return d
		}
	}

	return nil
}

func (p *DiagnosticParser) match(line string) *Diagnostic {
	for _, pattern := range p.patterns {
		if matches := pattern.regex.FindStringSubmatch(line); matches != nil {
			d := pattern.parseFields(matches)
			d.Raw = line

			return &d
		}
	}

	return nil
}

func lastOf(diagnostics []*Diagnostic) *Diagnostic {
	if len(diagnostics) == 0 {
		return nil
	}

	return diagnostics[len(diagnostics)-1]
}

func parseSeverity(word string) Severity {
	switch strings.ToLower(word) {
	case "warning", "warn":
		return SeverityWarning
	case "info", "note":
		return SeverityInfo
	default:
		return SeverityError
	}
}

func buildDiagnosticPatterns() []diagnosticPattern {
	return []diagnosticPattern{
		{
			// tsc: src/app.ts(3,5): error TS2322: Type 'string' is not assignable
			regex: regexp.MustCompile(`^(.+?)\((\d+),(\d+)\): (error|warning) (TS\d+: .+)$`),
			parseFields: func(m []string) Diagnostic {
				line, _ := strconv.Atoi(m[2])
				column, _ := strconv.Atoi(m[3])
				return Diagnostic{Severity: parseSeverity(m[4]), File: m[1], Line: line, Column: column, Message: m[5]}
			},
		},
		{
			// esbuild: ✘ [ERROR] Could not resolve "./missing"
			regex: regexp.MustCompile(`^(?:✘|▲)?\s*\[(ERROR|WARNING)\] (.+)$`),
			parseFields: func(m []string) Diagnostic {
				return Diagnostic{Severity: parseSeverity(m[1]), Message: m[2]}
			},
		},
		{
			// src/app.js:3:5: error: Unexpected token
			regex: regexp.MustCompile(`^(\S+?):(\d+):(\d+): (?:(error|warning|note): )?(.+)$`),
			parseFields: func(m []string) Diagnostic {
				line, _ := strconv.Atoi(m[2])
				column, _ := strconv.Atoi(m[3])
				return Diagnostic{Severity: parseSeverity(m[4]), File: m[1], Line: line, Column: column, Message: m[5]}
			},
		},
		{
			regex: regexp.MustCompile(`^(\S+?):(\d+): (.+)$`),
			parseFields: func(m []string) Diagnostic {
				line, _ := strconv.Atoi(m[2])
				return Diagnostic{Severity: SeverityError, File: m[1], Line: line, Message: m[3]}
			},
		},
		{
			regex: regexp.MustCompile(`^npm (?:ERR!|error) (.+)$`),
			parseFields: func(m []string) Diagnostic {
				return Diagnostic{Severity: SeverityError, Message: m[1]}
			},
		},
	}
}
