package requirements

import (
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

// Spec is one version clause such as ">= 1.2". Versions are not interpreted.
type Spec struct {
	Op      string `json:"op" yaml:"op"`
	Version string `json:"version" yaml:"version"`
}

// Requirement is a parsed requirement specifier.
type Requirement struct {
	Name   string   `json:"name" yaml:"name"`
	Extras []string `json:"extras,omitempty" yaml:"extras,omitempty"`
	Specs  []Spec   `json:"specs,omitempty" yaml:"specs,omitempty"`
	URL    string   `json:"url,omitempty" yaml:"url,omitempty"`
	Marker string   `json:"marker,omitempty" yaml:"marker,omitempty"`
}

var (
	nameRE  = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[([^\]]*)\])?\s*(.*)$`)
	specRE  = regexp.MustCompile(`^(~=|===|==|!=|<=|>=|<|>)\s*([A-Za-z0-9_.*+!-]+)$`)
	extraRE = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	keyRE   = regexp.MustCompile(`[-_.]+`)
)

// Parse parses a single requirement specifier such as
// `requests[socks] >= 2.0, < 3; python_version >= "3.8"`.
// A trailing " #" comment is ignored.
func Parse(s string) (Requirement, error) {
	if i := strings.Index(s, " #"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	m := nameRE.FindStringSubmatch(s)
	if m == nil {
		return Requirement{}, errors.New(errors.ErrCodeInvalidRequirement, "invalid requirement: %q", s)
	}
	if err := errors.ValidateProjectName(m[1]); err != nil {
		return Requirement{}, err
	}

	req := Requirement{Name: m[1]}
	if m[2] != "" {
		for _, extra := range strings.Split(m[2], ",") {
			extra = strings.TrimSpace(extra)
			if !extraRE.MatchString(extra) {
				return Requirement{}, errors.New(errors.ErrCodeInvalidRequirement, "invalid extra %q in %q", extra, s)
			}
			req.Extras = append(req.Extras, extra)
		}
	}

	rest := strings.TrimSpace(m[3])
	if strings.HasPrefix(rest, "@") {
		rest = strings.TrimSpace(rest[1:])
		url, marker := splitURLMarker(rest)
		if url == "" {
			return Requirement{}, errors.New(errors.ErrCodeInvalidRequirement, "missing URL in %q", s)
		}
		req.URL = url
		req.Marker = marker
		return req, nil
	}

	specs, marker, _ := strings.Cut(rest, ";")
	req.Marker = strings.TrimSpace(marker)
	specs = strings.TrimSpace(specs)
	if strings.HasPrefix(specs, "(") && strings.HasSuffix(specs, ")") {
		specs = strings.TrimSpace(specs[1 : len(specs)-1])
	}
	if specs == "" {
		return req, nil
	}
	for _, clause := range strings.Split(specs, ",") {
		sm := specRE.FindStringSubmatch(strings.TrimSpace(clause))
		if sm == nil {
			return Requirement{}, errors.New(errors.ErrCodeInvalidRequirement, "invalid version clause %q in %q", clause, s)
		}
		req.Specs = append(req.Specs, Spec{Op: sm[1], Version: sm[2]})
	}
	return req, nil
}

// splitURLMarker splits "url ; marker". The marker separator must be
// preceded by whitespace since ';' is legal inside URLs.
func splitURLMarker(s string) (string, string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	url := strings.TrimSuffix(fields[0], ";")
	rest := strings.TrimSpace(strings.TrimPrefix(s, fields[0]))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ";"))
	return url, rest
}

// ParseAll parses every non-blank, non-comment entry. Entries that fail to
// parse are skipped; the returned error joins their failures so callers can
// log them.
func ParseAll(lines []string) ([]Requirement, error) {
	var (
		reqs []Requirement
		errs []error
	)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		req, err := Parse(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, stderrors.Join(errs...)
}

// Key returns the PEP 503 normalized project name.
func (r Requirement) Key() string {
	return Normalize(r.Name)
}

// Normalize lowercases a project name and collapses runs of "-", "_" and "."
// into a single "-".
func Normalize(name string) string {
	return keyRE.ReplaceAllString(strings.ToLower(name), "-")
}

// String renders the requirement in canonical form.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	if r.URL != "" {
		b.WriteString(" @ " + r.URL)
	}
	for i, s := range r.Specs {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(",")
		}
		b.WriteString(s.Op + s.Version)
	}
	if r.Marker != "" {
		if r.URL != "" {
			b.WriteString(" ")
		}
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}
