// Package export renders an emitted plan for its consumers: a CMake
// fragment for the native build/test backend and JSON for machine
// consumption. Both renderings are deterministic byte-for-byte for a given
// plan.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/firmware-grid/fwplan/internal/plan"
)

const sepLine = "################################################################################"

// WriteCMake renders the plan as CMake function calls: one
// firmware_build() stanza per build unit, then one firmware_test() stanza
// per test case referencing its owning build.
func WriteCMake(w io.Writer, p *plan.Plan) error {
	bw := &errWriter{w: w}

	bw.line(sepLine)
	bw.line("# Firmware builds")
	bw.line(sepLine)
	bw.line("")

	for _, b := range p.Builds {
		bw.line("firmware_build(")
		bw.linef("   BUILD_ID %q", b.ID)
		bw.linef("   FINGERPRINT %q", b.Fingerprint)
		bw.linef("   SKETCH %q", b.Sketch)
		for _, m := range b.Modules {
			bw.linef("   URL %q", m.URL)
			if m.Commit != "" {
				bw.linef("   COMMIT %q", m.Commit)
			}
			if m.Name != "" {
				bw.linef("   NAME %q", m.Name)
			}
		}
		for _, key := range sortedKeys(b.Options) {
			bw.linef("   OPTION %q %q", key, b.Options[key])
		}
		bw.line(")")
		bw.line("")
	}

	bw.line(sepLine)
	bw.line("# Firmware tests")
	bw.line(sepLine)
	bw.line("")

	for _, t := range p.Tests {
		bw.line("firmware_test(")
		bw.linef("   TEST_ID %q", t.ID)
		bw.linef("   TEST_NAME %q", t.Name)
		bw.linef("   TEST_DESCRIPTION %q", t.Description)
		bw.linef("   PYTHON_DRIVER %q", t.Driver)
		bw.linef("   FIRMWARE_BUILD_ID %q", t.BuildID)
		bw.line("   # Directories the inherited attributes were found in")
		bw.linef("   NAME_ORIGIN %q", t.Origins.Name)
		bw.linef("   DESCRIPTION_ORIGIN %q", t.Origins.Description)
		bw.linef("   PYTHON_DRIVER_ORIGIN %q", t.Origins.Driver)
		bw.linef("   FIRMWARE_BUILD_ORIGIN %q", t.Origins.Build)
		bw.line(")")
		bw.line("")
	}

	return bw.err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// errWriter collects the first write error so every line does not need an
// individual check.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) line(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s+"\n")
}

func (e *errWriter) linef(format string, args ...any) {
	if e.err != nil {
		return
	}
	s := fmt.Sprintf(format, args...)
	if strings.ContainsRune(s, '\n') {
		s = strings.ReplaceAll(s, "\n", " ")
	}
	_, e.err = io.WriteString(e.w, s+"\n")
}
