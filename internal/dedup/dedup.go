// Package dedup groups resolved test targets by the canonical fingerprint
// of their build configuration, so that identical firmware builds are
// built once and shared. This grouping is the system's reason for
// existing: the number of build units always equals the number of distinct
// configurations, never more.
package dedup

import (
	"context"
	"sort"

	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/resolve"
)

// BuildUnit is one physical firmware build shared by every test target
// whose configuration carries the same fingerprint.
type BuildUnit struct {
	Fingerprint string
	Config      *resolve.BuildConfig
	// Members are the test targets owned by this unit, in tree order.
	Members []*resolve.Resolved
}

// Dedupe groups the resolved test targets into build units. The result is
// sorted by fingerprint so repeated runs over the same tree produce
// byte-identical plans. Every input entry lands in exactly one unit.
func Dedupe(ctx context.Context, resolved []*resolve.Resolved) []*BuildUnit {
	logger := ctxlog.FromContext(ctx)

	byFingerprint := make(map[string]*BuildUnit)
	for _, entry := range resolved {
		fp := Fingerprint(entry.Config)
		unit, ok := byFingerprint[fp]
		if !ok {
			unit = &BuildUnit{Fingerprint: fp, Config: entry.Config}
			byFingerprint[fp] = unit
		}
		unit.Members = append(unit.Members, entry)
	}

	units := make([]*BuildUnit, 0, len(byFingerprint))
	for _, unit := range byFingerprint {
		units = append(units, unit)
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].Fingerprint < units[j].Fingerprint
	})

	logger.Debug("Deduplication complete.",
		"test_targets", len(resolved), "build_units", len(units))
	return units
}
