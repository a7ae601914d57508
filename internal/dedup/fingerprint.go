package dedup

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/firmware-grid/fwplan/internal/config"
	"github.com/firmware-grid/fwplan/internal/resolve"
)

// Fingerprint computes the canonical, content-derived identity of a build
// configuration as a hex-encoded sha256 digest. The digest is independent
// of declaration order: module digests and option keys are sorted before
// they are combined, so two configurations merged from differently-ordered
// overlay chains collide exactly when they are equal as mappings.
func Fingerprint(cfg *resolve.BuildConfig) string {
	moduleDigests := make([]string, 0, len(cfg.Modules))
	for _, m := range cfg.Modules {
		moduleDigests = append(moduleDigests, moduleDigest(m))
	}
	sort.Strings(moduleDigests)

	optionKeys := make([]string, 0, len(cfg.Options))
	for key := range cfg.Options {
		optionKeys = append(optionKeys, key)
	}
	sort.Strings(optionKeys)

	h := sha256.New()
	writeField(h, "sketch", cfg.Sketch)
	for _, digest := range moduleDigests {
		writeField(h, "module", digest)
	}
	for _, key := range optionKeys {
		writeField(h, "option:"+key, cfg.Options[key])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// moduleDigest hashes one module's identifying fields.
func moduleDigest(m config.ModuleSpec) string {
	h := sha256.New()
	writeField(h, "url", m.URL)
	writeField(h, "commit", m.Commit)
	writeField(h, "name", m.Name)
	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes a length-prefixed key/value record to the hash. Each
// string is preceded by its byte length, so no byte inside a key or value
// can shift content across a field boundary; two field sequences produce
// the same stream only when they are equal field for field.
func writeField(h hash.Hash, key, value string) {
	writeString(h, key)
	writeString(h, value)
}

func writeString(h hash.Hash, s string) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(s)))
	h.Write(length[:])
	h.Write([]byte(s))
}
