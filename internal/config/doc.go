// Package config defines the format-agnostic model of a node specification
// and the Loader interface implemented by the YAML and HCL front ends.
//
// The rest of the system only ever sees this model; nothing outside the
// loader packages depends on a concrete file format.
package config
