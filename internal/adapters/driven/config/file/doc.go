// Package file loads persistent user defaults from a TOML file.
//
// Defaults live in ~/.create-par2/config.toml and cover the knobs a user
// sets once and forgets: the redundancy budget, the volume name prefix,
// the medium capacity, the preferred generator. Command-line flags
// always win over file values.
package file
