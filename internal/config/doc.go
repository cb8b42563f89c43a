// Package config loads and validates stormdrain session configuration.
//
// Configuration comes from a TOML or YAML file, chosen by extension, with
// STORMDRAIN_ environment variables layered on top:
//
//	[logging]
//	level = "debug"
//
//	[[views]]
//	name = "xy"
//	x = "x"
//	y = "y"
//	aspectLocked = true
//	aspect = 1.0
//
//	[bounds]
//	x = [0, 10]
//
//	[[filter.transforms]]
//	from = "x"
//	to = "x_km"
//	scale = 0.001
//
// STORMDRAIN_LOGGING_LEVEL=warn overrides logging.level. The merged map is
// decoded with mapstructure onto Default() and then validated. A Watcher
// reloads the file when it changes.
package config
