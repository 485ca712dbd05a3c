// Package config holds the conversion options. Defaults come first, an
// optional TOML file overlays them, CLI flags overlay both; the result is
// normalized and validated before a run starts.
package config
