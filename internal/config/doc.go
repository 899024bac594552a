// Package config provides configuration loading and path resolution for the
// forecasting pipeline.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then PRICECAST_* environment variables. The package also owns the Paths
// type, the single source of truth for file locations; every relative path
// is resolved against the executable directory so runs are reproducible from
// any working directory.
package config
