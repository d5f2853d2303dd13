// Package config loads and validates the configuration of the batch
// programs and resolves their directory layout.
//
// # Sources
//
// Configuration is layered, later sources winning:
//
//  1. Default values (Default)
//  2. A YAML file: the path given to Load, else loyalty.yaml or
//     configs/loyalty.yaml when present
//  3. Environment variables prefixed with LOYALTY_
//
// Environment variables follow the struct nesting:
//
//	LOYALTY_LOGGING_LEVEL=debug
//	LOYALTY_LOADER_ACCESS_POLICY=null-means-access
//	LOYALTY_PIPELINE_PROFILES=Minorista,Mayorista
//	LOYALTY_PERFORMERS_TOP_N=5
//
// # Validation
//
// Load validates every section with go-playground/validator and reports
// failures as CONFIG errors naming the YAML keys:
//
//	cfg, err := config.Load("")
//	if errors.Is(err, apperrors.ErrConfig) { ... }
//
// # Paths
//
// Relative directories resolve against the executable directory, never
// the working directory:
//
//	paths, err := cfg.ResolvePaths()
//	roster := paths.GetInputPath(cfg.Pipeline.RosterFile)
//	report := paths.GetReportPath(config.RosterOutputFile)
package config
