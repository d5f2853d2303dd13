package config

import "loyaltycli/pkg/contracts"

// Application constants
const (
	AppName    = "loyaltycli"
	AppVersion = contracts.Version

	// Directory layout under the executable directory
	DefaultDataDir    = "data"
	DefaultInputDir   = "data/input"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Output files
	RosterOutputFile   = "RGU.csv"
	GoalsOutputFile    = "RMR.csv"
	ShippingOutputFile = "SL.csv"
	MetricsFileName    = "loyalty_batch.prom"

	// File permissions
	DirPermissions  = 0755
	FilePermissions = 0644
)
