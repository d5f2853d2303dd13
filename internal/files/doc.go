// Package files discovers the monthly exports a batch run reads.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.InputDir)
//	monthly, err := discovery.FindFilesByPattern("metas", "reporte_metas_*.csv")
package files
