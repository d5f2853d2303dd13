// Package domain names the columns, labels and file names of the roster,
// goals/results and shipping exports and of the top-performers workbook.
package domain
