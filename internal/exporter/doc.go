// Package exporter writes tables to disk: delimited files in a chosen
// character encoding, and xlsx workbooks with one sheet per table.
//
// Every write replaces the whole destination file.
package exporter
