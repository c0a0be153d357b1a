// Package export writes the trade output CSV files.
//
// All outputs share one header and row shape; which columns a writer fills
// depends on the search that produced the rows. Numeric fields carry two
// decimal places and every file ends with a UTC timestamp line.
package export
