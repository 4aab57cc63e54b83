// Package store opens the gocloud bucket that holds downloaded PDFs and
// their JSON sidecars.
//
// # Storage Layout
//
//	{root}/pdfs/1797.pdf
//	{root}/out/1797.json
package store
