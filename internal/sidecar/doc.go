// Package sidecar writes the JSON descriptor stored next to every
// downloaded edition.
//
// # Record Format
//
//	{
//	    "path": "pdfs/1797.pdf",
//	    "name": "1797",
//	    "date": "2022-01-04",
//	    "origin": "Irece-BA/DOM"
//	}
package sidecar
