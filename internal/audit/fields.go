package audit

import (
	"github.com/mtl-archives/photometa/internal/fieldpath"
)

// Field is a logical field resolved through candidate paths, current names
// first and legacy names after.
type Field struct {
	Name  string
	Paths []fieldpath.Path
}

var p = fieldpath.P

// DefaultFields lists the audited fields in report order
var DefaultFields = []Field{
	{"name", []fieldpath.Path{p("name")}},
	{"description", []fieldpath.Path{p("description")}},
	{"portal_description", []fieldpath.Path{p("portalDescription"), p("portal_description"), p("portal_record", "Description")}},
	{"portal_title", []fieldpath.Path{p("portalTitle"), p("portal_title"), p("portal_record", "Titre")}},
	{"portal_date", []fieldpath.Path{p("portalDate"), p("portal_date"), p("portal_record", "Date")}},
	{"portal_cote", []fieldpath.Path{p("portalCote"), p("portal_cote"), p("portal_record", "Cote")}},
	{"credits", []fieldpath.Path{p("credits"), p("portal_record", "Mention de crédits")}},
	{"cote", []fieldpath.Path{p("cote"), p("attributes_map", "Cote")}},
}

var filenamePaths = []fieldpath.Path{p("metadata_filename"), p("metadataFilename")}

func findField(fields []Field, name string) Field {
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	return Field{Name: name, Paths: []fieldpath.Path{p(name)}}
}
