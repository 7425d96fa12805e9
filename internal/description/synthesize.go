package description

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mtl-archives/photometa/internal/textnorm"
)

// Sentence templates used when a description has to be synthesized
const (
	GenericTitle     = "Photographie d'archive de Montréal."
	datePrefix       = "Capturée ou datée de "
	locationPrefix   = "Localisation: "
	cotePrefix       = "Cote archivistique "
	FillerSentence   = "Détails supplémentaires non disponibles; description générée automatiquement."
	portalExtraLimit = 48
)

var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}
	archivalCode    = regexp.MustCompile(`(?i)^VM\d+[,\-_]`)
)

// Context carries the structured fields a description can be built from.
type Context struct {
	Name              string
	Date              string
	Location          string
	Cote              string
	PortalDescription string
	ImageFilename     string
}

// HasInputs reports whether any structured synthesis input is present.
// A null-content portal description ("S/O") does not count.
func (c Context) HasInputs() bool {
	return c.Name != "" || c.Date != "" || c.Location != "" || c.Cote != "" || c.usablePortal()
}

func (c Context) usablePortal() bool {
	return c.PortalDescription != "" && !IsNullContent(c.PortalDescription)
}

// LooksLikeTitle reports whether name reads as a real title rather than
// a filename or an archival code such as "VM97,S3,D08,P298".
func LooksLikeTitle(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	if archivalCode.MatchString(name) {
		return false
	}
	rest := name
	if strings.HasPrefix(strings.ToUpper(rest), "VM") {
		rest = rest[2:]
	}
	letters := 0
	for _, r := range rest {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 3
}

// Synthesize composes a description from structured fields, one sentence per
// present fragment. Short results are padded with a filler sentence so the
// output is never shorter than TargetLength.
func Synthesize(ctx Context) string {
	fragments := make([]string, 0, 5)
	if LooksLikeTitle(ctx.Name) {
		fragments = append(fragments, sentence(ctx.Name))
	} else {
		fragments = append(fragments, GenericTitle)
	}
	if ctx.Date != "" {
		fragments = append(fragments, sentence(datePrefix+ctx.Date))
	}
	if ctx.Location != "" {
		fragments = append(fragments, sentence(locationPrefix+ctx.Location))
	}
	if ctx.Cote != "" {
		fragments = append(fragments, sentence(cotePrefix+ctx.Cote))
	}

	if textnorm.Len(strings.Join(fragments, " ")) < portalExtraLimit && ctx.usablePortal() {
		extra := sentence(ctx.PortalDescription)
		if !contains(fragments, extra) {
			fragments = append(fragments, extra)
		}
	}

	composed := strings.TrimSpace(strings.Join(fragments, " "))
	if textnorm.Len(composed) < TargetLength {
		composed += " " + FillerSentence
	}
	return composed
}

func sentence(s string) string {
	return strings.TrimRight(s, ".") + "."
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
