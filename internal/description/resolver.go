// Package description reconciles the scraped and portal descriptions of a photograph
// and synthesizes one from structured fields when neither is usable.
package description

import (
	"strings"

	"github.com/mtl-archives/photometa/internal/textnorm"
)

// Provenance tags
const (
	SourceOriginal       = "original"
	SourcePortal         = "portal"
	SourceMissing        = "missing"
	SourceSynthetic      = "synthetic"
	SourceExpanded       = "expanded-abbreviation"
	SourcePortalExpanded = "portal-expanded"

	SuffixSeries    = "+series-parsed"
	SuffixSynthetic = "+synthetic"
)

const (
	// MinContentLength is the shortest resolved text kept as a description
	MinContentLength = 10
	// TargetLength is the length below which a description is augmented
	TargetLength = 50
)

// Result is a resolved description with its provenance
type Result struct {
	Description  string
	Source       string
	Synthetic    bool
	SeriesParsed bool
}

// Resolver merges description sources under an abbreviation policy.
type Resolver struct {
	policy AbbreviationPolicy
}

// NewResolver creates a resolver
func NewResolver(policy AbbreviationPolicy) *Resolver {
	return &Resolver{policy: policy}
}

// Resolve picks the description for one record. The primary source wins over
// the secondary; series descriptions are narrowed to the record's image; empty
// or very short text is replaced by a synthesized description and text under
// TargetLength is extended with one. The description is empty only when the
// record has no source text and no structured inputs.
func (r *Resolver) Resolve(primary, secondary string, ctx Context) Result {
	text, source := r.merge(textnorm.Normalize(primary), textnorm.Normalize(secondary))
	result := Result{Description: text, Source: source}

	if text != "" {
		imageNum, hasNum := ImageNumber(ctx.ImageFilename)
		if parsed, ok := ParseSeries(text, imageNum, hasNum); ok {
			result.Description = parsed
			result.Source += SuffixSeries
			result.SeriesParsed = true
		}
	}

	length := textnorm.Len(result.Description)
	switch {
	case result.Description == "" && !ctx.HasInputs():
		result.Source = SourceMissing
	case length < MinContentLength:
		result.Description = Synthesize(ctx)
		result.Source = SourceSynthetic
		result.Synthetic = true
	case length < TargetLength:
		addition := Synthesize(ctx)
		if !strings.Contains(strings.ToLower(result.Description), strings.ToLower(addition)) {
			result.Description = strings.TrimRight(result.Description, ".") + ". " + addition
			result.Source += SuffixSynthetic
			result.Synthetic = true
		}
	}
	return result
}

// merge chooses between the normalized primary and secondary text
func (r *Resolver) merge(primary, secondary string) (string, string) {
	primary = StripBoilerplate(primary)
	if text, source, ok := r.pick(primary, SourceOriginal, SourceExpanded); ok {
		return text, source
	}
	if text, source, ok := r.pick(secondary, SourcePortal, SourcePortalExpanded); ok {
		return text, source
	}
	return "", SourceMissing
}

func (r *Resolver) pick(text, plainTag, expandedTag string) (string, string, bool) {
	if text == "" {
		return "", "", false
	}
	if !IsNullContent(text) {
		return text, plainTag, true
	}
	if r.policy == Expand {
		return NullContent[strings.ToLower(text)], expandedTag, true
	}
	return "", "", false
}
