package description

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mtl-archives/photometa/internal/textnorm"
)

// SeriesSummaryLimit caps the number of locations named in a series summary
const SeriesSummaryLimit = 5

var (
	seriesPattern = regexp.MustCompile(`(?is)^Le reportage photographique comprend les lieux et bâtiments suivants\s*:?\s*(.+)`)
	seriesEntry   = regexp.MustCompile(`(?i)([^(]+?)\s*\(images?\s*([\d\s,-]+)\)`)
	rangePattern  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	numberPattern = regexp.MustCompile(`\d+`)

	imageNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)image[_-](\d+)`),
		regexp.MustCompile(`(?i)_(\d+)\.(?:jpg|jpeg|png|tif|tiff)$`),
	}
)

// ImageNumber extracts the sequence number embedded in an image filename
// ("mtl_archives_image_12345.jpg" -> 12345). Filename conventions are tried in order.
func ImageNumber(filename string) (int, bool) {
	for _, p := range imageNumberPatterns {
		m := p.FindStringSubmatch(filename)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

type seriesLocation struct {
	name   string
	images string
}

// ParseSeries narrows a photo-series description ("Le reportage photographique comprend
// les lieux et bâtiments suivants : A (images 1-4) B (images 5-7)") to the location
// covering imageNum. Without an image number a summary of the first locations is returned
// and per-image precision is lost. ok is false when text is not a series description.
func ParseSeries(text string, imageNum int, hasImageNum bool) (string, bool) {
	m := seriesPattern.FindStringSubmatch(text)
	if m == nil {
		return text, false
	}
	content := m[1]
	locations := parseLocations(content)

	if !hasImageNum {
		if len(locations) == 0 {
			return strings.TrimSpace(textnorm.Truncate(content, 200)) + "...", true
		}
		names := make([]string, 0, SeriesSummaryLimit)
		for _, loc := range locations {
			if len(names) == SeriesSummaryLimit {
				break
			}
			names = append(names, loc.name)
		}
		return "Reportage photographique: " + strings.Join(names, "; ") + ".", true
	}

	for _, loc := range locations {
		if imagesContain(loc.images, imageNum) {
			return loc.name, true
		}
	}
	if len(locations) > 0 {
		return locations[0].name, true
	}
	return strings.TrimSpace(textnorm.Truncate(content, 150)) + "...", true
}

func parseLocations(content string) []seriesLocation {
	var locations []seriesLocation
	for _, entry := range seriesEntry.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(strings.TrimLeft(entry[1], " ,;:"))
		if name == "" {
			continue
		}
		locations = append(locations, seriesLocation{name: name, images: entry[2]})
	}
	return locations
}

// imagesContain reports whether an image reference ("5", "5-7", "5, 7, 9") covers n
func imagesContain(ref string, n int) bool {
	for _, num := range numberPattern.FindAllString(ref, -1) {
		if v, err := strconv.Atoi(num); err == nil && v == n {
			return true
		}
	}
	for _, r := range rangePattern.FindAllStringSubmatch(ref, -1) {
		start, err1 := strconv.Atoi(r[1])
		end, err2 := strconv.Atoi(r[2])
		if err1 == nil && err2 == nil && start <= n && n <= end {
			return true
		}
	}
	return false
}
