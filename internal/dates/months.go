package dates

// FrenchMonths maps French month names and their usual abbreviations
// (accented and unaccented spellings) to the month number.
var FrenchMonths = map[string]int{
	"janvier": 1, "jan": 1, "janv": 1,
	"février": 2, "fevrier": 2, "févr": 2, "fevr": 2, "fév": 2, "fev": 2,
	"mars": 3, "mar": 3,
	"avril": 4, "avr": 4,
	"mai":  5,
	"juin": 6, "jun": 6,
	"juillet": 7, "juil": 7, "jul": 7,
	"août": 8, "aout": 8, "aoû": 8,
	"septembre": 9, "sept": 9, "sep": 9,
	"octobre": 10, "oct": 10,
	"novembre": 11, "nov": 11,
	"décembre": 12, "decembre": 12, "déc": 12, "dec": 12,
}

// DecadeKeywords introduce a decade expression ("Décennie 1930").
var DecadeKeywords = []string{"décennie", "decennie"}
