package fieldpath

import "testing"

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"name": "Pont Jacques-Cartier",
		"portal_record": map[string]any{
			"Titre": "Pont",
			"Date":  nil,
		},
		"flat": "value",
	}

	tests := []struct {
		name     string
		path     Path
		expected any
		ok       bool
	}{
		{"top level", P("name"), "Pont Jacques-Cartier", true},
		{"nested", P("portal_record", "Titre"), "Pont", true},
		{"null value", P("portal_record", "Date"), nil, false},
		{"missing key", P("portal_record", "Cote"), nil, false},
		{"through non-object", P("flat", "deeper"), nil, false},
		{"missing root", P("absent"), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := Lookup(doc, tt.path)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if value != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, value)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	doc := map[string]any{
		"portal_date": "1936",
		"attributes_map": map[string]any{
			"Date": "1948",
		},
	}

	value, ok := Resolve(doc, []Path{P("portal_record", "Date"), P("attributes_map", "Date"), P("portal_date")})
	if !ok || value != "1948" {
		t.Errorf("Expected first present candidate 1948, got %v (ok=%v)", value, ok)
	}

	if _, ok := Resolve(doc, []Path{P("nothing"), P("attributes_map", "Titre")}); ok {
		t.Error("Expected no candidate to resolve")
	}
}

func TestPathString(t *testing.T) {
	if got := P("portal_record", "Description").String(); got != "portal_record.Description" {
		t.Errorf("Expected portal_record.Description, got %s", got)
	}
}
