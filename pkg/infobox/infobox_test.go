package infobox

import (
	"errors"
	"reflect"
	"testing"

	"github.com/chronomap/chronik/pkg/wikitext"
)

func intp(v int) *int {
	return &v
}

func mustParse(t *testing.T, src string) wikitext.Document {
	t.Helper()
	doc, err := wikitext.Parse(src)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return doc
}

func TestExtract_Country(t *testing.T) {
	page := `{{Infobox former country
|conventional_long_name = Austrian Empire
|year_start = 1804
|year_end   = 1867
|p1 = Habsburg Monarchy
|s1 = Austria-Hungary
}}
The '''Austrian Empire''' was a [[Central Europe]]an power.`

	got, err := Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	want := &Infobox{
		Kind:       KindCountry,
		Name:       "Austrian Empire",
		StartYear:  intp(1804),
		EndYear:    intp(1867),
		Precursors: []string{"Habsburg Monarchy"},
		Successors: []string{"Austria-Hungary"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %#v, want %#v", got, want)
	}
}

func TestExtract_Subdivision(t *testing.T) {
	page := `{{Infobox former subdivision
|conventional_long_name = Kingdom of Bohemia
|nation = part of the [[Habsburg Monarchy]], later [[Austria-Hungary]]
|year_start = 1198
|year_end = 1918
|p1 = Duchy of Bohemia
|s1 = Czechoslovakia
}}`

	got, err := Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	want := &Infobox{
		Kind:             KindSubdivision,
		Name:             "Kingdom of Bohemia",
		StartYear:        intp(1198),
		EndYear:          intp(1918),
		Precursors:       []string{"Duchy of Bohemia"},
		Successors:       []string{"Czechoslovakia"},
		ParentCandidates: []string{"Habsburg Monarchy", "Austria-Hungary"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %#v, want %#v", got, want)
	}
}

func TestExtract_InfoboxSelection(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		wantErr error
	}{
		{
			name:    "no infobox",
			page:    "Just an article about [[history]].",
			wantErr: ErrMissingInfobox,
		},
		{
			name: "both infobox kinds",
			page: `{{Infobox former country|conventional_long_name = A}}
{{Infobox former subdivision|conventional_long_name = B}}`,
			wantErr: ErrDoubleInfobox,
		},
		{
			name:    "infobox nested in another template is not found",
			page:    `{{onlyinclude|{{Infobox former country|conventional_long_name = A}}}}`,
			wantErr: ErrMissingInfobox,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(mustParse(t, tt.page))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Extract() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtract_TitleMatchingIsCaseInsensitive(t *testing.T) {
	page := `{{INFOBOX FORMER COUNTRY|conventional_long_name = Francia}}`
	got, err := Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got.Name != "Francia" {
		t.Errorf("Name = %q, want %q", got.Name, "Francia")
	}
}

func TestExtract_FirstInfoboxOfAKindWins(t *testing.T) {
	page := `{{Infobox former country|conventional_long_name = First}}
{{Infobox former country|conventional_long_name = Second}}`
	got, err := Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got.Name != "First" {
		t.Errorf("Name = %q, want %q", got.Name, "First")
	}
}

func TestExtract_Name(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		want     string
		wantMiss bool
	}{
		{
			name: "name from link when not auto-linked",
			page: `{{Infobox former country|conventional_long_name = [[Austria]]}}`,
			want: "Austria",
		},
		{
			name:     "name absent",
			page:     `{{Infobox former country|year_start = 1804}}`,
			wantMiss: true,
		},
		{
			name:     "name blank",
			page:     `{{Infobox former country|conventional_long_name =   }}`,
			wantMiss: true,
		},
		{
			name:     "name wrapped in a template",
			page:     `{{Infobox former country|conventional_long_name = {{nowrap|Austria}}}}`,
			wantMiss: true,
		},
		{
			name:     "name with trailing footnote marker",
			page:     `{{Infobox former country|conventional_long_name = Austria{{!}}}}`,
			wantMiss: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(mustParse(t, tt.page))
			if tt.wantMiss {
				var missErr *MissingFieldError
				if !errors.As(err, &missErr) {
					t.Fatalf("Extract() error = %v, want *MissingFieldError", err)
				}
				if missErr.Field != "conventional_long_name" {
					t.Errorf("missing field = %q, want conventional_long_name", missErr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("Name = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestExtract_Years(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		wantStart *int
		wantEnd   *int
		wantField string
	}{
		{
			name:      "plain years",
			page:      `{{Infobox former country|conventional_long_name = A|year_start = 962|year_end = 1806}}`,
			wantStart: intp(962),
			wantEnd:   intp(1806),
		},
		{
			name:      "bc year is negative",
			page:      `{{Infobox former country|conventional_long_name = A|year_start = 44 BC}}`,
			wantStart: intp(-44),
		},
		{
			name:      "bc suffix without whitespace",
			page:      `{{Infobox former country|conventional_long_name = A|year_start = 44BC}}`,
			wantStart: intp(-44),
		},
		{
			name: "years absent",
			page: `{{Infobox former country|conventional_long_name = A}}`,
		},
		{
			name: "blank year counts as absent",
			page: `{{Infobox former country|conventional_long_name = A|year_start = }}`,
		},
		{
			name:      "year from a linked value",
			page:      `{{Infobox former country|conventional_long_name = A|year_start = [[962]]}}`,
			wantStart: intp(962),
		},
		{
			name:      "circa prefix fails",
			page:      `{{Infobox former country|conventional_long_name = A|year_start = c. 1000}}`,
			wantField: "year_start",
		},
		{
			name:      "trailing garbage fails",
			page:      `{{Infobox former country|conventional_long_name = A|year_end = 1806?}}`,
			wantField: "year_end",
		},
		{
			name:      "lowercase bc fails",
			page:      `{{Infobox former country|conventional_long_name = A|year_start = 44 bc}}`,
			wantField: "year_start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(mustParse(t, tt.page))
			if tt.wantField != "" {
				var interpretErr *InterpretError
				if !errors.As(err, &interpretErr) {
					t.Fatalf("Extract() error = %v, want *InterpretError", err)
				}
				if interpretErr.Field != tt.wantField {
					t.Errorf("failed field = %q, want %q", interpretErr.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}
			if !reflect.DeepEqual(got.StartYear, tt.wantStart) {
				t.Errorf("StartYear = %v, want %v", got.StartYear, tt.wantStart)
			}
			if !reflect.DeepEqual(got.EndYear, tt.wantEnd) {
				t.Errorf("EndYear = %v, want %v", got.EndYear, tt.wantEnd)
			}
		})
	}
}

func TestExtract_Connections(t *testing.T) {
	page := `{{Infobox former country
|conventional_long_name = Austria-Hungary
|p1 = Austrian Empire
|p3 = Kingdom of Hungary
|s1 =
|s2 = First Austrian Republic
|s15 = Kingdom of Yugoslavia
|p16 = ignored
}}`

	got, err := Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	wantPrecursors := []string{"Austrian Empire", "Kingdom of Hungary"}
	if !reflect.DeepEqual(got.Precursors, wantPrecursors) {
		t.Errorf("Precursors = %#v, want %#v", got.Precursors, wantPrecursors)
	}
	wantSuccessors := []string{"First Austrian Republic", "Kingdom of Yugoslavia"}
	if !reflect.DeepEqual(got.Successors, wantSuccessors) {
		t.Errorf("Successors = %#v, want %#v", got.Successors, wantSuccessors)
	}
}

func TestExtract_ConnectionWithExplicitLinkAbortsExtraction(t *testing.T) {
	page := `{{Infobox former country
|conventional_long_name = Austrian Empire
|p1 = [[Habsburg Monarchy]]
|s1 = Austria-Hungary
}}`

	got, err := Extract(mustParse(t, page))
	var interpretErr *InterpretError
	if !errors.As(err, &interpretErr) {
		t.Fatalf("Extract() error = %v, want *InterpretError", err)
	}
	if interpretErr.Field != "p1" {
		t.Errorf("failed field = %q, want p1", interpretErr.Field)
	}
	if got != nil {
		t.Errorf("Extract() = %#v, want nil on aborted extraction", got)
	}
}

func TestExtract_ConnectionShapes(t *testing.T) {
	page := `{{Infobox former country
|conventional_long_name = Austrian Empire
|p1 = <!-- annexed 1804 -->Habsburg Monarchy<br/>
|s1 = Austria-Hungary{{!}}
|s2 = <small>Lombardy-Venetia</small>
}}`

	got, err := Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !reflect.DeepEqual(got.Precursors, []string{"Habsburg Monarchy"}) {
		t.Errorf("Precursors = %#v, want comment and br stripped", got.Precursors)
	}
	wantSuccessors := []string{"Austria-Hungary", "Lombardy-Venetia"}
	if !reflect.DeepEqual(got.Successors, wantSuccessors) {
		t.Errorf("Successors = %#v, want %#v", got.Successors, wantSuccessors)
	}
}

func TestExtract_NationParameterIsScannedUnfiltered(t *testing.T) {
	page := `{{Infobox former subdivision
|conventional_long_name = Galicia
|nation = <!-- see talk -->crown land of [[Austrian Empire|Austria]] within [[Cisleithania]]
}}`

	got, err := Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	want := []string{"Austrian Empire", "Cisleithania"}
	if !reflect.DeepEqual(got.ParentCandidates, want) {
		t.Errorf("ParentCandidates = %#v, want %#v", got.ParentCandidates, want)
	}
}

func TestExtract_CountryHasNoParentCandidates(t *testing.T) {
	page := `{{Infobox former country
|conventional_long_name = Austrian Empire
|nation = [[Habsburg Monarchy]]
}}`

	got, err := Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got.ParentCandidates != nil {
		t.Errorf("ParentCandidates = %#v, want nil for a country", got.ParentCandidates)
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{input: "1804", want: 1804, wantOK: true},
		{input: "0", want: 0, wantOK: true},
		{input: "44 BC", want: -44, wantOK: true},
		{input: "44BC", want: -44, wantOK: true},
		{input: "44\tBC", want: -44, wantOK: true},
		{input: "", wantOK: false},
		{input: "BC", wantOK: false},
		{input: "44 bc", wantOK: false},
		{input: "44 BCE", wantOK: false},
		{input: "c. 44", wantOK: false},
		{input: "18o4", wantOK: false},
		{input: "1804 1867", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseYear(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseYear(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseYear(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
