package export

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/chronomap/chronik/pkg/graph"
	"github.com/chronomap/chronik/pkg/infobox"
)

func intp(v int) *int {
	return &v
}

func habsburgGraph() *graph.Graph {
	g := graph.NewGraph(nil)
	g.AddNation("Austrian Empire", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austrian Empire",
		StartYear:  intp(1804),
		EndYear:    intp(1867),
		Successors: []string{"Austria-Hungary"},
	})
	g.AddNation("Austria-Hungary", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austria-Hungary",
		StartYear:  intp(1867),
		EndYear:    intp(1918),
		Precursors: []string{"Austrian Empire"},
		Successors: []string{"German-Austria", "Czechoslovakia"},
	})
	g.AddNation("Kingdom of Bohemia", &infobox.Infobox{
		Kind:             infobox.KindSubdivision,
		Name:             "Kingdom of Bohemia",
		ParentCandidates: []string{"Austria-Hungary"},
	})
	g.AddSynonym("German-Austria", "Republic of German-Austria")
	g.AddError("Czechoslovakia", &graph.StoredError{Kind: graph.KindHTTP, Message: "page does not exist"})
	return g
}

func TestJSON(t *testing.T) {
	raw, err := JSON(habsburgGraph())
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var got JSONGraph
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	want := JSONGraph{
		Nations: []JSONNation{
			{
				Title:         "Austria-Hungary",
				Name:          "Austria-Hungary",
				StartYear:     intp(1867),
				EndYear:       intp(1918),
				SourceArticle: "Austria-Hungary",
				Precursors:    []string{"Austrian Empire"},
				Successors:    []string{"Czechoslovakia", "Republic of German-Austria"},
			},
			{
				Title:         "Austrian Empire",
				Name:          "Austrian Empire",
				StartYear:     intp(1804),
				EndYear:       intp(1867),
				SourceArticle: "Austrian Empire",
				Precursors:    []string{},
				Successors:    []string{"Austria-Hungary"},
			},
			{
				Title:            "Kingdom of Bohemia",
				Name:             "Kingdom of Bohemia",
				SourceArticle:    "Kingdom of Bohemia",
				Subdivision:      true,
				Precursors:       []string{},
				Successors:       []string{},
				ParentCandidates: []string{"Austria-Hungary"},
			},
		},
		Synonyms: map[string]string{"German-Austria": "Republic of German-Austria"},
		Errors: []JSONError{
			{Title: "Czechoslovakia", Kind: "http", Message: "page does not exist"},
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("JSON() = %#v, want %#v", got, want)
	}
}

func TestJSON_Deterministic(t *testing.T) {
	first, err := JSON(habsburgGraph())
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	// Same graph assembled in a different order must serialize identically.
	g := graph.NewGraph(nil)
	g.AddError("Czechoslovakia", &graph.StoredError{Kind: graph.KindHTTP, Message: "page does not exist"})
	g.AddNation("Kingdom of Bohemia", &infobox.Infobox{
		Kind:             infobox.KindSubdivision,
		Name:             "Kingdom of Bohemia",
		ParentCandidates: []string{"Austria-Hungary"},
	})
	g.AddSynonym("German-Austria", "Republic of German-Austria")
	g.AddNation("Austria-Hungary", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austria-Hungary",
		StartYear:  intp(1867),
		EndYear:    intp(1918),
		Precursors: []string{"Austrian Empire"},
		Successors: []string{"Czechoslovakia", "German-Austria"},
	})
	g.AddNation("Austrian Empire", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austrian Empire",
		StartYear:  intp(1804),
		EndYear:    intp(1867),
		Successors: []string{"Austria-Hungary"},
	})

	second, err := JSON(g)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("insertion order leaked into the encoding:\n%s\n---\n%s", first, second)
	}
}

func TestDOT(t *testing.T) {
	g := graph.NewGraph(nil)
	g.AddNation("Austrian Empire", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austrian Empire",
		StartYear:  intp(1804),
		EndYear:    intp(1867),
		Successors: []string{"Austria-Hungary"},
	})
	g.AddNation("Austria-Hungary", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austria-Hungary",
		StartYear:  intp(1867),
		EndYear:    intp(1918),
		Precursors: []string{"Austrian Empire"},
		Successors: []string{"Hungarian Republic"},
	})
	g.AddNation("Kingdom of Bohemia", &infobox.Infobox{
		Kind:             infobox.KindSubdivision,
		Name:             "Kingdom of Bohemia",
		ParentCandidates: []string{"Austria-Hungary"},
	})

	want := `digraph nations {
	rankdir=LR;
	node [shape=box];

	"Austria-Hungary" [label="Austria-Hungary\n1867-1918"];
	"Austrian Empire" [label="Austrian Empire\n1804-1867"];
	"Kingdom of Bohemia" [label="Kingdom of Bohemia"];
	"Hungarian Republic" [shape=ellipse, style=dashed];

	"Austria-Hungary" -> "Hungarian Republic";
	"Austrian Empire" -> "Austria-Hungary";
	"Kingdom of Bohemia" -> "Austria-Hungary" [style=dashed];
}
`

	got := string(DOT(g))
	if got != want {
		t.Errorf("DOT() = %q, want %q", got, want)
	}
}

func TestDOT_ResolvesSynonyms(t *testing.T) {
	g := graph.NewGraph(nil)
	g.AddNation("Austrian Empire", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austrian Empire",
		Successors: []string{"Dual Monarchy"},
	})
	g.AddSynonym("Dual Monarchy", "Austria-Hungary")
	g.AddNation("Austria-Hungary", &infobox.Infobox{
		Kind: infobox.KindCountry,
		Name: "Austria-Hungary",
	})

	got := string(DOT(g))
	if !strings.Contains(got, `"Austrian Empire" -> "Austria-Hungary";`) {
		t.Errorf("edge was not resolved through the synonym map:\n%s", got)
	}
	if strings.Contains(got, "ellipse") {
		t.Errorf("a resolvable name must not become a phantom node:\n%s", got)
	}
}

func TestYearSpan(t *testing.T) {
	tests := []struct {
		name  string
		value graph.NationValue
		want  string
	}{
		{
			name:  "both years",
			value: graph.NationValue{StartYear: intp(1804), EndYear: intp(1867)},
			want:  "1804-1867",
		},
		{
			name:  "start only",
			value: graph.NationValue{StartYear: intp(962)},
			want:  "962-",
		},
		{
			name:  "end only",
			value: graph.NationValue{EndYear: intp(1918)},
			want:  "-1918",
		},
		{
			name:  "no years",
			value: graph.NationValue{},
			want:  "",
		},
		{
			name:  "bce years",
			value: graph.NationValue{StartYear: intp(-509), EndYear: intp(-27)},
			want:  "509 BC-27 BC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearSpan(tt.value); got != tt.want {
				t.Errorf("yearSpan() = %q, want %q", got, tt.want)
			}
		})
	}
}
