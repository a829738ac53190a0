package pgx

import (
	"reflect"
	"testing"

	"github.com/chronomap/chronik/pkg/graph"
	"github.com/chronomap/chronik/pkg/infobox"
)

func intp(v int) *int {
	return &v
}

func TestNationRows(t *testing.T) {
	g := graph.NewGraph(nil)
	g.AddNation("Austria-Hungary", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austria-Hungary",
		StartYear:  intp(1867),
		EndYear:    intp(1918),
		Precursors: []string{"Kingdom of Hungary", "Austrian Empire"},
		Successors: []string{"Hungary", "Austria", "Hungary"},
	})
	g.AddNation("Kingdom of Bohemia", &infobox.Infobox{
		Kind:             infobox.KindSubdivision,
		Name:             "Kingdom of Bohemia",
		ParentCandidates: []string{"Holy Roman Empire", "Austria-Hungary"},
	})

	got := nationRows(g)
	want := []nationRow{
		{
			Title:         "Austria-Hungary",
			Name:          "Austria-Hungary",
			StartYear:     intp(1867),
			EndYear:       intp(1918),
			SourceArticle: "Austria-Hungary",
			Precursors:    []string{"Austrian Empire", "Kingdom of Hungary"},
			Successors:    []string{"Austria", "Hungary"},
		},
		{
			Title:            "Kingdom of Bohemia",
			Name:             "Kingdom of Bohemia",
			SourceArticle:    "Kingdom of Bohemia",
			Subdivision:      true,
			Precursors:       []string{},
			Successors:       []string{},
			ParentCandidates: []string{"Holy Roman Empire", "Austria-Hungary"},
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("nationRows() = %#v, want %#v", got, want)
	}
}

func TestNationRowsRoundTrip(t *testing.T) {
	original := graph.NewGraph(nil)
	original.AddNation("Austrian Empire", &infobox.Infobox{
		Kind:       infobox.KindCountry,
		Name:       "Austrian Empire",
		StartYear:  intp(1804),
		EndYear:    intp(1867),
		Precursors: []string{"Holy Roman Empire"},
		Successors: []string{"Austria-Hungary"},
	})
	original.AddNation("Roman Kingdom", &infobox.Infobox{
		Kind:      infobox.KindCountry,
		Name:      "Roman Kingdom",
		StartYear: intp(-753),
		EndYear:   intp(-509),
	})
	original.AddNation("Kingdom of Bohemia", &infobox.Infobox{
		Kind:             infobox.KindSubdivision,
		Name:             "Kingdom of Bohemia",
		Successors:       []string{"Czechoslovakia"},
		ParentCandidates: []string{"Austria-Hungary"},
	})

	restored := graph.NewGraph(nil)
	for _, row := range nationRows(original) {
		applyNationRow(restored, row)
	}

	if !reflect.DeepEqual(restored.Nations, original.Nations) {
		t.Errorf("nations after round trip = %#v, want %#v", restored.Nations, original.Nations)
	}
	if !reflect.DeepEqual(restored.Subdivisions, original.Subdivisions) {
		t.Errorf("subdivisions after round trip = %#v, want %#v", restored.Subdivisions, original.Subdivisions)
	}
}
