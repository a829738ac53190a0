package wikitext

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse_Documents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Document
	}{
		{
			name:  "plain text",
			input: "Habsburg Monarchy",
			want:  Document{Text("Habsburg Monarchy")},
		},
		{
			name:  "plain text with unicode",
			input: "Außenpolitik Österreichs",
			want:  Document{Text("Außenpolitik Österreichs")},
		},
		{
			name:  "simple link",
			input: "[[Austria-Hungary]]",
			want:  Document{Link{Target: "Austria-Hungary"}},
		},
		{
			name:  "piped link",
			input: "[[Kingdom of France|the French kingdom]]",
			want: Document{Link{
				Target: "Kingdom of France",
				Parts:  []Document{{Text("the French kingdom")}},
			}},
		},
		{
			name:  "link with multiple parts",
			input: "[[File:map.jpg|thumb|An [[old]] map]]",
			want: Document{Link{
				Target: "File:map.jpg",
				Parts: []Document{
					{Text("thumb")},
					{Text("An "), Link{Target: "old"}, Text(" map")},
				},
			}},
		},
		{
			name:  "adjacent links without text between",
			input: "[[a]][[b]]",
			want:  Document{Link{Target: "a"}, Link{Target: "b"}},
		},
		{
			name:  "template with positional and named parameters",
			input: "{{foo|bar|key=val}}",
			want: Document{Template{
				Title:      "foo",
				Positional: []Document{{Text("bar")}},
				Named:      map[string]Document{"key": {Text("val")}},
			}},
		},
		{
			name:  "nested template",
			input: "{{outer|{{inner}}}}",
			want: Document{Template{
				Title:      "outer",
				Positional: []Document{{Template{Title: "inner"}}},
			}},
		},
		{
			name:  "template title and keys are trimmed, values are not",
			input: "{{ infobox former country \n| year_start = 1804}}",
			want: Document{Template{
				Title: "infobox former country",
				Named: map[string]Document{"year_start": {Text(" 1804")}},
			}},
		},
		{
			name:  "repeated named key keeps the last value",
			input: "{{t|k=a|k=b}}",
			want: Document{Template{
				Title: "t",
				Named: map[string]Document{"k": {Text("b")}},
			}},
		},
		{
			name:  "empty positional parameter",
			input: "{{t|}}",
			want: Document{Template{
				Title:      "t",
				Positional: []Document{nil},
			}},
		},
		{
			name:  "named parameter holding a link",
			input: "{{t|image=[[File:a.png|80px]]}}",
			want: Document{Template{
				Title: "t",
				Named: map[string]Document{"image": {Link{
					Target: "File:a.png",
					Parts:  []Document{{Text("80px")}},
				}}},
			}},
		},
		{
			name:  "comment between text",
			input: "a<!-- note -->b",
			want:  Document{Text("a"), Comment(" note "), Text("b")},
		},
		{
			name:  "comment body keeps dashes",
			input: "<!-- a--b -->",
			want:  Document{Comment(" a--b ")},
		},
		{
			name:  "self closing tag",
			input: "<br/>",
			want:  Document{Tag{Name: "br", SelfClosing: true}},
		},
		{
			name:  "opening tag with attribute",
			input: `<ref name="loc">`,
			want:  Document{Tag{Name: "ref", Attrs: map[string]string{"name": "loc"}}},
		},
		{
			name:  "closing tag",
			input: "</small>",
			want:  Document{Tag{Name: "small", Closing: true}},
		},
		{
			name:  "tag inside text",
			input: "one<br />two",
			want:  Document{Text("one"), Tag{Name: "br", SelfClosing: true}, Text("two")},
		},
		{
			name:  "angle bracket that starts no tag stays text",
			input: "a < b",
			want:  Document{Text("a < b")},
		},
		{
			name:  "bare closing angle bracket stays text",
			input: "a > b",
			want:  Document{Text("a > b")},
		},
		{
			name:  "unterminated comment stays text",
			input: "a<!-- b",
			want:  Document{Text("a<!-- b")},
		},
		{
			name:  "single brace stays text",
			input: "a{b",
			want:  Document{Text("a{b")},
		},
		{
			name:  "single closing bracket stays text",
			input: "a]b",
			want:  Document{Text("a]b")},
		},
		{
			name:  "top level pipe stays text",
			input: "a|b",
			want:  Document{Text("a|b")},
		},
		{
			name:  "top level doubled closers stay text",
			input: "a}}b]]c",
			want:  Document{Text("a}}b]]c")},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int
	}{
		{
			name:       "unterminated template",
			input:      "{{foo|bar",
			wantOffset: 0,
		},
		{
			name:       "unterminated template after text",
			input:      "ab{{x",
			wantOffset: 2,
		},
		{
			name:       "unterminated link",
			input:      "[[a",
			wantOffset: 0,
		},
		{
			name:       "link closed with a single bracket",
			input:      "[[a]b]]",
			wantOffset: 3,
		},
		{
			name:       "template part ended by link closer",
			input:      "{{a|b]]c}}",
			wantOffset: 5,
		},
		{
			name:       "link part ended by template closer",
			input:      "[[a|b}}c]]",
			wantOffset: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse(%q) returned %T, want *ParseError", tt.input, err)
			}
			if parseErr.Offset != tt.wantOffset {
				t.Errorf("Parse(%q) error offset = %d, want %d", tt.input, parseErr.Offset, tt.wantOffset)
			}
		})
	}
}

func TestParse_DepthLimit(t *testing.T) {
	parser := NewParser(NewParserParams{MaxDepth: 2})

	if _, err := parser.Parse("{{a|{{b|x}}}}"); err != nil {
		t.Fatalf("nesting within the limit failed: %v", err)
	}

	_, err := parser.Parse("{{a|{{b|{{c|x}}}}}}")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError past the nesting limit, got %v", err)
	}
}

func TestParse_DefaultDepthLimit(t *testing.T) {
	deep := strings.Repeat("{{x|", 80) + "y" + strings.Repeat("}}", 80)
	_, err := Parse(deep)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError for 80 nested templates, got %v", err)
	}

	fine := strings.Repeat("{{x|", 10) + "y" + strings.Repeat("}}", 10)
	if _, err := Parse(fine); err != nil {
		t.Fatalf("10 nested templates failed: %v", err)
	}
}

func TestParse_TextCoalescing(t *testing.T) {
	// every fallback path lands in the neighbouring text node
	doc, err := Parse("a{b]c|d}}e")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := Document{Text("a{b]c|d}}e")}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Parse coalesced badly: %#v, want %#v", doc, want)
	}
}
