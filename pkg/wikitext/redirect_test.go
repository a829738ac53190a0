package wikitext

import "testing"

func TestRedirectTarget(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantTarget string
		wantOK     bool
	}{
		{
			name:       "redirect with space",
			input:      "#REDIRECT [[New Country]]",
			wantTarget: "New Country",
			wantOK:     true,
		},
		{
			name:       "redirect without whitespace",
			input:      "#REDIRECT[[Austria]]",
			wantTarget: "Austria",
			wantOK:     true,
		},
		{
			name:       "redirect with newline",
			input:      "#REDIRECT\n[[Austria]]",
			wantTarget: "Austria",
			wantOK:     true,
		},
		{
			name:       "trailing category link is ignored",
			input:      "#REDIRECT [[Austria]] [[Category:Former countries]]",
			wantTarget: "Austria",
			wantOK:     true,
		},
		{
			name:   "lowercase token does not match",
			input:  "#redirect [[Austria]]",
			wantOK: false,
		},
		{
			name:   "leading whitespace does not match",
			input:  " #REDIRECT [[Austria]]",
			wantOK: false,
		},
		{
			name:   "extra words before the link do not match",
			input:  "#REDIRECT to [[Austria]]",
			wantOK: false,
		},
		{
			name:   "plain article",
			input:  "The Habsburg Monarchy ruled [[Austria]].",
			wantOK: false,
		},
		{
			name:   "template first",
			input:  "{{t}} [[Austria]]",
			wantOK: false,
		},
		{
			name:   "token without link",
			input:  "#REDIRECT",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			target, ok := RedirectTarget(doc)
			if ok != tt.wantOK {
				t.Fatalf("RedirectTarget(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if target != tt.wantTarget {
				t.Errorf("RedirectTarget(%q) = %q, want %q", tt.input, target, tt.wantTarget)
			}
		})
	}
}
