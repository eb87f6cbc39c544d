package model

import (
	"encoding/json"
	"testing"
)

func TestTokenValidate(t *testing.T) {
	cases := []struct {
		name  string
		token Token
		ok    bool
	}{
		{"text with pos", Text("hello", "noun"), true},
		{"text without pos", Text("hello", ""), true},
		{"person name", Name("Alice", Person), true},
		{"organization name", Name("ACME", Organization), true},
		{"location name", Name("Berlin", Location), true},
		{"empty content", Text("", "noun"), false},
		{"unknown category", Name("x", "planet"), false},
		{"unknown kind", Token{Kind: "verb", Content: "x"}, false},
		{"text with category", Token{Kind: KindText, Content: "x", Category: Person}, false},
		{"name with pos", Token{Kind: KindName, Content: "x", Category: Person, PartOfSpeech: "noun"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.token.Validate()
			if tc.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tc.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestTokenJSONRoundTrip(t *testing.T) {
	for _, tok := range []Token{
		Text("hello", "noun"),
		Text("hello", ""),
		Name("Alice", Person),
		Name("ACME Corp", Organization),
	} {
		data, err := json.Marshal(tok)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tok, err)
		}
		var got Token
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if got != tok {
			t.Errorf("round trip %v -> %s -> %v", tok, data, got)
		}
	}
}

func TestTokenJSONRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"text":"a","name":"b","category":"person"}`,
		`{"name":"b"}`,
		`{"category":"person"}`,
		`{"name":"b","category":"planet"}`,
		`{"name":"b","category":"person","partOfSpeech":"noun"}`,
		`{"text":""}`,
		`42`,
	} {
		var tok Token
		if err := json.Unmarshal([]byte(raw), &tok); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", raw)
		}
	}
}

func TestLoreValidate(t *testing.T) {
	valid := &Lore{Paragraphs: []Paragraph{{Sentence{Text("a", "")}}}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid document: %v", err)
	}

	var nilDoc *Lore
	if err := nilDoc.Validate(); err == nil {
		t.Error("nil document must not validate")
	}
	if err := (&Lore{}).Validate(); err == nil {
		t.Error("empty document must not validate")
	}
	if err := (&Lore{Paragraphs: []Paragraph{{}}}).Validate(); err == nil {
		t.Error("empty paragraph must not validate")
	}
	if err := (&Lore{Paragraphs: []Paragraph{{Sentence{}}}}).Validate(); err == nil {
		t.Error("empty sentence must not validate")
	}
}

func TestLoreSentences(t *testing.T) {
	doc := &Lore{Paragraphs: []Paragraph{
		{Sentence{Text("a", "")}, Sentence{Text("b", "")}},
		{Sentence{Text("c", "")}},
	}}
	got := doc.Sentences()
	if len(got) != 3 {
		t.Fatalf("Sentences() returned %d, want 3", len(got))
	}
	if got[0][0].Content != "a" || got[1][0].Content != "b" || got[2][0].Content != "c" {
		t.Errorf("Sentences() out of reading order: %v", got)
	}
}

func TestLoreEqual(t *testing.T) {
	a := &Lore{Paragraphs: []Paragraph{{Sentence{Text("a", "noun"), Name("Bob", Person)}}}}
	b := &Lore{Paragraphs: []Paragraph{{Sentence{Text("a", "noun"), Name("Bob", Person)}}}}
	c := &Lore{Paragraphs: []Paragraph{{Sentence{Text("a", "verb"), Name("Bob", Person)}}}}

	if !a.Equal(b) {
		t.Error("structurally identical documents must be equal")
	}
	if a.Equal(c) {
		t.Error("documents differing in part of speech must not be equal")
	}
	if !(*Lore)(nil).Equal(nil) {
		t.Error("two nil documents are equal")
	}
	if a.Equal(nil) || (*Lore)(nil).Equal(a) {
		t.Error("nil and non-nil documents are not equal")
	}
}
