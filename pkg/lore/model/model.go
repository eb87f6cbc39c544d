package model

import (
	"encoding/json"
	"fmt"

	"github.com/cognicore/loredb/pkg/lore/internalerr"
)

// TokenKind distinguishes the two token variants.
type TokenKind string

const (
	KindText TokenKind = "text"
	KindName TokenKind = "name"
)

// NameCategory classifies a recognized name token.
type NameCategory string

const (
	Person       NameCategory = "person"
	Organization NameCategory = "organization"
	Location     NameCategory = "location"
)

// NoPartOfSpeech is the sentinel used when the analysis pipeline could not
// tag a text token.
const NoPartOfSpeech = "no-part-of-speech"

// Token is one analyzed text fragment. It is an immutable value and is
// comparable, so it can serve as a map key.
type Token struct {
	Kind         TokenKind
	Content      string
	PartOfSpeech string       // text tokens only; empty means untagged
	Category     NameCategory // name tokens only
}

// Text creates a text token. An empty partOfSpeech means the tagger had no
// opinion.
func Text(content, partOfSpeech string) Token {
	return Token{Kind: KindText, Content: content, PartOfSpeech: partOfSpeech}
}

// Name creates a name token with the given category.
func Name(content string, category NameCategory) Token {
	return Token{Kind: KindName, Content: content, Category: category}
}

// Validate checks the token's shape.
func (t Token) Validate() error {
	if t.Content == "" {
		return fmt.Errorf("%w: empty token content", internalerr.ErrInvalidInput)
	}
	switch t.Kind {
	case KindText:
		if t.Category != "" {
			return fmt.Errorf("%w: text token with name category %q", internalerr.ErrInvalidInput, t.Category)
		}
	case KindName:
		switch t.Category {
		case Person, Organization, Location:
		default:
			return fmt.Errorf("%w: unknown name category %q", internalerr.ErrInvalidInput, t.Category)
		}
		if t.PartOfSpeech != "" {
			return fmt.Errorf("%w: name token with part of speech %q", internalerr.ErrInvalidInput, t.PartOfSpeech)
		}
	default:
		return fmt.Errorf("%w: unknown token kind %q", internalerr.ErrInvalidInput, t.Kind)
	}
	return nil
}

// tokenJSON is the wire shape of a token: exactly one of Text or Name is
// present.
type tokenJSON struct {
	Text         *string       `json:"text,omitempty"`
	PartOfSpeech string        `json:"partOfSpeech,omitempty"`
	Name         *string       `json:"name,omitempty"`
	Category     *NameCategory `json:"category,omitempty"`
}

// MarshalJSON encodes the token per variant: {"text":..,"partOfSpeech":..}
// or {"name":..,"category":..}.
func (t Token) MarshalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch t.Kind {
	case KindName:
		cat := t.Category
		return json.Marshal(tokenJSON{Name: &t.Content, Category: &cat})
	default:
		return json.Marshal(tokenJSON{Text: &t.Content, PartOfSpeech: t.PartOfSpeech})
	}
}

// UnmarshalJSON decodes either token variant and rejects anything else.
func (t *Token) UnmarshalJSON(data []byte) error {
	var w tokenJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: token: %v", internalerr.ErrCodec, err)
	}
	switch {
	case w.Text != nil && w.Name == nil && w.Category == nil:
		*t = Text(*w.Text, w.PartOfSpeech)
	case w.Name != nil && w.Category != nil && w.Text == nil && w.PartOfSpeech == "":
		*t = Name(*w.Name, *w.Category)
	default:
		return fmt.Errorf("%w: token is neither a text nor a name variant", internalerr.ErrCodec)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: token: %v", internalerr.ErrCodec, err)
	}
	return nil
}

// Sentence is a non-empty ordered sequence of tokens.
type Sentence []Token

// Paragraph is a non-empty ordered sequence of sentences.
type Paragraph []Sentence

// Lore is one analyzed source document: a non-empty ordered sequence of
// paragraphs.
type Lore struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Validate enforces non-emptiness at every level and validates every token.
func (s Sentence) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty sentence", internalerr.ErrInvalidInput)
	}
	for _, t := range s {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate enforces non-emptiness at every level.
func (p Paragraph) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty paragraph", internalerr.ErrInvalidInput)
	}
	for _, s := range p {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate enforces non-emptiness at every level.
func (l *Lore) Validate() error {
	if l == nil || len(l.Paragraphs) == 0 {
		return fmt.Errorf("%w: empty document", internalerr.ErrInvalidInput)
	}
	for _, p := range l.Paragraphs {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Sentences returns every sentence of the document in reading order.
func (l *Lore) Sentences() []Sentence {
	if l == nil {
		return nil
	}
	var out []Sentence
	for _, p := range l.Paragraphs {
		out = append(out, p...)
	}
	return out
}

// Equal reports deep value equality of two documents. Two nils are equal.
func (l *Lore) Equal(other *Lore) bool {
	if l == nil || other == nil {
		return l == other
	}
	if len(l.Paragraphs) != len(other.Paragraphs) {
		return false
	}
	for i, p := range l.Paragraphs {
		q := other.Paragraphs[i]
		if len(p) != len(q) {
			return false
		}
		for j, s := range p {
			u := q[j]
			if len(s) != len(u) {
				return false
			}
			for k, tok := range s {
				if tok != u[k] {
					return false
				}
			}
		}
	}
	return true
}
