package doctree

import (
	"encoding/json"
	"fmt"
)

// Blocks is an ordered block sequence with a tagged JSON encoding.
type Blocks []Block

const (
	typeParagraph = "paragraph"
	typeTable     = "table"
)

type taggedParagraph struct {
	Type string `json:"type"`
	*Paragraph
}

type taggedTable struct {
	Type string `json:"type"`
	*Table
}

func (b Blocks) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(b))
	for i, blk := range b {
		switch v := blk.(type) {
		case *Paragraph:
			out = append(out, taggedParagraph{Type: typeParagraph, Paragraph: v})
		case *Table:
			out = append(out, taggedTable{Type: typeTable, Table: v})
		default:
			return nil, fmt.Errorf("marshal block %d: unknown block type %T", i, blk)
		}
	}
	return json.Marshal(out)
}

func (b *Blocks) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*b = nil
		return nil
	}
	out := make(Blocks, 0, len(raw))
	for i, msg := range raw {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &head); err != nil {
			return fmt.Errorf("unmarshal block %d: %w", i, err)
		}
		switch head.Type {
		case typeParagraph:
			var p Paragraph
			if err := json.Unmarshal(msg, &p); err != nil {
				return fmt.Errorf("unmarshal paragraph %d: %w", i, err)
			}
			out = append(out, &p)
		case typeTable:
			var t Table
			if err := json.Unmarshal(msg, &t); err != nil {
				return fmt.Errorf("unmarshal table %d: %w", i, err)
			}
			out = append(out, &t)
		default:
			return fmt.Errorf("unmarshal block %d: unknown type %q", i, head.Type)
		}
	}
	*b = out
	return nil
}

func (a Alignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Alignment) UnmarshalText(text []byte) error {
	*a = ParseAlignment(string(text))
	return nil
}
