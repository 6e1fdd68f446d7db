package exegesis

import "fmt"

// SubsectionKind is one of the five canonical subsections of a verse.
type SubsectionKind int

const (
	LinguisticMeaning SubsectionKind = iota + 1
	VariantReadings
	ExistingCommentary
	Comments
	Connections
)

// Kinds lists every SubsectionKind.
var Kinds = []SubsectionKind{
	LinguisticMeaning,
	VariantReadings,
	ExistingCommentary,
	Comments,
	Connections,
}

// Label returns the canonical heading text authors write for the kind.
func (k SubsectionKind) Label() string {
	switch k {
	case LinguisticMeaning:
		return "Linguistic Meaning"
	case VariantReadings:
		return "Variant Readings"
	case ExistingCommentary:
		return "Existing Commentary"
	case Comments:
		return "Comments/Reflections"
	case Connections:
		return "Connection with other ayat"
	}
	return ""
}

// String returns the kind's stable key, also used in JSON.
func (k SubsectionKind) String() string {
	switch k {
	case LinguisticMeaning:
		return "linguistic_meaning"
	case VariantReadings:
		return "variant_readings"
	case ExistingCommentary:
		return "existing_commentary"
	case Comments:
		return "comments"
	case Connections:
		return "connections"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindForLabel maps exact canonical heading text to its kind.
// Matching is case- and whitespace-sensitive.
func KindForLabel(label string) (SubsectionKind, bool) {
	switch label {
	case "Linguistic Meaning":
		return LinguisticMeaning, true
	case "Variant Readings":
		return VariantReadings, true
	case "Existing Commentary":
		return ExistingCommentary, true
	case "Comments/Reflections":
		return Comments, true
	case "Connection with other ayat":
		return Connections, true
	}
	return 0, false
}

// ParseKind maps a kind key (see String) back to its kind.
func ParseKind(key string) (SubsectionKind, error) {
	for _, k := range Kinds {
		if k.String() == key {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown subsection kind %q", key)
}

func (k SubsectionKind) MarshalText() ([]byte, error) {
	if k.Label() == "" {
		return nil, fmt.Errorf("marshal subsection kind: invalid value %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *SubsectionKind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
