package exegesis

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAnchorsFound is returned when a block sequence holds no verse anchor.
	ErrNoAnchorsFound = errors.New("no verse anchors found")
	// ErrEmptyDocument is the assembler's failure for a document without anchors.
	// errors.Is matches both it and ErrNoAnchorsFound.
	ErrEmptyDocument = fmt.Errorf("empty document: %w", ErrNoAnchorsFound)
)

// Code classifies a non-fatal diagnostic.
type Code string

const (
	CodeUnrecognizedHeading Code = "unrecognized_heading_ignored"
	CodeOutOfOrderAnchor    Code = "out_of_order_anchor_label"
	CodeMalformedAnchor     Code = "malformed_anchor_label"
	CodeAnchorGap           Code = "anchor_label_gap"
	CodeDuplicateAnchor     Code = "duplicate_anchor_label"
	CodeRepeatedHeading     Code = "repeated_heading"
)

// Diagnostic is a non-fatal finding returned alongside a successful parse.
type Diagnostic struct {
	Code       Code   `json:"code"`
	BlockIndex int    `json:"block_index"`
	Label      string `json:"label,omitempty"`
	Message    string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at block %d: %s", d.Code, d.BlockIndex, d.Message)
}
