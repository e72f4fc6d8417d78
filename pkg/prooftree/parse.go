package prooftree

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// MaxDepth caps the accepted proof-tree depth. Realistic inclusion proofs are
// logarithmic in corpus size, so anything deeper is treated as malformed
// rather than risking unbounded tree growth from a crafted proof.
const MaxDepth = 64

// xmlNode mirrors the serialized proof format: nested elements carrying the
// committed hash in a "value" attribute, with children tagged left and right.
type xmlNode struct {
	XMLName  xml.Name
	Value    string    `xml:"value,attr"`
	Children []xmlNode `xml:",any"`
}

// Parse decodes a serialized proof tree into an immutable Node tree.
// It enforces structural invariants only: every node carries a value, has
// zero or exactly two children, children are labeled by the left/right roles,
// and the tree does not exceed MaxDepth. Hash values are kept verbatim;
// their derivation is the verifier's concern.
func Parse(src string) (*Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &MalformedProofError{Reason: "empty proof tree"}
	}

	var raw xmlNode
	if err := xml.Unmarshal([]byte(src), &raw); err != nil {
		return nil, &MalformedProofError{Reason: fmt.Sprintf("invalid proof encoding: %v", err)}
	}

	return build(&raw, 0)
}

func build(raw *xmlNode, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, &MalformedProofError{Reason: fmt.Sprintf("tree exceeds maximum depth of %d", MaxDepth)}
	}

	if raw.Value == "" {
		return nil, &MalformedProofError{Reason: fmt.Sprintf("node <%s> is missing a value attribute", raw.XMLName.Local)}
	}

	switch len(raw.Children) {
	case 0:
		return &Node{value: raw.Value}, nil
	case 2:
		// Children are identified by role, not position.
		var left, right *xmlNode
		for i := range raw.Children {
			switch raw.Children[i].XMLName.Local {
			case "left":
				left = &raw.Children[i]
			case "right":
				right = &raw.Children[i]
			}
		}
		if left == nil || right == nil {
			return nil, &MalformedProofError{Reason: fmt.Sprintf("node <%s> children must be labeled left and right", raw.XMLName.Local)}
		}

		leftNode, err := build(left, depth+1)
		if err != nil {
			return nil, err
		}
		rightNode, err := build(right, depth+1)
		if err != nil {
			return nil, err
		}
		return &Node{value: raw.Value, left: leftNode, right: rightNode}, nil
	default:
		return nil, &MalformedProofError{
			Reason: fmt.Sprintf("node <%s> has %d children, expected 0 or 2", raw.XMLName.Local, len(raw.Children)),
		}
	}
}
