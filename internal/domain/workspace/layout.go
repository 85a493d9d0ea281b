package workspace

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// NodeType discriminates layout tree nodes on the wire.
type NodeType string

const (
	NodePanel NodeType = "panel"
	NodeSplit NodeType = "split"
)

// Direction is the axis a split divides along.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// LayoutNode is one node of a feature's split tree. A panel node is a leaf
// referencing a panel id; a split node owns exactly two subtrees.
type LayoutNode struct {
	Type      NodeType
	PanelID   string
	Direction Direction
	First     *LayoutNode
	Second    *LayoutNode
}

type panelNodeJSON struct {
	Type    NodeType `json:"type"`
	PanelID string   `json:"panelId"`
}

type splitNodeJSON struct {
	Type      NodeType    `json:"type"`
	Direction Direction   `json:"direction"`
	First     *LayoutNode `json:"first"`
	Second    *LayoutNode `json:"second"`
}

type layoutNodeJSON struct {
	Type      NodeType    `json:"type"`
	PanelID   *string     `json:"panelId"`
	Direction Direction   `json:"direction"`
	First     *LayoutNode `json:"first"`
	Second    *LayoutNode `json:"second"`
}

// NewPanelNode creates a leaf.
func NewPanelNode(panelID string) *LayoutNode {
	return &LayoutNode{Type: NodePanel, PanelID: panelID}
}

// NewSplitNode creates an internal node owning first and second.
func NewSplitNode(dir Direction, first, second *LayoutNode) *LayoutNode {
	return &LayoutNode{Type: NodeSplit, Direction: dir, First: first, Second: second}
}

// MarshalJSON writes the tagged form used by the UI.
func (n LayoutNode) MarshalJSON() ([]byte, error) {
	switch n.Type {
	case NodePanel:
		return sonic.Marshal(panelNodeJSON{Type: NodePanel, PanelID: n.PanelID})
	case NodeSplit:
		return sonic.Marshal(splitNodeJSON{
			Type:      NodeSplit,
			Direction: n.Direction,
			First:     n.First,
			Second:    n.Second,
		})
	default:
		return nil, fmt.Errorf("%w: unknown layout node type %q", ErrInvalid, n.Type)
	}
}

// UnmarshalJSON reads either node shape, recursing into split children.
func (n *LayoutNode) UnmarshalJSON(b []byte) error {
	var raw layoutNodeJSON
	if err := sonic.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case NodePanel:
		if raw.PanelID == nil {
			return fmt.Errorf("%w: panel node without panelId", ErrInvalid)
		}
		*n = LayoutNode{Type: NodePanel, PanelID: *raw.PanelID}
	case NodeSplit:
		if raw.First == nil || raw.Second == nil {
			return fmt.Errorf("%w: split node needs two children", ErrInvalid)
		}
		*n = LayoutNode{
			Type:      NodeSplit,
			Direction: raw.Direction,
			First:     raw.First,
			Second:    raw.Second,
		}
	default:
		return fmt.Errorf("%w: unknown layout node type %q", ErrInvalid, raw.Type)
	}
	return nil
}

// PanelIDs returns the leaf panel ids from left to right.
func (n *LayoutNode) PanelIDs() []string {
	var ids []string
	n.walk(func(leaf *LayoutNode) {
		ids = append(ids, leaf.PanelID)
	})
	return ids
}

// Contains reports whether panelID appears as a leaf.
func (n *LayoutNode) Contains(panelID string) bool {
	found := false
	n.walk(func(leaf *LayoutNode) {
		if leaf.PanelID == panelID {
			found = true
		}
	})
	return found
}

func (n *LayoutNode) walk(visit func(leaf *LayoutNode)) {
	if n == nil {
		return
	}
	if n.Type == NodePanel {
		visit(n)
		return
	}
	n.First.walk(visit)
	n.Second.walk(visit)
}

// Validate checks the structural rules of the tree: leaves have a panel id,
// splits have a known direction and two children, and no panel id repeats.
func (n *LayoutNode) Validate() error {
	return n.validate(make(map[string]struct{}), true)
}

// validateShape is Validate without the direction check. Documents written
// by older clients may carry directions this package does not know.
func (n *LayoutNode) validateShape() error {
	return n.validate(make(map[string]struct{}), false)
}

func (n *LayoutNode) validate(seen map[string]struct{}, strict bool) error {
	if n == nil {
		return fmt.Errorf("%w: missing layout node", ErrInvalid)
	}

	switch n.Type {
	case NodePanel:
		if n.PanelID == "" {
			return fmt.Errorf("%w: panel node without panel id", ErrInvalid)
		}
		if _, dup := seen[n.PanelID]; dup {
			return fmt.Errorf("%w: panel '%s' appears twice in layout", ErrInvalid, n.PanelID)
		}
		seen[n.PanelID] = struct{}{}
		return nil
	case NodeSplit:
		if strict && n.Direction != Horizontal && n.Direction != Vertical {
			return fmt.Errorf("%w: split direction %q", ErrInvalid, n.Direction)
		}
		if err := n.First.validate(seen, strict); err != nil {
			return err
		}
		return n.Second.validate(seen, strict)
	default:
		return fmt.Errorf("%w: unknown layout node type %q", ErrInvalid, n.Type)
	}
}

// Clone deep-copies the tree.
func (n *LayoutNode) Clone() *LayoutNode {
	if n == nil {
		return nil
	}
	c := *n
	c.First = n.First.Clone()
	c.Second = n.Second.Clone()
	return &c
}
