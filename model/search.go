package model

import "strings"

// SearchFilter narrows a vector search or document count.
// An empty filter matches every node.
type SearchFilter struct {
	NodeTypes []NodeType `json:"node_types,omitempty"`
	Domain    Domain     `json:"domain,omitempty"`
	WellID    string     `json:"well_id,omitempty"`  // canonical well id
	Mnemonic  string     `json:"mnemonic,omitempty"` // upper case, restricts log curves only
}

// IsEmpty returns true if the filter does not restrict anything
func (f *SearchFilter) IsEmpty() bool {
	return f == nil || (len(f.NodeTypes) == 0 && f.Domain == "" && f.WellID == "" && f.Mnemonic == "")
}

// Matches reports whether a node passes the filter
func (f *SearchFilter) Matches(node *Node) bool {
	if f.IsEmpty() {
		return true
	}
	if len(f.NodeTypes) > 0 {
		found := false
		for _, t := range f.NodeTypes {
			if node.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Domain != "" && node.Domain != f.Domain {
		return false
	}
	if f.WellID != "" {
		wellID, _ := node.String(AttrWellID)
		if wellID != f.WellID {
			return false
		}
	}
	if f.Mnemonic != "" && node.Type == NodeTypeLogCurve {
		mnemonic, _ := node.String(AttrMnemonic)
		if !strings.EqualFold(mnemonic, f.Mnemonic) {
			return false
		}
	}
	return true
}

// ToMap converts the filter into the generic map form used by external stores
func (f *SearchFilter) ToMap() map[string]any {
	if f.IsEmpty() {
		return nil
	}
	m := map[string]any{}
	if len(f.NodeTypes) > 0 {
		types := make([]string, len(f.NodeTypes))
		for i, t := range f.NodeTypes {
			types[i] = string(t)
		}
		m["node_types"] = types
	}
	if f.Domain != "" {
		m["domain"] = string(f.Domain)
	}
	if f.WellID != "" {
		m[AttrWellID] = f.WellID
	}
	if f.Mnemonic != "" {
		m[AttrMnemonic] = f.Mnemonic
	}
	return m
}

// SearchHit is a single result returned by a vector store
type SearchHit struct {
	ID         string   `json:"id"`
	Type       NodeType `json:"type"`
	Attributes Metadata `json:"attributes,omitempty"`
	Score      float64  `json:"score"`
}
