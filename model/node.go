package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NodeType represents the kind of entity a node stands for
type NodeType string

const (
	NodeTypeWellDocument     NodeType = "well_document"
	NodeTypeLogCurve         NodeType = "log_curve"
	NodeTypeEnergyRecord     NodeType = "energy_record"
	NodeTypeWaterSite        NodeType = "water_site"
	NodeTypeWaterMeasurement NodeType = "water_measurement"
)

// AllNodeTypes returns every known node type in declaration order
func AllNodeTypes() []NodeType {
	return []NodeType{
		NodeTypeWellDocument,
		NodeTypeLogCurve,
		NodeTypeEnergyRecord,
		NodeTypeWaterSite,
		NodeTypeWaterMeasurement,
	}
}

// IsValid returns true if the node type is one of the known types
func (t NodeType) IsValid() bool {
	for _, known := range AllNodeTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Domain returns the domain a node type belongs to
func (t NodeType) Domain() Domain {
	switch t {
	case NodeTypeWellDocument, NodeTypeLogCurve:
		return DomainSubsurface
	case NodeTypeEnergyRecord:
		return DomainEnergy
	case NodeTypeWaterSite, NodeTypeWaterMeasurement:
		return DomainSurfaceWater
	default:
		return ""
	}
}

// Domain groups node types by data source
type Domain string

const (
	DomainSubsurface   Domain = "subsurface"
	DomainEnergy       Domain = "energy"
	DomainSurfaceWater Domain = "surface_water"
)

// Attribute keys read by the retrieval components
const (
	AttrWellID      = "well_id"
	AttrWellName    = "well_name"
	AttrField       = "field"
	AttrOperator    = "operator"
	AttrTotalDepth  = "total_depth"
	AttrContent     = "content"
	AttrMnemonic    = "mnemonic"
	AttrUnit        = "unit"
	AttrDescription = "description"
	AttrMinValue    = "min_value"
	AttrMaxValue    = "max_value"
	AttrMeanValue   = "mean_value"
	AttrRegion      = "region"
	AttrSource      = "source"
	AttrYear        = "year"
	AttrProduction  = "production"
	AttrSiteCode    = "site_code"
	AttrSiteName    = "site_name"
	AttrState       = "state"
	AttrLatitude    = "latitude"
	AttrLongitude   = "longitude"
	AttrParameter   = "parameter"
	AttrValue       = "value"
	AttrDate        = "date"
)

// Attributes is the typed attribute set of a node. Each node type has exactly one
// implementation; Fields returns the non-empty values as a flat map.
type Attributes interface {
	NodeType() NodeType
	Fields() map[string]any
}

// Node represents a typed entity in the knowledge graph.
// Nodes are immutable once they are part of a graph index.
type Node struct {
	ID         string     `json:"id"`
	Type       NodeType   `json:"type"`
	Domain     Domain     `json:"domain"`
	Attributes Attributes `json:"-"`
	Extra      Metadata   `json:"-"` // schema-less extension attributes
}

// NewNode creates a node from a flat attribute map. Known keys are decoded into the
// typed attribute variant of the node type, all other keys end up in Extra.
func NewNode(id string, nodeType NodeType, attrs map[string]any) (*Node, error) {
	if id == "" {
		return nil, fmt.Errorf("node id is empty")
	}
	if !nodeType.IsValid() {
		return nil, fmt.Errorf("unknown node type %q", nodeType)
	}

	attributes, extra := decodeAttributes(nodeType, attrs)

	return &Node{
		ID:         id,
		Type:       nodeType,
		Domain:     nodeType.Domain(),
		Attributes: attributes,
		Extra:      extra,
	}, nil
}

// Fields returns typed and extension attributes merged into one map.
// Typed attributes win over extension attributes with the same key.
func (n *Node) Fields() map[string]any {
	fields := make(map[string]any, len(n.Extra)+8)
	for k, v := range n.Extra {
		fields[k] = v
	}
	if n.Attributes != nil {
		for k, v := range n.Attributes.Fields() {
			fields[k] = v
		}
	}
	return fields
}

// Value returns the attribute with the given name
func (n *Node) Value(name string) (any, bool) {
	if n.Attributes != nil {
		if v, ok := n.Attributes.Fields()[name]; ok {
			return v, true
		}
	}
	v, ok := n.Extra[name]
	return v, ok
}

// Numeric returns the attribute with the given name as float64
func (n *Node) Numeric(name string) (float64, bool) {
	v, ok := n.Value(name)
	if !ok {
		return 0, false
	}
	f := toFloat(v)
	if f == nil {
		return 0, false
	}
	return *f, true
}

// String returns the attribute with the given name formatted as string
func (n *Node) String(name string) (string, bool) {
	v, ok := n.Value(name)
	if !ok {
		return "", false
	}
	s := formatValue(v)
	return s, s != ""
}

// Label returns the human readable identifier of the node
func (n *Node) Label() string {
	switch a := n.Attributes.(type) {
	case *WellAttributes:
		if a.WellName != "" {
			return a.WellName
		}
		if a.WellID != "" {
			return a.WellID
		}
	case *CurveAttributes:
		if a.Mnemonic != "" && a.WellID != "" {
			return a.Mnemonic + " (" + a.WellID + ")"
		}
		if a.Mnemonic != "" {
			return a.Mnemonic
		}
	case *EnergyAttributes:
		if a.Region != "" && a.Source != "" {
			return a.Region + " " + a.Source
		}
	case *WaterSiteAttributes:
		if a.SiteName != "" {
			return a.SiteName
		}
		if a.SiteCode != "" {
			return a.SiteCode
		}
	case *WaterMeasurementAttributes:
		if a.SiteCode != "" && a.Parameter != "" {
			return a.SiteCode + " " + a.Parameter
		}
	}
	return n.ID
}

// Text returns a deterministic textual rendering of the node used for lexical matching
func (n *Node) Text() string {
	fields := n.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(n.Type))
	b.WriteString(" ")
	b.WriteString(n.ID)
	for _, k := range keys {
		s := formatValue(fields[k])
		if s == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

// Well returns the well attributes if the node is a well document
func (n *Node) Well() (*WellAttributes, bool) {
	a, ok := n.Attributes.(*WellAttributes)
	return a, ok
}

// Curve returns the curve attributes if the node is a log curve
func (n *Node) Curve() (*CurveAttributes, bool) {
	a, ok := n.Attributes.(*CurveAttributes)
	return a, ok
}

type nodeJSON struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Domain     Domain         `json:"domain,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// MarshalJSON flattens typed and extension attributes into one attributes object
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{
		ID:         n.ID,
		Type:       n.Type,
		Domain:     n.Domain,
		Attributes: n.Fields(),
	})
}

// UnmarshalJSON decodes the attributes object into the typed variant of the node type
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decoded, err := NewNode(raw.ID, raw.Type, raw.Attributes)
	if err != nil {
		return err
	}
	if raw.Domain != "" {
		decoded.Domain = raw.Domain
	}

	*n = *decoded
	return nil
}

func decodeAttributes(nodeType NodeType, attrs map[string]any) (Attributes, Metadata) {
	r := newAttributeReader(attrs)

	var attributes Attributes
	switch nodeType {
	case NodeTypeWellDocument:
		attributes = &WellAttributes{
			WellID:     canonicalOrRaw(r.str(AttrWellID)),
			WellName:   r.str(AttrWellName),
			Field:      r.str(AttrField),
			Operator:   r.str(AttrOperator),
			TotalDepth: r.num(AttrTotalDepth),
			Content:    r.str(AttrContent),
		}
	case NodeTypeLogCurve:
		attributes = &CurveAttributes{
			Mnemonic:    r.str(AttrMnemonic),
			WellID:      canonicalOrRaw(r.str(AttrWellID)),
			Unit:        r.str(AttrUnit),
			Description: r.str(AttrDescription),
			MinValue:    r.num(AttrMinValue),
			MaxValue:    r.num(AttrMaxValue),
			MeanValue:   r.num(AttrMeanValue),
		}
	case NodeTypeEnergyRecord:
		attributes = &EnergyAttributes{
			Region:     r.str(AttrRegion),
			Source:     r.str(AttrSource),
			Year:       r.num(AttrYear),
			Production: r.num(AttrProduction),
			Unit:       r.str(AttrUnit),
		}
	case NodeTypeWaterSite:
		attributes = &WaterSiteAttributes{
			SiteCode:  r.str(AttrSiteCode),
			SiteName:  r.str(AttrSiteName),
			State:     r.str(AttrState),
			Latitude:  r.num(AttrLatitude),
			Longitude: r.num(AttrLongitude),
		}
	case NodeTypeWaterMeasurement:
		attributes = &WaterMeasurementAttributes{
			SiteCode:  r.str(AttrSiteCode),
			Parameter: r.str(AttrParameter),
			Value:     r.num(AttrValue),
			Unit:      r.str(AttrUnit),
			Date:      r.str(AttrDate),
		}
	}

	return attributes, r.rest()
}

// attributeReader consumes known keys from an attribute map
type attributeReader struct {
	attrs map[string]any
	used  map[string]bool
}

func newAttributeReader(attrs map[string]any) *attributeReader {
	return &attributeReader{attrs: attrs, used: map[string]bool{}}
}

func (r *attributeReader) str(key string) string {
	v, ok := r.attrs[key]
	if !ok || v == nil {
		return ""
	}
	r.used[key] = true
	return formatValue(v)
}

func (r *attributeReader) num(key string) *float64 {
	v, ok := r.attrs[key]
	if !ok || v == nil {
		return nil
	}
	f := toFloat(v)
	if f != nil {
		r.used[key] = true
	}
	return f
}

func (r *attributeReader) rest() Metadata {
	var extra Metadata
	for k, v := range r.attrs {
		if r.used[k] {
			continue
		}
		if extra == nil {
			extra = Metadata{}
		}
		extra[k] = v
	}
	return extra
}

func toFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case *float64:
		if t == nil {
			return ""
		}
		return strconv.FormatFloat(*t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
