package model

// WellAttributes are the attributes of a well document node
type WellAttributes struct {
	WellID     string
	WellName   string
	Field      string
	Operator   string
	TotalDepth *float64 // metres
	Content    string
}

func (a *WellAttributes) NodeType() NodeType { return NodeTypeWellDocument }

func (a *WellAttributes) Fields() map[string]any {
	f := fields{}
	f.str(AttrWellID, a.WellID)
	f.str(AttrWellName, a.WellName)
	f.str(AttrField, a.Field)
	f.str(AttrOperator, a.Operator)
	f.num(AttrTotalDepth, a.TotalDepth)
	f.str(AttrContent, a.Content)
	return f
}

// CurveAttributes are the attributes of a log curve node
type CurveAttributes struct {
	Mnemonic    string
	WellID      string
	Unit        string
	Description string
	MinValue    *float64
	MaxValue    *float64
	MeanValue   *float64
}

func (a *CurveAttributes) NodeType() NodeType { return NodeTypeLogCurve }

func (a *CurveAttributes) Fields() map[string]any {
	f := fields{}
	f.str(AttrMnemonic, a.Mnemonic)
	f.str(AttrWellID, a.WellID)
	f.str(AttrUnit, a.Unit)
	f.str(AttrDescription, a.Description)
	f.num(AttrMinValue, a.MinValue)
	f.num(AttrMaxValue, a.MaxValue)
	f.num(AttrMeanValue, a.MeanValue)
	return f
}

// EnergyAttributes are the attributes of an energy record node
type EnergyAttributes struct {
	Region     string
	Source     string
	Year       *float64
	Production *float64
	Unit       string
}

func (a *EnergyAttributes) NodeType() NodeType { return NodeTypeEnergyRecord }

func (a *EnergyAttributes) Fields() map[string]any {
	f := fields{}
	f.str(AttrRegion, a.Region)
	f.str(AttrSource, a.Source)
	f.num(AttrYear, a.Year)
	f.num(AttrProduction, a.Production)
	f.str(AttrUnit, a.Unit)
	return f
}

// WaterSiteAttributes are the attributes of a surface water monitoring site
type WaterSiteAttributes struct {
	SiteCode  string
	SiteName  string
	State     string
	Latitude  *float64
	Longitude *float64
}

func (a *WaterSiteAttributes) NodeType() NodeType { return NodeTypeWaterSite }

func (a *WaterSiteAttributes) Fields() map[string]any {
	f := fields{}
	f.str(AttrSiteCode, a.SiteCode)
	f.str(AttrSiteName, a.SiteName)
	f.str(AttrState, a.State)
	f.num(AttrLatitude, a.Latitude)
	f.num(AttrLongitude, a.Longitude)
	return f
}

// WaterMeasurementAttributes are the attributes of a single water measurement
type WaterMeasurementAttributes struct {
	SiteCode  string
	Parameter string
	Value     *float64
	Unit      string
	Date      string
}

func (a *WaterMeasurementAttributes) NodeType() NodeType { return NodeTypeWaterMeasurement }

func (a *WaterMeasurementAttributes) Fields() map[string]any {
	f := fields{}
	f.str(AttrSiteCode, a.SiteCode)
	f.str(AttrParameter, a.Parameter)
	f.num(AttrValue, a.Value)
	f.str(AttrUnit, a.Unit)
	f.str(AttrDate, a.Date)
	return f
}

// fields collects the non-empty attribute values of a variant
type fields map[string]any

func (f fields) str(key, value string) {
	if value != "" {
		f[key] = value
	}
}

func (f fields) num(key string, value *float64) {
	if value != nil {
		f[key] = *value
	}
}

// Float returns a pointer to v, handy for building attribute structs
func Float(v float64) *float64 {
	return &v
}
