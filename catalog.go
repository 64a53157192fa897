package smartflow

import "strings"

// Choice is a selectable value with its display label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Criterion is an attribute conditions can test, with its known values.
type Criterion struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Values []Choice `json:"values"`
}

// Catalog lists the criteria offered when building conditions. It only
// drives labels and default simulation assignments; evaluation accepts any
// attribute key.
type Catalog struct {
	Criteria []Criterion `json:"criteria"`
}

// Operators lists the supported operators with their display labels.
var Operators = []Choice{
	{Value: string(Is), Label: "Is"},
	{Value: string(IsNot), Label: "Is not"},
}

// DefaultCatalog returns the built-in criteria.
func DefaultCatalog() *Catalog {
	return &Catalog{Criteria: []Criterion{
		{Key: "day", Label: "Day", Values: []Choice{
			{"monday", "Monday"},
			{"tuesday", "Tuesday"},
			{"wednesday", "Wednesday"},
			{"thursday", "Thursday"},
			{"friday", "Friday"},
			{"saturday", "Saturday"},
			{"sunday", "Sunday"},
		}},
		{Key: "country", Label: "Country", Values: []Choice{
			{"us", "United States"},
			{"ca", "Canada"},
			{"ch", "Switzerland"},
			{"de", "Germany"},
			{"in", "India"},
		}},
		{Key: "device-language", Label: "Device Language", Values: []Choice{
			{"en", "English"},
			{"de", "German"},
			{"fr", "French"},
			{"it", "Italian"},
		}},
		{Key: "device-os", Label: "Device OS", Values: []Choice{
			{"ios", "iOS"},
			{"android", "Android"},
			{"macos", "macOS"},
			{"windows", "Windows"},
		}},
	}}
}

// Criterion looks up a criterion by key.
func (c *Catalog) Criterion(key string) (Criterion, bool) {
	for _, cr := range c.Criteria {
		if cr.Key == key {
			return cr, true
		}
	}
	return Criterion{}, false
}

// OperatorLabel returns the display label of op.
func OperatorLabel(op Operator) string {
	for _, o := range Operators {
		if o.Value == string(op) {
			return o.Label
		}
	}
	return string(op)
}

// ConditionLabel derives "<Criterion> <Operator> <Value>" from display
// labels, falling back to the raw key or value when the catalog has none.
func (c *Catalog) ConditionLabel(meta ConditionMetadata) string {
	criterion := meta.Criteria
	value := meta.Value
	if cr, ok := c.Criterion(meta.Criteria); ok {
		criterion = cr.Label
		for _, v := range cr.Values {
			if v.Value == meta.Value {
				value = v.Label
				break
			}
		}
	}
	return strings.TrimSpace(strings.Join([]string{criterion, OperatorLabel(meta.Operator), value}, " "))
}

// DefaultAttributes assigns each criterion its first value.
func (c *Catalog) DefaultAttributes() Attributes {
	attrs := make(Attributes, len(c.Criteria))
	for _, cr := range c.Criteria {
		if len(cr.Values) > 0 {
			attrs[cr.Key] = cr.Values[0].Value
		} else {
			attrs[cr.Key] = ""
		}
	}
	return attrs
}
