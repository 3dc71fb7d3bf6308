package model

// Object is a virtual-world entity: a room, a player, an item.
//
// The on-disk form lives in <id>/<id>.json; callable properties are kept in
// sibling files and hydrated into Verb or Function values when loaded.
type Object struct {
	// ID is assigned externally and never changes. It equals the name of the
	// object's directory under the store root.
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Aliases are alternate names used for matching, in order.
	Aliases []string `json:"aliases" yaml:"aliases"`

	// TraitIDs reference other objects this one inherits behaviour from.
	// References are not checked.
	TraitIDs []string `json:"traitIds" yaml:"traitIds"`

	// LocationID is the containing object, or empty.
	LocationID string `json:"locationId,omitempty" yaml:"locationId,omitempty"`

	// UserID marks the object as player-controlled when non-empty.
	UserID string `json:"userId,omitempty" yaml:"userId,omitempty"`

	// Properties is the dynamic property bag.
	Properties map[string]PropertyValue `json:"properties" yaml:"properties"`
}

// Attribute names accepted by Object.Attribute.
const (
	AttrID         = "id"
	AttrName       = "name"
	AttrLocationID = "locationId"
	AttrUserID     = "userId"
)

// Attribute returns the value of a top-level scalar attribute by its
// descriptor name. Sequence and property attributes are not addressable.
func (o *Object) Attribute(name string) (string, bool) {
	switch name {
	case AttrID:
		return o.ID, true
	case AttrName:
		return o.Name, true
	case AttrLocationID:
		return o.LocationID, true
	case AttrUserID:
		return o.UserID, true
	}
	return "", false
}

// IsPlayer reports whether a user controls the object.
func (o *Object) IsPlayer() bool { return o.UserID != "" }

// Property returns the named property value.
func (o *Object) Property(key string) (PropertyValue, bool) {
	if o.Properties == nil {
		return nil, false
	}
	v, ok := o.Properties[key]
	return v, ok
}
