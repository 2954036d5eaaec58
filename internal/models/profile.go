package models

// UserProfile is the singleton settings record used to annotate exports.
// Weight is in kilograms.
type UserProfile struct {
	Age      *float64 `json:"age,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	HeightFt *float64 `json:"heightFt,omitempty"`
	HeightIn *float64 `json:"heightIn,omitempty"`
}

// IsEmpty reports whether no field has been filled in.
func (p UserProfile) IsEmpty() bool {
	return p.Age == nil && p.Weight == nil && p.HeightFt == nil && p.HeightIn == nil
}
