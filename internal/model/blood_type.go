package model

// BloodType is one of the eight ABO/Rh blood groups.
type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

// AllBloodTypes lists every known blood group.
var AllBloodTypes = []BloodType{
	BloodAPos, BloodANeg,
	BloodBPos, BloodBNeg,
	BloodABPos, BloodABNeg,
	BloodOPos, BloodONeg,
}

// Valid reports whether t is one of the eight known groups.
func (t BloodType) Valid() bool {
	switch t {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// NeedLevel expresses how urgently a donation center needs a blood type.
type NeedLevel string

const (
	NeedNone     NeedLevel = "none"
	NeedLow      NeedLevel = "low"
	NeedModerate NeedLevel = "moderate"
	NeedHigh     NeedLevel = "high"
	NeedCritical NeedLevel = "critical"
)
