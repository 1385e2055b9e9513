package match

import "bloodlink/internal/model"

// compatibleRecipients is the closed donor-to-recipient compatibility
// table. A donor of the key type may give to exactly the listed request
// types; every pair not present is incompatible.
var compatibleRecipients = map[model.BloodType][]model.BloodType{
	model.BloodONeg: {
		model.BloodAPos, model.BloodANeg,
		model.BloodBPos, model.BloodBNeg,
		model.BloodABPos, model.BloodABNeg,
		model.BloodOPos, model.BloodONeg,
	},
	model.BloodOPos:  {model.BloodOPos, model.BloodAPos, model.BloodBPos, model.BloodABPos},
	model.BloodANeg:  {model.BloodAPos, model.BloodANeg, model.BloodABPos, model.BloodABNeg},
	model.BloodAPos:  {model.BloodAPos, model.BloodABPos},
	model.BloodBNeg:  {model.BloodBPos, model.BloodBNeg, model.BloodABPos, model.BloodABNeg},
	model.BloodBPos:  {model.BloodBPos, model.BloodABPos},
	model.BloodABNeg: {model.BloodABPos, model.BloodABNeg},
	model.BloodABPos: {model.BloodABPos},
}

// IsCompatible reports whether a donor of type donor can give to a request
// for type recipient.
func IsCompatible(donor, recipient model.BloodType) bool {
	for _, r := range compatibleRecipients[donor] {
		if r == recipient {
			return true
		}
	}
	return false
}
