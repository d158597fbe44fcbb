package blood

import (
	"fmt"
	"strings"
)

// Group is an ABO/Rh blood group such as "A+" or "O-".
type Group string

// All recognised blood groups.
const (
	APos  Group = "A+"
	ANeg  Group = "A-"
	BPos  Group = "B+"
	BNeg  Group = "B-"
	ABPos Group = "AB+"
	ABNeg Group = "AB-"
	OPos  Group = "O+"
	ONeg  Group = "O-"
)

// Groups lists every valid blood group in display order.
var Groups = []Group{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// recipients maps a donor group to the set of groups it can donate to.
var recipients = map[Group][]Group{
	ONeg:  {ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos},
	OPos:  {OPos, APos, BPos, ABPos},
	ANeg:  {ANeg, APos, ABNeg, ABPos},
	APos:  {APos, ABPos},
	BNeg:  {BNeg, BPos, ABNeg, ABPos},
	BPos:  {BPos, ABPos},
	ABNeg: {ABNeg, ABPos},
	ABPos: {ABPos},
}

// Parse normalises and validates a blood group string.
func Parse(value string) (Group, error) {
	g := Group(strings.ToUpper(strings.TrimSpace(value)))
	if !g.Valid() {
		return "", fmt.Errorf("blood: invalid blood group %q", value)
	}
	return g, nil
}

// Valid reports whether the group is one of the eight recognised groups.
func (g Group) Valid() bool {
	_, ok := recipients[g]
	return ok
}

func (g Group) String() string { return string(g) }

// CanDonateTo reports whether blood of group g is transfusable to a recipient
// of the supplied group.
func (g Group) CanDonateTo(recipient Group) bool {
	for _, r := range recipients[g] {
		if r == recipient {
			return true
		}
	}
	return false
}

// Recipients returns the groups a donor of group g can give to.
func (g Group) Recipients() []Group {
	out := make([]Group, len(recipients[g]))
	copy(out, recipients[g])
	return out
}

// CompatibleDonors returns the groups whose blood a recipient of group g can accept.
func CompatibleDonors(recipient Group) []Group {
	var donors []Group
	for _, donor := range Groups {
		if donor.CanDonateTo(recipient) {
			donors = append(donors, donor)
		}
	}
	return donors
}
