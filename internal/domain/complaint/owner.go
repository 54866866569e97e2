package complaint

import "strconv"

// Owner is either a citizen or nobody. The zero value is Anonymous.
type Owner struct {
	citizenID uint64
	owned     bool
}

func Anonymous() Owner {
	return Owner{}
}

func OwnedBy(citizenID uint64) Owner {
	if citizenID == 0 {
		return Anonymous()
	}
	return Owner{citizenID: citizenID, owned: true}
}

// OwnerFromNullable maps a nullable store column to an Owner.
func OwnerFromNullable(citizenID *uint64) Owner {
	if citizenID == nil {
		return Anonymous()
	}
	return OwnedBy(*citizenID)
}

func (o Owner) CitizenID() (uint64, bool) {
	return o.citizenID, o.owned
}

func (o Owner) IsAnonymous() bool {
	return !o.owned
}

// Nullable maps an Owner back to a store column.
func (o Owner) Nullable() *uint64 {
	if !o.owned {
		return nil
	}
	id := o.citizenID
	return &id
}

func (o Owner) String() string {
	if !o.owned {
		return "anonymous"
	}
	return "citizen:" + strconv.FormatUint(o.citizenID, 10)
}
