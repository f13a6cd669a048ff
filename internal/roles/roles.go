package roles

// Group names as seeded in the groups table.
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery crew"
)

type Role string

const (
	Manager      Role = "manager"
	DeliveryCrew Role = "delivery_crew"
	Customer     Role = "customer"
)

// Resolve maps a user's group memberships to exactly one role. Manager wins
// over Delivery crew when memberships overlap; anyone in neither group is a
// customer.
func Resolve(groups []string) Role {
	crew := false
	for _, g := range groups {
		switch g {
		case GroupManager:
			return Manager
		case GroupDeliveryCrew:
			crew = true
		}
	}
	if crew {
		return DeliveryCrew
	}
	return Customer
}

func (r Role) IsStaff() bool {
	return r == Manager || r == DeliveryCrew
}
