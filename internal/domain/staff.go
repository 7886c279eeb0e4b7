package domain

type StaffRole string

const (
	StaffRoleOwner   StaffRole = "OWNER"
	StaffRoleManager StaffRole = "MANAGER"
	StaffRoleClerk   StaffRole = "CLERK"
)

// Staff is the acting user supplied by the auth boundary. The core only needs the
// id for history entries and the role for a few owner-only operations.
type Staff struct {
	ID     int32     `json:"id"`
	ShopID int32     `json:"shop_id"`
	Name   string    `json:"name"`
	Role   StaffRole `json:"role"`
}

func (r StaffRole) CanDelete() bool {
	return r == StaffRoleOwner || r == StaffRoleManager
}
