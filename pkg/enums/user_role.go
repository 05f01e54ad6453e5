package enums

// UserRole gates access to catalog administration.
type UserRole string

const (
	UserRoleBuyer UserRole = "buyer"
	UserRoleAdmin UserRole = "admin"
)

var userRoles = []UserRole{UserRoleBuyer, UserRoleAdmin}

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool { return known(userRoles, r) }

func ParseUserRole(value string) (UserRole, error) {
	return parse(userRoles, value, "user role")
}
