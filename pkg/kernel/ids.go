package kernel

// Opaque identifiers for the identity domain. They are plain strings on the
// wire (UUIDs in practice) but typed in code so a role ID can never be passed
// where a tenant ID is expected.

type TenantID string

func NewTenantID(id string) TenantID { return TenantID(id) }
func (t TenantID) String() string    { return string(t) }
func (t TenantID) IsEmpty() bool     { return string(t) == "" }

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

type RoleID string

func NewRoleID(id string) RoleID { return RoleID(id) }
func (r RoleID) String() string  { return string(r) }
func (r RoleID) IsEmpty() bool   { return string(r) == "" }

type PermissionID string

func NewPermissionID(id string) PermissionID { return PermissionID(id) }
func (p PermissionID) String() string        { return string(p) }
func (p PermissionID) IsEmpty() bool         { return string(p) == "" }
