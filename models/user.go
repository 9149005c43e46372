package models

// User is a login identity. Email doubles as the username.
type User struct {
	ID        int64  `gorm:"column:id;primaryKey" json:"id"`
	Name      string `gorm:"column:name" json:"name"`
	Email     string `gorm:"column:email;uniqueIndex" json:"email"`
	Password  string `gorm:"column:password" json:"-"`
	Confirmed bool   `gorm:"column:confirmed" json:"confirmed"`
	Status    int16  `gorm:"column:status" json:"status"`
}

func (User) TableName() string { return "users" }

// Employee links a user to the organization. Only active employees count.
type Employee struct {
	ID           int64   `gorm:"column:id;primaryKey" json:"id"`
	NameKh       *string `gorm:"column:name_kh" json:"nameKh,omitempty"`
	NameLatin    string  `gorm:"column:name_latin" json:"nameLatin"`
	Email        *string `gorm:"column:email" json:"email,omitempty"`
	Phone        *string `gorm:"column:phone" json:"phone,omitempty"`
	Active       bool    `gorm:"column:active" json:"active"`
	UserID       *int64  `gorm:"column:user_id;index" json:"userId,omitempty"`
	BranchID     *int64  `gorm:"column:branch_id" json:"branchId,omitempty"`
	DepartmentID *int64  `gorm:"column:department_id" json:"departmentId,omitempty"`
}

func (Employee) TableName() string { return "employees" }

// UserProfile is the authenticated view of a user. EmployeeID is nil for
// users without an active employee record; those get application defaults.
type UserProfile struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Email       *string `json:"email,omitempty"`
	EmployeeID  *int64  `json:"employeeId"`
}

// NewUserProfile builds the profile of u. employee may be nil.
func NewUserProfile(u *User, employee *Employee) *UserProfile {
	email := u.Email
	p := &UserProfile{
		ID:          u.ID,
		Username:    u.Email,
		DisplayName: u.Name,
		Email:       &email,
	}
	if employee != nil {
		id := employee.ID
		p.EmployeeID = &id
	}
	return p
}
