package entities

// User is a login identity. Password holds whatever the configured password
// scheme produced: the raw string for "plaintext", a bcrypt hash for "bcrypt".
type User struct {
	ID       uint   `gorm:"primaryKey;column:id" json:"id"`
	Name     string `gorm:"size:255;column:name;index" json:"name"`
	Password string `gorm:"size:255;column:password" json:"-"`
}

func (User) TableName() string {
	return "users"
}
