package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Role struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null;column:name" json:"name"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Role) TableName() string { return "role" }

// User balances are kept in hundredths of a coin so reward increments add
// exactly.
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Nickname  string `gorm:"not null;column:nickname" json:"nickname"`
	Email     string `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string `gorm:"not null;column:password" json:"-"`
	RoleID    int64  `gorm:"not null;index;column:role_id" json:"role_id"`
	Validated int    `gorm:"not null;default:0;column:validated" json:"validated"`
	CoinCents int64  `gorm:"not null;default:0;column:coin_cents" json:"coin_cents"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) Coins() float64 { return float64(u.CoinCents) / 100 }
