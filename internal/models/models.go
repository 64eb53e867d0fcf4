package models

import (
	"gorm.io/gorm"
)

// Роли пользователей.
const (
	RoleOperator = "operator" // обычный оператор
	RoleSenior   = "senior"   // старший смены, может ставить вне очереди
	RoleAdmin    = "admin"    // администратор
)

type User struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Surname      string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:operator"` // operator | senior | admin
}
