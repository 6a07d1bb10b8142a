package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Role tags the kind of account a principal belongs to.
type Role string

const (
	RoleHospital Role = "hospital"
	RoleDoctor   Role = "doctor"
	RolePatient  Role = "patient"
)

// Credentials is embedded by every account model.
type Credentials struct {
	Password string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
}

// SetPassword hashes a password and stores the hash
func (c *Credentials) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the stored hash
func (c *Credentials) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(password))
	return err == nil
}
