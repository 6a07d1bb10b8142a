package models

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	BaseModel
	Name    string `gorm:"size:255" json:"name"`
	Email   string `gorm:"size:255" json:"email"`
	Subject string `gorm:"size:255" json:"subject"`
	Message string `gorm:"type:text" json:"message"`
}
