package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// ContactTableName is the table leads are persisted to
const ContactTableName = "tabla_contacto"

// StatusNew marks a lead as received and not yet actioned
const StatusNew = "nuevo"

// Column limits, in characters
const (
	MaxCompanyNameLen   = 255
	MaxCompanyRutLen    = 20
	MaxEmployeeCountLen = 50
	MaxIndustryLen      = 255
	MaxContactNameLen   = 255
	MaxContactEmailLen  = 255
	MaxContactPhoneLen  = 50
)

// ContactSubmission is the lead as posted by the web form
type ContactSubmission struct {
	CompanyName    string `json:"companyName" validate:"required"`
	CompanyRut     string `json:"companyRut" validate:"required"`
	EmployeeCount  string `json:"employeeCount"`
	Industry       string `json:"industry"`
	ContactName    string `json:"contactName" validate:"required"`
	ContactEmail   string `json:"contactEmail" validate:"required"`
	ContactPhone   string `json:"contactPhone" validate:"required"`
	CurrentSystem  string `json:"currentSystem"`
	Needs          string `json:"needs" validate:"required"`
	AdditionalInfo string `json:"additionalInfo"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field
func (s ContactSubmission) Trimmed() ContactSubmission {
	return ContactSubmission{
		CompanyName:    strings.TrimSpace(s.CompanyName),
		CompanyRut:     strings.TrimSpace(s.CompanyRut),
		EmployeeCount:  strings.TrimSpace(s.EmployeeCount),
		Industry:       strings.TrimSpace(s.Industry),
		ContactName:    strings.TrimSpace(s.ContactName),
		ContactEmail:   strings.TrimSpace(s.ContactEmail),
		ContactPhone:   strings.TrimSpace(s.ContactPhone),
		CurrentSystem:  strings.TrimSpace(s.CurrentSystem),
		Needs:          strings.TrimSpace(s.Needs),
		AdditionalInfo: strings.TrimSpace(s.AdditionalInfo),
	}
}

// ToRecord normalizes the submission into a record ready for insert: fields
// trimmed, email lower-cased, overlong values truncated, absent optional
// fields NULL. ID, CreatedAt and Status are left for the store.
func (s ContactSubmission) ToRecord() *ContactRecord {
	t := s.Trimmed()
	return &ContactRecord{
		CompanyName:    Truncate(t.CompanyName, MaxCompanyNameLen),
		CompanyRut:     Truncate(t.CompanyRut, MaxCompanyRutLen),
		EmployeeCount:  optional(Truncate(t.EmployeeCount, MaxEmployeeCountLen)),
		Industry:       optional(Truncate(t.Industry, MaxIndustryLen)),
		ContactName:    Truncate(t.ContactName, MaxContactNameLen),
		ContactEmail:   Truncate(strings.ToLower(t.ContactEmail), MaxContactEmailLen),
		ContactPhone:   optional(Truncate(t.ContactPhone, MaxContactPhoneLen)),
		CurrentSystem:  optional(t.CurrentSystem),
		Needs:          t.Needs,
		AdditionalInfo: optional(t.AdditionalInfo),
	}
}

// ContactRecord is a persisted lead
type ContactRecord struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	CompanyName    string    `gorm:"column:nombre_empresa;size:255;not null" json:"companyName"`
	CompanyRut     string    `gorm:"column:rut_empresa;size:20;not null" json:"companyRut"`
	EmployeeCount  *string   `gorm:"column:cantidad_empleados;size:50" json:"employeeCount"`
	Industry       *string   `gorm:"column:giro_empresa;size:255" json:"industry"`
	ContactName    string    `gorm:"column:nombre_contacto;size:255;not null" json:"contactName"`
	ContactPhone   *string   `gorm:"column:telefono_contacto;size:50" json:"contactPhone"`
	ContactEmail   string    `gorm:"column:email_contacto;size:255;not null;index" json:"contactEmail"`
	CurrentSystem  *string   `gorm:"column:sistema_actual;type:text" json:"currentSystem"`
	Needs          string    `gorm:"column:necesidades;type:text;not null" json:"needs"`
	AdditionalInfo *string   `gorm:"column:informacion_adicional;type:text" json:"additionalInfo"`
	CreatedAt      time.Time `gorm:"column:fecha_creacion;not null" json:"createdAt"`
	Status         string    `gorm:"column:estado;size:20;not null;default:'nuevo'" json:"status"`
}

// TableName specifies the table name for ContactRecord
func (ContactRecord) TableName() string {
	return ContactTableName
}

// BeforeCreate hook. Identifier and timestamp are always server-assigned.
func (c *ContactRecord) BeforeCreate(tx *gorm.DB) error {
	c.ID = 0
	c.CreatedAt = time.Now().UTC()
	if c.Status == "" {
		c.Status = StatusNew
	}
	return nil
}

// Truncate cuts s to at most max characters
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
