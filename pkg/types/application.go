package types

import (
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

// Document categories accepted on intake. Each category holds at most one file.
const (
	DocCategorySSC        = "ssc"
	DocCategoryInter      = "inter"
	DocCategoryGraduation = "graduation"
	DocCategoryPostgrad   = "postgrad"
	DocCategoryRelieving  = "relieving"
)

func DocumentCategories() []string {
	return []string{
		DocCategorySSC,
		DocCategoryInter,
		DocCategoryGraduation,
		DocCategoryPostgrad,
		DocCategoryRelieving,
	}
}

type Application struct {
	ID                string             `db:"id" json:"id"`
	Role              string             `db:"role" json:"role"`
	Location          string             `db:"location" json:"location"`
	PersonalInfo      PersonalInfo       `db:"personal_info" json:"personalInfo"`
	EmploymentStatus  string             `db:"employment_status" json:"employmentStatus"`
	EmploymentHistory *EmploymentHistory `db:"employment_history" json:"employmentHistory"`
	Documents         DocumentSet        `db:"documents" json:"documents"`
	OfferLetter       *DocumentMeta      `db:"offer_letter" json:"offerLetter"`
	Status            ApplicationStatus  `db:"status" json:"status"`
	CreatedAt         time.Time          `db:"created_at" json:"createdAt"`
}

type PersonalInfo struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Gender      string `json:"gender"`
	FatherName  string `json:"fatherName"`
	FatherPhone string `json:"fatherPhone"`
}

// EmploymentHistory is present only when the applicant reported prior
// experience; freshers carry a NULL column.
type EmploymentHistory struct {
	CompanyName string `json:"companyName"`
	Location    string `json:"location"`
	Experience  string `json:"experience"`
}

// DocumentSet maps document categories to uploaded file metadata.
// Stored as a single jsonb column; absent categories are simply missing keys.
type DocumentSet map[string]DocumentMeta

type DocumentMeta struct {
	OriginalName string `json:"originalName"`
	StoredPath   string `json:"storedPath"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes"`
}

// ApplicationFilter narrows listing. Zero value returns everything.
type ApplicationFilter struct {
	// Search matches case-insensitively as a substring over the applicant's
	// full name, email and the role applied for.
	Search string
	// Status filters on an exact status; empty or "all" disables the filter.
	Status string
}
