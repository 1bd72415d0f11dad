// Package domain defines the persistence models of the marketplace: accounts
// (users and professionals), their portfolio projects, reviews, bookings,
// requirements, cost estimates, chat history and collaboration files. These
// types are mapped with GORM and shared by the repository and service layers.
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Roles carried by accounts and credentials.
const (
	RoleUser         = "user"
	RoleProfessional = "professional"
)

// Status values written by the services.
const (
	BookingPending       = "pending"
	RequirementSubmitted = "submitted"
)

// Base is embedded by every document. The ID is assigned on insert when the
// caller leaves it empty; CreatedAt drives list ordering.
type Base struct {
	ID        string    `json:"id"         gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the document has none.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// GetID returns the document identifier.
func (b *Base) GetID() string { return b.ID }

// User is a client account.
type User struct {
	Base
	Name     string `json:"name"               gorm:"type:varchar(255);not null"`
	Email    string `json:"email"              gorm:"type:varchar(255);not null;uniqueIndex"`
	Password string `json:"-"                  gorm:"type:varchar(255);not null"`
	Phone    string `json:"phone,omitempty"    gorm:"type:varchar(32)"`
	Location string `json:"location,omitempty" gorm:"type:varchar(255)"`
	Role     string `json:"role"               gorm:"type:varchar(16);not null;default:'user'"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Professional is a service-provider account. Rating and TotalReviews are a
// denormalized aggregate over the reviews addressed to this professional and
// are overwritten whenever a review is submitted.
type Professional struct {
	Base
	Name            string  `json:"name"                        gorm:"type:varchar(255);not null"`
	Email           string  `json:"email"                       gorm:"type:varchar(255);not null;uniqueIndex"`
	Password        string  `json:"-"                           gorm:"type:varchar(255);not null"`
	Specialization  string  `json:"specialization"              gorm:"type:varchar(128);index"`
	Phone           string  `json:"phone,omitempty"             gorm:"type:varchar(32)"`
	City            string  `json:"city,omitempty"              gorm:"type:varchar(128);index"`
	State           string  `json:"state,omitempty"             gorm:"type:varchar(128)"`
	Bio             string  `json:"bio,omitempty"               gorm:"type:text"`
	ExperienceYears int     `json:"experience_years"`
	HourlyRate      float64 `json:"hourly_rate"`
	DegreeDocument  string  `json:"degree_document,omitempty"   gorm:"type:varchar(512)"`
	LicenseDocument string  `json:"license_document,omitempty"  gorm:"type:varchar(512)"`
	IDProofDocument string  `json:"id_proof_document,omitempty" gorm:"type:varchar(512)"`
	ProfileImage    string  `json:"profile_image,omitempty"     gorm:"type:varchar(512)"`
	IsVerified      bool    `json:"is_verified"                 gorm:"not null;default:false"`
	Role            string  `json:"role"                        gorm:"type:varchar(16);not null;default:'professional'"`
	Rating          float64 `json:"rating"                      gorm:"not null;default:0"`
	TotalReviews    int     `json:"total_reviews"               gorm:"not null;default:0"`
	TotalProjects   int     `json:"total_projects"              gorm:"not null;default:0"`
}

// TableName returns the database table name for Professional.
func (Professional) TableName() string { return "professionals" }

// Project is a portfolio entry. Images holds public upload paths.
type Project struct {
	Base
	Title          string                      `json:"title"                     gorm:"type:varchar(255);not null"`
	Slug           string                      `json:"slug"                      gorm:"type:varchar(255);index"`
	Category       string                      `json:"category"                  gorm:"type:varchar(128);index"`
	Location       string                      `json:"location"                  gorm:"type:varchar(255)"`
	Area           string                      `json:"area,omitempty"            gorm:"type:varchar(64)"`
	Budget         string                      `json:"budget,omitempty"          gorm:"type:varchar(64)"`
	Description    string                      `json:"description,omitempty"     gorm:"type:text"`
	UserID         string                      `json:"user_id"                   gorm:"type:varchar(36);index"`
	ProfessionalID string                      `json:"professional_id,omitempty" gorm:"type:varchar(36);index"`
	Images         datatypes.JSONSlice[string] `json:"images"`
}

// TableName returns the database table name for Project.
func (Project) TableName() string { return "projects" }

// Review is an immutable rating of a professional by a user. UserName is
// copied from the author's account at submission time.
type Review struct {
	Base
	UserID         string  `json:"user_id"         gorm:"type:varchar(36);not null;index"`
	UserName       string  `json:"user_name"       gorm:"type:varchar(255)"`
	ProfessionalID string  `json:"professional_id" gorm:"type:varchar(36);not null;index"`
	ProjectID      string  `json:"project_id"      gorm:"type:varchar(36)"`
	Rating         float64 `json:"rating"          gorm:"not null"`
	ReviewText     string  `json:"review_text"     gorm:"type:text"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// CostEstimate is the audit record of one estimation request. Costs are
// stored unrounded and never recomputed.
type CostEstimate struct {
	Base
	UserID       string  `json:"user_id"       gorm:"type:varchar(36);not null;index"`
	ProjectType  string  `json:"project_type"  gorm:"type:varchar(64)"`
	Area         float64 `json:"area"`
	Location     string  `json:"location"      gorm:"type:varchar(255)"`
	QualityLevel string  `json:"quality_level" gorm:"type:varchar(32)"`
	NumRooms     int     `json:"num_rooms"`
	MaterialCost float64 `json:"material_cost"`
	LaborCost    float64 `json:"labor_cost"`
	DesignCost   float64 `json:"design_cost"`
	PermitCost   float64 `json:"permit_cost"`
	TotalCost    float64 `json:"total_cost"`
}

// TableName returns the database table name for CostEstimate.
func (CostEstimate) TableName() string { return "cost_estimates" }

// Booking is a consultation request from a user to a professional.
type Booking struct {
	Base
	UserID         string `json:"user_id"         gorm:"type:varchar(36);not null;index"`
	ProfessionalID string `json:"professional_id" gorm:"type:varchar(36);not null;index"`
	BookingDate    string `json:"booking_date"    gorm:"type:varchar(32)"`
	BookingTime    string `json:"booking_time"    gorm:"type:varchar(32)"`
	Message        string `json:"message"         gorm:"type:text"`
	Status         string `json:"status"          gorm:"type:varchar(16);not null;default:'pending'"`
}

// TableName returns the database table name for Booking.
func (Booking) TableName() string { return "bookings" }

// Requirement is a free-form project brief submitted by a user.
type Requirement struct {
	Base
	UserID  string            `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Status  string            `json:"status"  gorm:"type:varchar(16);not null"`
	Details datatypes.JSONMap `json:"details"`
}

// TableName returns the database table name for Requirement.
func (Requirement) TableName() string { return "requirements" }

// ChatMessage is one exchange with the scripted assistant.
type ChatMessage struct {
	Base
	UserID      string `json:"user_id"      gorm:"type:varchar(36);not null;index"`
	Message     string `json:"message"      gorm:"type:text;not null"`
	Response    string `json:"response"     gorm:"type:text"`
	ContextType string `json:"context_type" gorm:"type:varchar(64)"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// Collaboration is a file shared on a project by either party.
type Collaboration struct {
	Base
	ProjectID    string `json:"project_id"    gorm:"type:varchar(36);not null;index"`
	UploaderType string `json:"uploader_type" gorm:"type:varchar(16)"`
	UploaderID   string `json:"uploader_id"   gorm:"type:varchar(36);index"`
	FileName     string `json:"file_name"     gorm:"type:varchar(255)"`
	FilePath     string `json:"file_path"     gorm:"type:varchar(512)"`
	FileType     string `json:"file_type"     gorm:"type:varchar(128)"`
	FileSize     int64  `json:"file_size"`
	Description  string `json:"description"   gorm:"type:text"`
}

// TableName returns the database table name for Collaboration.
func (Collaboration) TableName() string { return "collaborations" }
