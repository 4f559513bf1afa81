package models

import (
	"strings"
	"time"
)

// Repository is a GitHub repository tracked by one user.
// CreatedAt is the upstream creation date, not the row insertion time.
type Repository struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Owner      string    `json:"owner" gorm:"not null;size:255"`
	Name       string    `json:"name" gorm:"not null;size:255"`
	FullName   string    `json:"full_name" gorm:"not null;size:511;uniqueIndex:repositories_user_id_full_name_unique,priority:2"`
	URL        string    `json:"url" gorm:"not null"`
	Stars      int       `json:"stars" gorm:"not null;default:0"`
	Forks      int       `json:"forks" gorm:"not null;default:0"`
	OpenIssues int       `json:"open_issues" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime:false;not null"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	UserID     uint      `json:"user_id" gorm:"not null;index;uniqueIndex:repositories_user_id_full_name_unique,priority:1"`
	User       *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Repository
func (Repository) TableName() string {
	return "repositories"
}

// ApplyCounts overwrites the mutable counters from a fresh upstream snapshot.
// Identity fields are left untouched.
func (r *Repository) ApplyCounts(up *UpstreamRepository) {
	r.Stars = up.Stars
	r.Forks = up.Forks
	r.OpenIssues = up.OpenIssues
}

// NewRepositoryFromUpstream builds the record persisted by an add
func NewRepositoryFromUpstream(userID uint, up *UpstreamRepository) *Repository {
	return &Repository{
		Owner:      up.Owner,
		Name:       up.Name,
		FullName:   up.FullName,
		URL:        up.HTMLURL,
		Stars:      up.Stars,
		Forks:      up.Forks,
		OpenIssues: up.OpenIssues,
		CreatedAt:  up.CreatedAt,
		UserID:     userID,
	}
}

// UpstreamRepository is the subset of GitHub's repository payload the CRM uses
type UpstreamRepository struct {
	ID          int64
	Owner       string
	OwnerAvatar string
	Name        string
	FullName    string
	Description string
	HTMLURL     string
	Stars       int
	Forks       int
	OpenIssues  int
	CreatedAt   time.Time
}

// SplitFullName splits owner/repo. ok is false when either half is missing
// or is a "." or ".." path segment.
func SplitFullName(path string) (owner, name string, ok bool) {
	owner, name, found := strings.Cut(path, "/")
	if !found || !validSegment(owner) || !validSegment(name) || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".."
}
