package client

import "time"

// SignUpRequest is the body of POST /auth/sign-up
type SignUpRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is a signed-in account
type User struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Repository is a tracked GitHub repository
type Repository struct {
	ID         uint   `json:"id"`
	Owner      string `json:"owner"`
	Name       string `json:"name"`
	FullName   string `json:"full_name"`
	URL        string `json:"url"`
	Stars      int    `json:"stars"`
	Forks      int    `json:"forks"`
	OpenIssues int    `json:"open_issues"`
	CreatedAt  int64  `json:"created_at"`
	UserID     uint   `json:"user_id"`
}

// Created returns the upstream creation date
func (r Repository) Created() time.Time {
	return time.Unix(r.CreatedAt, 0).UTC()
}

// ListParams selects a page of the list. Zero values fall back to server defaults.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// RepositoryList is one page of tracked repositories
type RepositoryList struct {
	Items []Repository `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// SearchOwner is the owner block of a search hit
type SearchOwner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// SearchResult is one GitHub search hit
type SearchResult struct {
	ID              int64       `json:"id"`
	FullName        string      `json:"full_name"`
	Description     string      `json:"description"`
	StargazersCount int         `json:"stargazers_count"`
	Owner           SearchOwner `json:"owner"`
}
