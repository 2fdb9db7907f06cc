package dto

import (
	"time"

	"github.com/tickhawk/helpdesk/internal/domain"
)

// OpenTicketRequest payload.
type OpenTicketRequest struct {
	DepartmentID string `json:"departmentId"`
	Subject      string `json:"subject"`
	Content      string `json:"content"`
}

// CommentRequest payload shared by customer and agent replies.
type CommentRequest struct {
	Content       string   `json:"content"`
	Minutes       *int     `json:"minutes"`
	AttachmentIDs []string `json:"attachmentIds"`
}

// TransferRequest payload.
type TransferRequest struct {
	DepartmentID string `json:"departmentId"`
}

// CompanyResponse is the company snapshot carried by a ticket.
type CompanyResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Deleted bool   `json:"deleted"`
}

// TicketSummary is a listing row.
type TicketSummary struct {
	ID           string              `json:"id"`
	Status       domain.TicketStatus `json:"status"`
	Company      CompanyResponse     `json:"company"`
	CustomerID   string              `json:"customerId"`
	AgentID      *string             `json:"agentId"`
	DepartmentID string              `json:"departmentId"`
	Subject      string              `json:"subject"`
	TotalMinutes int                 `json:"totalMinutes"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// TicketDetail adds the body, comments and events.
type TicketDetail struct {
	TicketSummary
	Content  string            `json:"content"`
	Comments []CommentResponse `json:"comments"`
	Events   []EventResponse   `json:"events"`
}

// CommentResponse is one reply.
type CommentResponse struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Content       string    `json:"content"`
	Minutes       *int      `json:"minutes"`
	AttachmentIDs []string  `json:"attachmentIds"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EventResponse is one audit entry.
type EventResponse struct {
	ID        string           `json:"id"`
	Type      domain.EventType `json:"type"`
	AuthorID  *string          `json:"authorId"`
	CreatedAt time.Time        `json:"createdAt"`
}

// TicketPageResponse is one page of a listing.
type TicketPageResponse struct {
	Tickets []TicketSummary `json:"tickets"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
}

// NewTicketSummary maps a ticket to its listing row.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:     t.ID,
		Status: t.Status,
		Company: CompanyResponse{
			ID:      t.Company.ID,
			Name:    t.Company.Name,
			Email:   t.Company.Email,
			Deleted: t.Company.Deleted,
		},
		CustomerID:   t.CustomerID,
		AgentID:      t.AgentID,
		DepartmentID: t.DepartmentID,
		Subject:      t.Subject,
		TotalMinutes: t.TotalMinutes,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// NewTicketDetail maps a ticket with its history.
func NewTicketDetail(t *domain.Ticket) TicketDetail {
	detail := TicketDetail{
		TicketSummary: NewTicketSummary(t),
		Content:       t.Content,
		Comments:      make([]CommentResponse, 0, len(t.Comments)),
		Events:        make([]EventResponse, 0, len(t.Events)),
	}
	for i := range t.Comments {
		detail.Comments = append(detail.Comments, NewCommentResponse(&t.Comments[i]))
	}
	for _, ev := range t.Events {
		detail.Events = append(detail.Events, EventResponse{
			ID:        ev.ID,
			Type:      ev.Type,
			AuthorID:  ev.AuthorID,
			CreatedAt: ev.CreatedAt,
		})
	}
	return detail
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	attachments := c.AttachmentIDs
	if attachments == nil {
		attachments = []string{}
	}
	return CommentResponse{
		ID:            c.ID,
		AuthorID:      c.AuthorID,
		Content:       c.Content,
		Minutes:       c.Minutes,
		AttachmentIDs: attachments,
		CreatedAt:     c.CreatedAt,
	}
}
