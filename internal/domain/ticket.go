package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusInReview   TicketStatus = "in-review"
	TicketStatusClosed     TicketStatus = "closed"
	// TicketStatusArchived is set when the owning company is deleted. No action leaves it.
	TicketStatusArchived TicketStatus = "archived"
)

// EventType enumerates the audit entries a ticket records.
type EventType string

const (
	EventOpen     EventType = "open"
	EventClose    EventType = "close"
	EventReopen   EventType = "re-open"
	EventTransfer EventType = "transfer"
)

const (
	MinCommentLength = 2
	MaxCommentLength = 600
	MaxAttachments   = 3
)

// CompanySnapshot is the denormalized company data embedded in a ticket.
type CompanySnapshot struct {
	ID       string
	Name     string
	Email    string
	Deleted  bool
	SyncedAt time.Time
}

// Comment is an append-only reply.
type Comment struct {
	ID            string
	TicketID      string
	AuthorID      string
	Content       string
	Minutes       *int
	AttachmentIDs []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Event is an append-only audit entry.
type Event struct {
	ID        string
	TicketID  string
	AuthorID  *string
	Type      EventType
	CreatedAt time.Time
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	Status       TicketStatus
	Company      CompanySnapshot
	CustomerID   string
	AgentID      *string
	DepartmentID string
	Subject      string
	Content      string
	TotalMinutes int
	Comments     []Comment
	Events       []Event
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CommentInput carries the client supplied part of a reply.
type CommentInput struct {
	Content       string
	Minutes       *int
	AttachmentIDs []string
}

// OpenTicket creates a ticket for customer in departmentID and records the open event.
// company.SyncedAt must be the update time of the company record the snapshot was copied from.
func OpenTicket(customer Customer, company CompanySnapshot, departmentID, subject, content string, now time.Time) (*Ticket, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrInvalidSubject
	}
	if strings.TrimSpace(departmentID) == "" {
		return nil, ErrInvalidDepartment
	}
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}
	if company.ID != customer.CompanyID || company.Deleted {
		return nil, ErrForbidden
	}

	t := &Ticket{
		ID:           uuid.NewString(),
		Status:       TicketStatusOpen,
		Company:      company,
		CustomerID:   customer.User.ID,
		DepartmentID: departmentID,
		Subject:      subject,
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	t.Events = append(t.Events, t.newEvent(customer, EventOpen, now))
	return t, nil
}

// CanView reports whether actor may read the ticket.
func (t *Ticket) CanView(actor Identity) bool {
	return t.canAct(actor)
}

// AppendComment adds a reply and applies the status change the reply implies.
// It returns the comment and any events the reply produced.
func (t *Ticket) AppendComment(actor Identity, in CommentInput, now time.Time) (*Comment, []Event, error) {
	if t.Status == TicketStatusArchived {
		return nil, nil, ErrForbidden
	}
	content, err := validContent(in.Content)
	if err != nil {
		return nil, nil, err
	}
	if len(in.AttachmentIDs) > MaxAttachments {
		return nil, nil, ErrTooManyAttachments
	}
	if in.Minutes != nil && *in.Minutes < 0 {
		return nil, nil, ErrInvalidMinutes
	}
	if !t.canAct(actor) {
		return nil, nil, ErrForbidden
	}

	staff := IsStaff(actor)
	var events []Event
	switch t.Status {
	case TicketStatusClosed:
		if staff {
			return nil, nil, ErrTicketClosed
		}
		t.Status = TicketStatusOpen
		events = append(events, t.newEvent(actor, EventReopen, now))
	case TicketStatusOpen:
		if staff {
			t.Status = TicketStatusInProgress
		}
	}
	if staff && t.AgentID == nil {
		id := actor.Account().ID
		t.AgentID = &id
	}

	comment := Comment{
		ID:            uuid.NewString(),
		TicketID:      t.ID,
		AuthorID:      actor.Account().ID,
		Content:       content,
		Minutes:       copyMinutes(in.Minutes),
		AttachmentIDs: append([]string(nil), in.AttachmentIDs...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	t.Comments = append(t.Comments, comment)
	t.Events = append(t.Events, events...)
	t.TotalMinutes = SumMinutes(t.Comments)
	t.UpdatedAt = now
	return &comment, events, nil
}

// Close moves the ticket to closed. Closing a closed ticket returns a nil event and no error.
func (t *Ticket) Close(actor Identity, now time.Time) (*Event, error) {
	if t.Status == TicketStatusArchived || !t.canAct(actor) {
		return nil, ErrForbidden
	}
	if t.Status == TicketStatusClosed {
		return nil, nil
	}
	t.Status = TicketStatusClosed
	ev := t.newEvent(actor, EventClose, now)
	t.Events = append(t.Events, ev)
	t.UpdatedAt = now
	return &ev, nil
}

// MarkInReview moves an in-progress ticket to in-review.
func (t *Ticket) MarkInReview(actor Identity, now time.Time) error {
	if t.Status != TicketStatusInProgress || !IsStaff(actor) || !t.canAct(actor) {
		return ErrForbidden
	}
	t.Status = TicketStatusInReview
	t.UpdatedAt = now
	return nil
}

// Transfer hands the ticket to another department. The assigned agent is cleared.
// Transferring to the current department is a no-op.
func (t *Ticket) Transfer(actor Identity, departmentID string, now time.Time) (*Event, error) {
	if t.Status == TicketStatusArchived || !IsStaff(actor) || !t.canAct(actor) {
		return nil, ErrForbidden
	}
	departmentID = strings.TrimSpace(departmentID)
	if departmentID == "" {
		return nil, ErrInvalidDepartment
	}
	if departmentID == t.DepartmentID {
		return nil, nil
	}
	t.DepartmentID = departmentID
	t.AgentID = nil
	ev := t.newEvent(actor, EventTransfer, now)
	t.Events = append(t.Events, ev)
	t.UpdatedAt = now
	return &ev, nil
}

// ApplyCompanyUpdate overwrites the snapshot fields that are set. Changes older than the
// last applied one are ignored; the return value reports whether anything changed.
func (t *Ticket) ApplyCompanyUpdate(name, email *string, at time.Time) bool {
	if !t.Company.SyncedAt.Before(at) {
		return false
	}
	if name != nil {
		t.Company.Name = *name
	}
	if email != nil {
		t.Company.Email = *email
	}
	t.Company.SyncedAt = at
	return true
}

// ArchiveForDeletedCompany marks the ticket archived after its company was removed.
func (t *Ticket) ArchiveForDeletedCompany(companyName string, at time.Time) bool {
	if !t.Company.SyncedAt.Before(at) {
		return false
	}
	t.Status = TicketStatusArchived
	t.Company.Name = DeletedCompanyName(companyName)
	t.Company.Deleted = true
	t.Company.SyncedAt = at
	return true
}

// DeletedCompanyName is the display name kept for a removed company.
func DeletedCompanyName(name string) string {
	return name + " (Deleted)"
}

// SumMinutes totals the tracked minutes of comments.
func SumMinutes(comments []Comment) int {
	total := 0
	for _, c := range comments {
		if c.Minutes != nil {
			total += *c.Minutes
		}
	}
	return total
}

func (t *Ticket) canAct(actor Identity) bool {
	switch a := actor.(type) {
	case Admin:
		return true
	case Agent:
		return a.InDepartment(t.DepartmentID)
	case Customer:
		return a.User.ID == t.CustomerID
	default:
		return false
	}
}

func (t *Ticket) newEvent(actor Identity, kind EventType, now time.Time) Event {
	author := actor.Account().ID
	return Event{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		AuthorID:  &author,
		Type:      kind,
		CreatedAt: now,
	}
}

func validContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(content)
	if n < MinCommentLength || n > MaxCommentLength {
		return "", ErrInvalidContent
	}
	return content, nil
}

func copyMinutes(m *int) *int {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}
