package domain

import "time"

// TicketComment is a discussion entry on a ticket. Internal comments are
// visible to engineers and admins only.
type TicketComment struct {
	ID        string
	TicketID  string
	UserID    string
	Body      string
	Internal  bool
	CreatedAt time.Time
}

// TicketAttachment stores metadata for a file hosted by the external
// file store; the binary itself never touches the database.
type TicketAttachment struct {
	ID         string
	TicketID   string
	UploadedBy string
	FileName   string
	MimeType   string
	SizeBytes  int64
	URL        string
	CreatedAt  time.Time
}
