// Package models defines the typed schema for every document collection the
// firm keeps in the hosted document store. Documents arrive as loose field
// bags; they are decoded into these types at the client boundary and never
// passed around untyped.
package models

import (
	"math"
	"strconv"
)

// LeadStatus is the CRM pipeline stage of a lead.
type LeadStatus string

const (
	LeadNew         LeadStatus = "new"
	LeadContacted   LeadStatus = "contacted"
	LeadNegotiating LeadStatus = "negotiating"
	LeadContracted  LeadStatus = "contracted"
	LeadClosed      LeadStatus = "closed"
)

// ValidLeadStatus reports whether s is a known pipeline stage.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadNew, LeadContacted, LeadNegotiating, LeadContracted, LeadClosed:
		return true
	}
	return false
}

// TimelineEvent is a milestone on a lead's case timeline.
type TimelineEvent struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsCompleted bool   `json:"isCompleted"`
}

// CaseFile is the client-facing view of a stored case document.
type CaseFile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Type       string `json:"type"`
	FileSize   string `json:"fileSize,omitempty"`
	UploadDate string `json:"uploadDate,omitempty"`
}

// Lead is a prospective or active client in the `leads` collection.
type Lead struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email,omitempty"`
	Category     string          `json:"category,omitempty"`
	Details      string          `json:"details"`
	Status       LeadStatus      `json:"status"`
	AISummary    string          `json:"aiSummary,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	IsNotePublic bool            `json:"isNotePublic"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
	Timeline     []TimelineEvent `json:"timeline,omitempty"`
	Files        []CaseFile      `json:"files,omitempty"`
}

// StoredFile is the full `case_files` record, including vault metadata the
// client never sees.
type StoredFile struct {
	ID          string `json:"id"`
	LeadID      string `json:"leadId"`
	LeadPhone   string `json:"leadPhone"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	FileType    string `json:"fileType"`
	StoragePath string `json:"storagePath"`
	URL         string `json:"url"`
	Checksum    string `json:"checksum"`
	UploadedAt  string `json:"uploadedAt"`
	UploadedBy  string `json:"uploadedBy"`
	IsArchived  bool   `json:"isArchived"`
}

// NewsItem is an article in the `news` collection.
type NewsItem struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Date        string   `json:"date"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image,omitempty"`
	FullContent []string `json:"fullContent,omitempty"`
	Author      string   `json:"author,omitempty"`
	ReadingTime string   `json:"readingTime,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CaseStudy is a published case portfolio entry in the `cases` collection.
type CaseStudy struct {
	ID            string   `json:"id"`
	Category      string   `json:"category"`
	CategoryLabel string   `json:"categoryLabel"`
	Title         string   `json:"title"`
	Year          string   `json:"year"`
	Impact        string   `json:"impact"`
	Description   string   `json:"description"`
	FullContent   []string `json:"fullContent,omitempty"`
	MainImage     string   `json:"mainImage,omitempty"`
	Gallery       []string `json:"gallery,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
}

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceUnpaid  InvoiceStatus = "unpaid"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// ValidInvoiceStatus reports whether s is a known payment state.
func ValidInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceUnpaid, InvoicePaid, InvoiceOverdue:
		return true
	}
	return false
}

// InvoiceItem is a single billed line.
type InvoiceItem struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Invoice is a billing record in the `invoices` collection.
type Invoice struct {
	ID         string        `json:"id"`
	LeadID     string        `json:"leadId"`
	ClientName string        `json:"clientName"`
	Amount     float64       `json:"amount"`
	Status     InvoiceStatus `json:"status"`
	Items      []InvoiceItem `json:"items"`
	Date       string        `json:"date"`
}

// ActivityLog is one entry in the back-office audit trail collection.
type ActivityLog struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Action    string `json:"action"`
	TargetID  string `json:"targetId"`
	Timestamp string `json:"timestamp"`
}

// AdminUser is an entry in the `admins` collection. Only UIDs present there
// may hold a back-office session.
type AdminUser struct {
	ID    string `json:"id"`
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// EmailType classifies outbound firm mail.
type EmailType string

const (
	EmailMilestone EmailType = "milestone"
	EmailVault     EmailType = "vault"
	EmailBroadcast EmailType = "broadcast"
)

// EmailRecord is a dispatched (or recorded-only) message in `sent_emails`.
type EmailRecord struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Type      EmailType `json:"type"`
	CanReply  bool      `json:"canReply"`
	Timestamp string    `json:"timestamp"`
}

// Subscriber is a newsletter recipient in the `subscribers` collection.
type Subscriber struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// FormatFileSize renders a byte count the way the tracker displays it.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	size = math.Round(size*100) / 100
	return strconv.FormatFloat(size, 'f', -1, 64) + " " + units[i]
}
