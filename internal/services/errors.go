package services

import "errors"

// Errors the handler layer turns into user-facing responses.
var (
	// ErrThrottled means a local rate limiter denied the operation. The
	// handler pairs it with the limiter's reset time for the retry hint.
	ErrThrottled = errors.New("too many attempts")
	// ErrInvalidInput means validation rejected the submission.
	ErrInvalidInput = errors.New("invalid input")
)

// Collection names in the hosted document store.
const (
	collLeads       = "leads"
	collNews        = "news"
	collCases       = "cases"
	collInvoices    = "invoices"
	collActivity    = "activity_logs"
	collSentEmails  = "sent_emails"
	collSubscribers = "subscribers"
	collCaseFiles   = "case_files"
)
