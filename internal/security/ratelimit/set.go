package ratelimit

import "time"

// Policy is a named (maxRequests, window) pair.
type Policy struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// One limiter per abuse surface. Exhausting one must not affect another, so
// each gets its own registry.
var (
	PolicyLogin        = Policy{Name: "login", MaxRequests: 5, Window: 15 * time.Minute}
	PolicyCaseTracking = Policy{Name: "case_tracking", MaxRequests: 10, Window: time.Minute}
	PolicyContactForm  = Policy{Name: "contact_form", MaxRequests: 5, Window: time.Hour}
	PolicyFileUpload   = Policy{Name: "file_upload", MaxRequests: 10, Window: time.Hour}
	PolicyAIGeneration = Policy{Name: "ai_generation", MaxRequests: 5, Window: time.Hour}
	PolicyAPI          = Policy{Name: "api", MaxRequests: 30, Window: time.Minute}
)

// Set bundles the limiter instances the service runs with. Constructed once
// at startup and passed by reference; nothing ever reaches module-level
// limiter state.
type Set struct {
	Login        Limiter
	CaseTracking Limiter
	ContactForm  Limiter
	FileUpload   Limiter
	AIGeneration Limiter
	API          Limiter
}

// NewSet builds the six in-memory limiters with their fixed policies.
func NewSet(opts ...Option) *Set {
	build := func(p Policy) Limiter { return New(p.MaxRequests, p.Window, opts...) }
	return &Set{
		Login:        build(PolicyLogin),
		CaseTracking: build(PolicyCaseTracking),
		ContactForm:  build(PolicyContactForm),
		FileUpload:   build(PolicyFileUpload),
		AIGeneration: build(PolicyAIGeneration),
		API:          build(PolicyAPI),
	}
}

// ClearAll drops every key in every limiter. Used at test teardown and by
// the admin reset endpoint.
func (s *Set) ClearAll() {
	for _, l := range s.all() {
		l.Clear()
	}
}

// ByName returns the limiter for a policy name, nil when unknown.
func (s *Set) ByName(name string) Limiter {
	switch name {
	case PolicyLogin.Name:
		return s.Login
	case PolicyCaseTracking.Name:
		return s.CaseTracking
	case PolicyContactForm.Name:
		return s.ContactForm
	case PolicyFileUpload.Name:
		return s.FileUpload
	case PolicyAIGeneration.Name:
		return s.AIGeneration
	case PolicyAPI.Name:
		return s.API
	}
	return nil
}

func (s *Set) all() []Limiter {
	return []Limiter{s.Login, s.CaseTracking, s.ContactForm, s.FileUpload, s.AIGeneration, s.API}
}
