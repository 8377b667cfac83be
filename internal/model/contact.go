package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle tag of a contact message.
type Status string

const (
	StatusNew     Status = "new"
	StatusRead    Status = "read"
	StatusReplied Status = "replied"
)

// StatusFilterAll matches every status in list filters.
const StatusFilterAll = "all"

// ParseStatus validates s as one of new/read/replied.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNew, StatusRead, StatusReplied:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// legalTransitions is the strict lifecycle used when transitions are enforced.
var legalTransitions = map[Status][]Status{
	StatusNew:  {StatusRead, StatusReplied},
	StatusRead: {StatusReplied},
}

// CanTransitionTo reports whether s -> next is part of the strict lifecycle.
// Setting a status to its current value is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, st := range legalTransitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// TransitionError is returned when strict transitions are enabled and an
// operator asks for a move outside the lifecycle (e.g. replied -> new).
type TransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("message %s: illegal status transition %s -> %s", e.ID, e.From, e.To)
}

// ContactMessage represents a message submitted via the contact form.
type ContactMessage struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Company   *string    `json:"company"`
	Message   string     `json:"message"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CompanyName returns the company or "" when none was given.
func (m *ContactMessage) CompanyName() string {
	if m.Company == nil {
		return ""
	}
	return *m.Company
}

// Clone returns a deep copy of m.
func (m *ContactMessage) Clone() *ContactMessage {
	c := *m
	if m.Company != nil {
		v := *m.Company
		c.Company = &v
	}
	if m.UpdatedAt != nil {
		v := *m.UpdatedAt
		c.UpdatedAt = &v
	}
	return &c
}

// SortKey selects the ordering of a derived message view.
type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByName   SortKey = "name"
	SortByStatus SortKey = "status"
)

// ParseSortKey maps unknown or empty keys to SortByDate.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortByName, SortByStatus:
		return k
	}
	return SortByDate
}

// ViewParams are the transient view parameters of the dashboard.
type ViewParams struct {
	Search string  `json:"search"`
	Status string  `json:"status"` // "all" or a Status value
	Sort   SortKey `json:"sort"`
}

// DefaultViewParams returns {"" , all, date}.
func DefaultViewParams() ViewParams {
	return ViewParams{Search: "", Status: StatusFilterAll, Sort: SortByDate}
}

// Normalize fills empty fields with their defaults.
func (p ViewParams) Normalize() ViewParams {
	if p.Status == "" {
		p.Status = StatusFilterAll
	}
	p.Sort = ParseSortKey(string(p.Sort))
	return p
}

// Stats are the aggregate counters shown above the inbox.
type Stats struct {
	TotalCount          int    `json:"total_count"`
	NewCount            int    `json:"new_count"`
	ReadCount           int    `json:"read_count"`
	RepliedCount        int    `json:"replied_count"`
	PendingCount        int    `json:"pending_count"`
	ResponseRatePercent int    `json:"response_rate_percent"`
	RecentCount         int    `json:"recent_count"`
	TodayCount          int    `json:"today_count"`
	UniqueCompanyCount  int    `json:"unique_company_count"`
	Trends              Trends `json:"trends"`
}

// Trends are the one-word readings shown under the counters.
type Trends struct {
	Response string `json:"response"`
	Today    string `json:"today"`
	Recent   string `json:"recent"`
}

const (
	TrendExcellent      = "Excellent"
	TrendGood           = "Good"
	TrendNeedsAttention = "Needs attention"
	TrendActiveDay      = "Active day"
	TrendQuietDay       = "Quiet day"
	TrendHighActivity   = "High activity"
	TrendNormal         = "Normal"
)
