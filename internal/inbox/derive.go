// Package inbox derives filtered views and statistics from a message
// collection. Every function here is pure: inputs are never mutated and
// results are freshly allocated slices holding the same message pointers.
package inbox

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/augmentum/backend/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NameLocale is the collation used by the name sort.
var NameLocale = language.English

// Filter keeps messages whose status matches statusFilter ("all" matches
// every status) and which contain search, case-insensitively, in the
// name, email, company or message. An empty search matches everything.
func Filter(messages []*model.ContactMessage, search, statusFilter string) []*model.ContactMessage {
	needle := strings.ToLower(search)
	out := make([]*model.ContactMessage, 0, len(messages))
	for _, m := range messages {
		if statusFilter != model.StatusFilterAll && string(m.Status) != statusFilter {
			continue
		}
		if needle != "" && !matches(m, needle) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func matches(m *model.ContactMessage, needle string) bool {
	if strings.Contains(strings.ToLower(m.Name), needle) ||
		strings.Contains(strings.ToLower(m.Email), needle) ||
		strings.Contains(strings.ToLower(m.Message), needle) {
		return true
	}
	return m.Company != nil && strings.Contains(strings.ToLower(*m.Company), needle)
}

// Sort returns messages ordered by key. The sort is stable, so ties keep
// their input order.
//
//   - date: created_at, newest first
//   - name: ascending, locale-aware
//   - status: ascending by the status label (new < read < replied)
func Sort(messages []*model.ContactMessage, key model.SortKey) []*model.ContactMessage {
	out := slices.Clone(messages)
	switch key {
	case model.SortByName:
		// Collator は goroutine-safe ではないので呼び出しごとに生成する
		c := collate.New(NameLocale)
		slices.SortStableFunc(out, func(a, b *model.ContactMessage) int {
			return c.CompareString(a.Name, b.Name)
		})
	case model.SortByStatus:
		slices.SortStableFunc(out, func(a, b *model.ContactMessage) int {
			return strings.Compare(string(a.Status), string(b.Status))
		})
	default:
		slices.SortStableFunc(out, func(a, b *model.ContactMessage) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

// Derive applies Filter then Sort using the given view parameters.
func Derive(messages []*model.ContactMessage, p model.ViewParams) []*model.ContactMessage {
	p = p.Normalize()
	return Sort(Filter(messages, p.Search, p.Status), p.Sort)
}

// RecentWindow is how far back a message still counts as recent.
const RecentWindow = 7 * 24 * time.Hour

// ComputeStats aggregates the full collection as of now. "Today" starts at
// midnight in now's location.
func ComputeStats(messages []*model.ContactMessage, now time.Time) model.Stats {
	var s model.Stats
	s.TotalCount = len(messages)

	recentAfter := now.Add(-RecentWindow)
	y, mo, d := now.Date()
	midnight := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
	companies := make(map[string]struct{})

	for _, m := range messages {
		switch m.Status {
		case model.StatusNew:
			s.NewCount++
		case model.StatusRead:
			s.ReadCount++
		case model.StatusReplied:
			s.RepliedCount++
		}
		if m.CreatedAt.After(recentAfter) {
			s.RecentCount++
		}
		if !m.CreatedAt.Before(midnight) {
			s.TodayCount++
		}
		if c := m.CompanyName(); c != "" {
			companies[c] = struct{}{}
		}
	}

	s.PendingCount = s.NewCount + s.ReadCount
	s.UniqueCompanyCount = len(companies)
	if s.TotalCount > 0 {
		s.ResponseRatePercent = int(math.Round(float64(s.RepliedCount) / float64(s.TotalCount) * 100))
	}
	s.Trends = ClassifyTrends(s)
	return s
}

// Trend thresholds.
const (
	ExcellentResponseRate = 80
	GoodResponseRate      = 60

	// more than this many recent messages is a busy week
	BusyRecentCount = 5
)

// ClassifyTrends reads the response rate, today and recent counters of s.
func ClassifyTrends(s model.Stats) model.Trends {
	var t model.Trends
	switch {
	case s.ResponseRatePercent >= ExcellentResponseRate:
		t.Response = model.TrendExcellent
	case s.ResponseRatePercent >= GoodResponseRate:
		t.Response = model.TrendGood
	default:
		t.Response = model.TrendNeedsAttention
	}
	t.Today = model.TrendQuietDay
	if s.TodayCount > 0 {
		t.Today = model.TrendActiveDay
	}
	t.Recent = model.TrendNormal
	if s.RecentCount > BusyRecentCount {
		t.Recent = model.TrendHighActivity
	}
	return t
}
