package aggregate

import (
	"sort"
	"strings"
	"sync"

	"github.com/0xmhha/usage-ledger/pkg/event"
)

// store implements the Store interface.
type store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// sessionState is the mutable accumulator behind a SessionAggregate.
type sessionState struct {
	projectName  string
	usage        event.Usage
	totalCost    float64
	lastActivity string
	models       map[string]struct{}
}

// NewStore creates an empty aggregation store.
//
// The store is safe for concurrent Apply calls; the sequential ingest
// pass simply never contends.
func NewStore() Store {
	return &store{
		sessions: make(map[string]*sessionState),
	}
}

// Apply implements Store.Apply.
func (s *store) Apply(ev *event.UsageEvent, costUSD float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[ev.SessionKey]
	if !ok {
		st = &sessionState{
			projectName: ProjectName(ev.SessionKey),
			models:      make(map[string]struct{}),
		}
		s.sessions[ev.SessionKey] = st
	}

	st.usage.InputTokens += ev.Usage.InputTokens
	st.usage.OutputTokens += ev.Usage.OutputTokens
	st.usage.CacheCreationTokens += ev.Usage.CacheCreationTokens
	st.usage.CacheReadTokens += ev.Usage.CacheReadTokens
	st.totalCost += costUSD

	if ev.Model != "" {
		st.models[ev.Model] = struct{}{}
	}

	if date := ev.Date(); date != UnknownDate && date > st.lastActivity {
		st.lastActivity = date
	}
}

// Sessions implements Store.Sessions.
func (s *store) Sessions() []SessionAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionAggregate, 0, len(s.sessions))
	for key, st := range s.sessions {
		out = append(out, st.snapshot(key))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivityDate != out[j].LastActivityDate {
			return out[i].LastActivityDate > out[j].LastActivityDate
		}
		return out[i].SessionKey < out[j].SessionKey
	})

	return out
}

// Daily implements Store.Daily.
func (s *store) Daily() []DailyBreakdown {
	sessions := s.Sessions()

	byDate := make(map[string][]SessionAggregate)
	for _, sess := range sessions {
		byDate[sess.LastActivityDate] = append(byDate[sess.LastActivityDate], sess)
	}

	out := make([]DailyBreakdown, 0, len(byDate))
	for date, group := range byDate {
		day := DailyBreakdown{Date: date, TotalSessions: len(group)}

		byProject := make(map[string]*ProjectRollup)
		for _, sess := range group {
			pr, ok := byProject[sess.ProjectName]
			if !ok {
				pr = &ProjectRollup{Project: sess.ProjectName}
				byProject[sess.ProjectName] = pr
			}
			pr.Sessions++
			pr.TotalCost += sess.TotalCost
			pr.TotalTokens += sess.Usage.Total()

			day.TotalCost += sess.TotalCost
			day.TotalTokens += sess.Usage.Total()
		}

		day.Projects = make([]ProjectRollup, 0, len(byProject))
		for _, pr := range byProject {
			day.Projects = append(day.Projects, *pr)
		}
		sort.Slice(day.Projects, func(i, j int) bool {
			if day.Projects[i].TotalCost != day.Projects[j].TotalCost {
				return day.Projects[i].TotalCost > day.Projects[j].TotalCost
			}
			return day.Projects[i].Project < day.Projects[j].Project
		})

		out = append(out, day)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})

	return out
}

// Monthly implements Store.Monthly.
func (s *store) Monthly() []MonthlyRollup {
	byMonth := make(map[string]*MonthlyRollup)

	for _, day := range s.Daily() {
		if day.Date == UnknownDate {
			continue
		}
		month := day.Date[:7]

		mr, ok := byMonth[month]
		if !ok {
			mr = &MonthlyRollup{Month: month}
			byMonth[month] = mr
		}
		mr.TotalCost += day.TotalCost
		mr.TotalSessions += day.TotalSessions
		mr.TotalTokens += day.TotalTokens
	}

	out := make([]MonthlyRollup, 0, len(byMonth))
	for _, mr := range byMonth {
		out = append(out, *mr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})

	return out
}

// Len implements Store.Len.
func (s *store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// snapshot converts mutable state into an exported aggregate.
func (st *sessionState) snapshot(key string) SessionAggregate {
	models := make([]string, 0, len(st.models))
	for m := range st.models {
		models = append(models, m)
	}
	sort.Strings(models)

	last := st.lastActivity
	if last == "" {
		last = UnknownDate
	}

	return SessionAggregate{
		SessionKey:       key,
		ProjectName:      st.projectName,
		Usage:            st.usage,
		TotalCost:        st.totalCost,
		LastActivityDate: last,
		ModelsUsed:       models,
	}
}

// ProjectName extracts a readable project name from a session key.
//
// Session directories encode the project working directory with dashes
// ("-home-user-projects-myapp"); the final component is the project.
// Keys without the leading dash fall back to their last path segment.
func ProjectName(sessionKey string) string {
	if strings.HasPrefix(sessionKey, "-") {
		parts := strings.Split(strings.TrimPrefix(sessionKey, "-"), "-")
		for i := len(parts) - 1; i >= 0; i-- {
			if parts[i] != "" {
				return parts[i]
			}
		}
		return UnknownDate
	}

	if idx := strings.LastIndex(sessionKey, "/"); idx >= 0 {
		return sessionKey[idx+1:]
	}
	if sessionKey == "" {
		return UnknownDate
	}
	return sessionKey
}
