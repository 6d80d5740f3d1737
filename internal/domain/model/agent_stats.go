package model

import "time"

// AgentActivity is one calendar day's productivity bucket.
type AgentActivity struct {
	Date string // YYYY-MM-DD
	Paid int
	Free int
}

// AgentStats accumulates billed minutes per agent. ActivityData is
// append-only with at most one entry per date, created lazily by the first
// usage commit of that day.
type AgentStats struct {
	AgentID      string
	PaidMinutes  int
	FreeMinutes  int
	ActivityData []AgentActivity
}

func NewAgentStats(agentID string) *AgentStats {
	return &AgentStats{AgentID: agentID}
}

// ActivityDate is the bucket key format for a commit instant.
func ActivityDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// Record adds a usage split to the cumulative totals and to the bucket for
// the given date.
func (s *AgentStats) Record(date string, split UsageSplit) {
	s.PaidMinutes += split.PaidMinutesUsed
	s.FreeMinutes += split.FreeMinutesUsed
	for i := range s.ActivityData {
		if s.ActivityData[i].Date == date {
			s.ActivityData[i].Paid += split.PaidMinutesUsed
			s.ActivityData[i].Free += split.FreeMinutesUsed
			return
		}
	}
	s.ActivityData = append(s.ActivityData, AgentActivity{
		Date: date,
		Paid: split.PaidMinutesUsed,
		Free: split.FreeMinutesUsed,
	})
}
