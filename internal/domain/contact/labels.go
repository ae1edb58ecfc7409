package contact

var serviceLabels = map[string]string{
	ServiceTaxation:  "Taxation Services",
	ServiceWebDesign: "Web Design",
	ServiceBoth:      "Both Services",
}

var budgetLabels = map[string]string{
	"under-1k": "Under $1,000",
	"1k-5k":    "$1,000 - $5,000",
	"5k-10k":   "$5,000 - $10,000",
	"10k-plus": "$10,000+",
	"not-sure": "Not sure",
}

var timelineLabels = map[string]string{
	"asap":          "ASAP",
	"1-month":       "Within 1 month",
	"2-3-months":    "2-3 months",
	"3-plus-months": "3+ months",
	"flexible":      "Flexible",
}

// ServiceLabel is the human-readable service the lead asked about.
func (s Submission) ServiceLabel() string {
	return lookup(serviceLabels, s.Service)
}

// BudgetLabel is empty when no budget was given.
func (s Submission) BudgetLabel() string {
	return lookup(budgetLabels, s.Budget)
}

// TimelineLabel is empty when no timeline was given.
func (s Submission) TimelineLabel() string {
	return lookup(timelineLabels, s.Timeline)
}

func lookup(m map[string]string, key string) string {
	if l, ok := m[key]; ok {
		return l
	}
	return key
}
