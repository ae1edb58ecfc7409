package pricing

import "aurora/internal/domain/service"

// defaultTiers is the catalogue used to seed an empty store and as the
// public page's fallback when the store is unreachable or empty.
var defaultTiers = []Tier{
	{
		Name:        "Personal Tax",
		Icon:        IconFileText,
		Price:       150,
		Description: "Complete personal tax filing for individuals",
		Color:       ColorBlue,
		Features: []string{
			"T1 personal tax return",
			"BC-specific tax credits",
			"CRA correspondence support",
			"Tax planning consultation",
		},
		ServiceType: service.Taxation,
	},
	{
		Name:        "Small Business",
		Icon:        IconCalculator,
		Price:       500,
		Description: "Comprehensive tax services for small businesses",
		Color:       ColorGreen,
		Features: []string{
			"T2 corporate tax return",
			"GST/PST filing",
			"Payroll setup & management",
			"Business expense optimization",
		},
		Popular:     true,
		ServiceType: service.Taxation,
	},
	{
		Name:        "Premium Package",
		Icon:        IconShield,
		Price:       1200,
		Description: "Complete tax management for growing businesses",
		Color:       ColorPurple,
		Features: []string{
			"All Small Business features",
			"Monthly bookkeeping",
			"Quarterly tax planning",
			"CRA representation",
		},
		ServiceType: service.Taxation,
	},
	{
		Name:        "Basic Website",
		Icon:        IconGlobe,
		Price:       2500,
		Description: "Professional website for small businesses",
		Color:       ColorBlue,
		Features: []string{
			"5-page responsive website",
			"Contact form",
			"Basic SEO setup",
			"Google Analytics",
		},
		ServiceType: service.WebDesign,
	},
	{
		Name:        "Professional",
		Icon:        IconShield,
		Price:       5000,
		Description: "Feature-rich website with advanced functionality",
		Color:       ColorGreen,
		Features: []string{
			"10-page responsive website",
			"Custom design system",
			"Advanced SEO optimization",
			"Content management system",
		},
		Popular:     true,
		ServiceType: service.WebDesign,
	},
	{
		Name:        "Enterprise",
		Icon:        IconCalculator,
		Price:       10000,
		Description: "Full-service digital transformation",
		Color:       ColorPurple,
		Features: []string{
			"Unlimited pages",
			"E-commerce integration",
			"Custom functionality",
			"Ongoing support",
		},
		ServiceType: service.WebDesign,
	},
}

// Defaults returns fresh copies of the built-in tiers for one service line.
// An empty st returns every built-in tier.
func Defaults(st service.Type) []Tier {
	var out []Tier
	for _, t := range defaultTiers {
		if st == "" || t.ServiceType == st {
			out = append(out, t.Clone())
		}
	}
	return out
}
