package suggest

import "github.com/fueltank/fueltank/internal/model"

// Tips returns short saving tips for a spending category.
func Tips(c model.Category) []string {
	switch c {
	case model.CategoryFood:
		return []string{
			"Cook at home three more nights a week",
			"Plan meals before you shop",
			"Cap food delivery to weekends",
		}
	case model.CategoryTransport:
		return []string{
			"Use public transport for regular commutes",
			"Share rides where you can",
			"Combine errands into one trip",
		}
	case model.CategoryShopping:
		return []string{
			"Wait 48 hours before non-essential purchases",
			"Unsubscribe from store newsletters",
			"Set a monthly shopping cap",
		}
	case model.CategoryEntertainment:
		return []string{
			"Audit streaming subscriptions",
			"Look for free local events",
			"Set a weekly fun budget",
		}
	case model.CategoryBills:
		return []string{
			"Compare utility and phone plans",
			"Cut unused services",
		}
	case model.CategoryHealth:
		return []string{
			"Use generic medicines where available",
			"Check what your insurance already covers",
		}
	case model.CategoryEducation:
		return []string{
			"Look for free courses before paid ones",
			"Buy used or digital textbooks",
		}
	case model.CategoryOther:
		return []string{
			"Review these expenses and give them a category",
		}
	}
	return nil
}
