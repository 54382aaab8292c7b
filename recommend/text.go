package recommend

import (
	"fmt"
	"strings"
)

// priceDescriptor maps price sensitivity onto the wording used in profile
// text and explanations.
func priceDescriptor(sensitivity float64) string {
	switch {
	case sensitivity > 0.7:
		return "budget-conscious"
	case sensitivity < 0.3:
		return "premium-oriented"
	default:
		return "value-conscious"
	}
}

// FormatCustomerProfile renders a profile as the descriptive text handed to
// the embedding provider. Wording changes here shift every profile
// embedding, so treat the format as part of the data contract.
func FormatCustomerProfile(profile CustomerProfile) string {
	age := "unknown"
	if profile.Age > 0 {
		age = fmt.Sprintf("%d", profile.Age)
	}
	gender := profile.Gender
	if gender == "" {
		gender = "unknown"
	}
	location := profile.Location
	if location == "" {
		location = "unknown"
	}
	lifestyle := profile.Lifestyle
	if lifestyle == "" {
		lifestyle = "General consumer"
	}

	var b strings.Builder
	b.WriteString("Customer Profile:\n")
	fmt.Fprintf(&b, "Age: %s years old\n", age)
	fmt.Fprintf(&b, "Gender: %s\n", gender)
	fmt.Fprintf(&b, "Location: %s\n", location)
	fmt.Fprintf(&b, "Interests: %s\n", strings.Join(profile.Preferences, ", "))
	fmt.Fprintf(&b, "Shopping Style: %s\n", priceDescriptor(profile.PriceSensitivity))
	fmt.Fprintf(&b, "Lifestyle: %s\n", lifestyle)
	return b.String()
}

// FormatProductDescription renders a catalog entry as the descriptive text
// handed to the embedding provider. Like FormatCustomerProfile, the wording
// is part of the data contract.
func FormatProductDescription(candidate Candidate) string {
	category := candidate.Category
	if category == "" {
		category = "General"
	}
	brand := candidate.Brand
	if brand == "" {
		brand = "Generic"
	}
	features := "Standard features"
	if len(candidate.Features) > 0 {
		features = strings.Join(candidate.Features, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", candidate.Name)
	fmt.Fprintf(&b, "Category: %s - %s\n", category, candidate.Subcategory)
	fmt.Fprintf(&b, "Brand: %s\n", brand)
	fmt.Fprintf(&b, "Price: $%.2f\n", candidate.Price)
	fmt.Fprintf(&b, "Description: %s\n", candidate.Description)
	fmt.Fprintf(&b, "Features: %s\n", features)
	return b.String()
}

// TemplateExplanation builds the degraded explanation used when no
// explanation provider is configured or the provider fails.
func TemplateExplanation(profile CustomerProfile, recommendations []Recommendation) string {
	location := profile.Location
	if location == "" {
		location = "your area"
	}

	if len(profile.Preferences) > 0 {
		return fmt.Sprintf(
			"Based on your interest in %s and your profile, we've selected these highly-rated products that match your preferences. These items are popular among customers in %s and have excellent reviews.",
			strings.Join(profile.Preferences, ", "), location)
	}
	if len(recommendations) > 0 {
		return fmt.Sprintf(
			"We've selected these popular, highly-rated products that are trending among customers in %s. These items offer great value and quality.",
			location)
	}
	return "These are our top recommended products based on customer preferences and ratings."
}

// FallbackExplanation is the explanation attached to a fallback result.
func FallbackExplanation(reason string) string {
	return fmt.Sprintf("Showing popular recommendations (%s)", reason)
}
