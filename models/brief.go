package models

// ContentBrief is the structured description of a business produced by the
// content-analysis stage. Only Business.Name and at least one Section are
// required; everything else is best-effort.
type ContentBrief struct {
	Business               BusinessInfo   `json:"business"`
	Tone                   string         `json:"tone,omitempty"`
	Sections               []Section      `json:"sections"`
	Images                 []CatalogImage `json:"images,omitempty"`
	Videos                 []string       `json:"videos,omitempty"`
	Contact                ContactInfo    `json:"contact"`
	Niche                  NicheVerdict   `json:"niche"`
	TemplateRecommendation string         `json:"templateRecommendation,omitempty"`
	BrandColors            []string       `json:"brandColors,omitempty"`

	Statistics   []Statistic   `json:"statistics,omitempty"`
	People       []Person      `json:"people,omitempty"`
	Testimonials []Testimonial `json:"testimonials,omitempty"`
	Services     []Service     `json:"services,omitempty"`
	Pricing      []PricingPlan `json:"pricing,omitempty"`
	FAQ          []FAQEntry    `json:"faq,omitempty"`
}

type BusinessInfo struct {
	Name        string `json:"name"`
	Tagline     string `json:"tagline,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Section is one content block of the brief. ImageIndexes refer to the image
// catalog indices given to the analysis prompt.
type Section struct {
	ID           string `json:"id,omitempty"`
	Title        string `json:"title"`
	Kind         string `json:"type,omitempty"`
	Content      string `json:"content"`
	ImageIndexes []int  `json:"imageIndexes,omitempty"`
}

// CatalogImage is an image chosen for the site, with a placement hint and a
// priority rank (1 = most important).
type CatalogImage struct {
	Index     int    `json:"index"`
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	Placement string `json:"placement,omitempty"`
	Priority  int    `json:"priority,omitempty"`
}

type ContactInfo struct {
	Phone   string   `json:"phone,omitempty"`
	Email   string   `json:"email,omitempty"`
	Address string   `json:"address,omitempty"`
	Hours   string   `json:"hours,omitempty"`
	Socials []string `json:"socials,omitempty"`
}

// NicheVerdict records whether the business matches a predefined niche
// template.
type NicheVerdict struct {
	Detected   bool    `json:"detected"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type Statistic struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Person struct {
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Bio        string `json:"bio,omitempty"`
	ImageIndex *int   `json:"imageIndex,omitempty"`
}

type Testimonial struct {
	Quote  string  `json:"quote"`
	Author string  `json:"author,omitempty"`
	Rating float64 `json:"rating,omitempty"`
}

type Service struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
}

type PricingPlan struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Features []string `json:"features,omitempty"`
}

type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
