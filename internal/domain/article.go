package domain

// Article is a scraped news item as returned by the fetcher.
// Fields are plain strings and may be empty; PublishedAt is kept as displayed on the site.
type Article struct {
	Title       string
	Author      string
	PublishedAt string
	Body        string
	URL         string
}

// SentimentScore holds affect scores as reported by the sentiment backend.
type SentimentScore struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// TopicSet keeps extracted terms in source order, duplicates included.
type TopicSet struct {
	Terms []string `json:"terms"`
}

// GeneratedContent is derived text together with the backend that produced it.
type GeneratedContent struct {
	Text    string `json:"text"`
	Backend string `json:"backend"`
}

// SEOKeywords is a sorted set of suggested metadata keywords.
type SEOKeywords struct {
	Terms []string `json:"terms"`
}

// ContactBundle groups contact identifiers found for a site.
type ContactBundle struct {
	Domain  string   `json:"domain"`
	Emails  []string `json:"emails"`
	Handles []string `json:"handles"`
}

// MonetizationOffer pairs a selected opportunity with a proposal message.
type MonetizationOffer struct {
	OpportunityID string `json:"opportunityId"`
	ProposalText  string `json:"proposalText"`
}
