package models

const DefaultSalary = "Not specified"

// JobListing is one summary card from the search results page.
//
// ID and URL are the canonical fields. JobID and JobURL are read-only aliases
// kept for fixtures written by older captures; never populate them, read
// through Key and DetailURL instead.
type JobListing struct {
	ID           string `json:"id,omitempty"`
	JobID        string `json:"jobId,omitempty"`
	Title        string `json:"title"`
	Agency       string `json:"agency"`
	Location     string `json:"location"`
	Salary       string `json:"salary"`
	PostedDate   string `json:"postedDate"`
	ClosingDate  string `json:"closingDate"`
	URL          string `json:"url,omitempty"`
	JobURL       string `json:"jobUrl,omitempty"`
	JobReference string `json:"jobReference"`
}

// Key returns the listing identifier, falling back to the jobId alias.
func (l JobListing) Key() string {
	if l.ID != "" {
		return l.ID
	}
	return l.JobID
}

// DetailURL returns the detail page URL, falling back to the jobUrl alias.
func (l JobListing) DetailURL() string {
	if l.URL != "" {
		return l.URL
	}
	return l.JobURL
}
