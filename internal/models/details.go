package models

// DocumentType is inferred from the file extension of a document URL.
type DocumentType string

const (
	DocumentPDF     DocumentType = "pdf"
	DocumentDOC     DocumentType = "doc"
	DocumentDOCX    DocumentType = "docx"
	DocumentUnknown DocumentType = "unknown"
)

type JobDocument struct {
	URL   string       `json:"url"`
	Title string       `json:"title,omitempty"`
	Type  DocumentType `json:"type"`
}

// ContactDetails fields are extracted independently; any of them may be empty.
type ContactDetails struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// JobDetails is a listing enriched from its detail page. Agency, Location and
// JobReference are overwritten with detail page values when those exist.
type JobDetails struct {
	JobListing
	JobType          string         `json:"jobType,omitempty"`
	Description      string         `json:"description"`
	Responsibilities []string       `json:"responsibilities"`
	Requirements     []string       `json:"requirements"`
	Notes            []string       `json:"notes"`
	AboutUs          string         `json:"aboutUs,omitempty"`
	Contact          ContactDetails `json:"contact"`
	Documents        []JobDocument  `json:"documents"`
}

// RawLink is any anchor found on a detail page.
type RawLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// RawDetails carries every unfiltered link next to the extracted details.
// It exists for debugging captures only.
type RawDetails struct {
	JobDetails
	AllLinks []RawLink `json:"allLinks"`
}
