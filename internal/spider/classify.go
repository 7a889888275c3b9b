package spider

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"go-jobspider/internal/config"
	"go-jobspider/internal/models"
)

type sectionKind int

const (
	sectionResponsibilities sectionKind = iota
	sectionRequirements
	sectionAboutUs
	sectionNotes
	sectionUnclassified
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\(?(?:\+?61[\s-]?|0)\(?[2-478]\)?(?:[\s-]?\d){8}|\b1[38]00(?:[\s-]?\d){6}\b`)
	namePattern  = regexp.MustCompile(`(?i:contact(?:\s+person|\s+officer)?|enquiries(?:\s+to)?)\s*:?\s*((?:Mr|Mrs|Ms|Dr)\.?\s+)?([A-Z][a-z]+(?:[\s'-][A-Z][a-z]+){1,3})`)
	titleSplit   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// contactWindow bounds how much text after a contact marker is searched.
const contactWindow = 600

var titleStopwords = map[string]bool{
	"with": true, "from": true, "into": true, "temporary": true, "ongoing": true,
	"casual": true, "full": true, "part": true, "time": true, "term": true,
	"fixed": true, "multiple": true, "roles": true, "positions": true,
	"grade": true, "level": true, "band": true, "class": true,
}

// classifier holds the compiled keyword tables.
type classifier struct {
	sections         [4]phraseMatcher
	keepUnclassified bool
	headingFirst     bool

	labelReference phraseMatcher
	labelJobType   phraseMatcher
	labelLocation  phraseMatcher
	labelAgency    phraseMatcher

	contactMarkers []string

	primaryDocs   phraseMatcher
	secondaryDocs phraseMatcher
	roleContext   []string
}

func newClassifier(k config.Keywords) *classifier {
	markers := make([]string, 0, len(k.ContactMarkers))
	for _, m := range k.ContactMarkers {
		if m = normalizeText(m); m != "" {
			markers = append(markers, m)
		}
	}
	return &classifier{
		sections: [4]phraseMatcher{
			sectionResponsibilities: newPhraseMatcher(k.Responsibilities),
			sectionRequirements:     newPhraseMatcher(k.Requirements),
			sectionAboutUs:          newPhraseMatcher(k.AboutUs),
			sectionNotes:            newPhraseMatcher(k.Notes),
		},
		keepUnclassified: k.KeepUnclassified,
		headingFirst:     k.HeadingFirst,
		labelReference:   newPhraseMatcher(k.LabelReference),
		labelJobType:     newPhraseMatcher(k.LabelJobType),
		labelLocation:    newPhraseMatcher(k.LabelLocation),
		labelAgency:      newPhraseMatcher(k.LabelAgency),
		contactMarkers:   markers,
		primaryDocs:      newPhraseMatcher(k.PrimaryDocuments),
		secondaryDocs:    newPhraseMatcher(k.SecondaryDocuments),
		roleContext:      k.RoleContext,
	}
}

// classifySection returns the first category whose keywords occur in the
// section. With headingFirst the first line is tried on its own before the
// whole section.
func (c *classifier) classifySection(section string) sectionKind {
	texts := []string{normalizeText(section)}
	if c.headingFirst {
		heading, _, _ := strings.Cut(section, "\n")
		texts = append([]string{normalizeText(heading)}, texts...)
	}
	for _, text := range texts {
		for kind, m := range c.sections {
			if m.matches(text) {
				return sectionKind(kind)
			}
		}
	}
	return sectionUnclassified
}

// applySections fills the section fields of d from its description.
// Unclassified sections are dropped unless keepUnclassified is set.
func (c *classifier) applySections(d *models.JobDetails) {
	var about []string
	for _, section := range splitSections(d.Description) {
		switch c.classifySection(section) {
		case sectionResponsibilities:
			d.Responsibilities = append(d.Responsibilities, section)
		case sectionRequirements:
			d.Requirements = append(d.Requirements, section)
		case sectionAboutUs:
			about = append(about, section)
		case sectionNotes:
			d.Notes = append(d.Notes, section)
		default:
			if c.keepUnclassified {
				d.Notes = append(d.Notes, section)
			}
		}
	}
	d.AboutUs = strings.Join(about, "\n\n")
}

// summaryField maps a summary table label to the field it fills.
func (c *classifier) summaryField(label string) string {
	label = strings.TrimSuffix(normalizeText(label), ":")
	switch {
	case c.labelReference.matches(label):
		return "reference"
	case c.labelJobType.matches(label):
		return "jobType"
	case c.labelLocation.matches(label):
		return "location"
	case c.labelAgency.matches(label):
		return "agency"
	}
	return ""
}

// contactText returns the part of the description that starts at the
// earliest contact marker, or "" when there is none.
func (c *classifier) contactText(description string) string {
	lower := strings.ToLower(description)
	start := -1
	for _, m := range c.contactMarkers {
		if i := strings.Index(lower, m); i >= 0 && (start < 0 || i < start) {
			start = i
		}
	}
	if start < 0 || start >= len(description) {
		return ""
	}
	text := description[start:]
	if len(text) > contactWindow {
		text = text[:contactWindow]
	}
	return text
}

// extractContact pulls name, phone and email independently.
func (c *classifier) extractContact(description string) models.ContactDetails {
	text := c.contactText(description)
	if text == "" {
		return models.ContactDetails{}
	}
	var contact models.ContactDetails
	if m := namePattern.FindStringSubmatch(text); m != nil {
		contact.Name = strings.TrimSpace(m[1] + m[2])
	}
	if m := phonePattern.FindString(text); m != "" {
		contact.Phone = strings.TrimSpace(m)
	}
	if m := emailPattern.FindString(text); m != "" {
		contact.Email = strings.TrimRight(m, ".")
	}
	return contact
}

// pageLink is an anchor with the text around it.
type pageLink struct {
	URL        string
	Text       string
	ParentText string
}

// classifyDocuments keeps links whose text or parent text names a role
// document, or names a generic pack together with a role-context term.
// Title tokens of the listing count as extra role-context terms.
func (c *classifier) classifyDocuments(links []pageLink, jobTitle string) []models.JobDocument {
	role := newPhraseMatcher(append(append([]string(nil), c.roleContext...), titleTokens(jobTitle)...))

	docs := []models.JobDocument{}
	seen := make(map[string]bool)
	for _, l := range links {
		if seen[l.URL] {
			continue
		}
		hay := normalizeText(l.Text + " " + l.ParentText)
		if !c.primaryDocs.matches(hay) && !(c.secondaryDocs.matches(hay) && role.matches(hay)) {
			continue
		}
		seen[l.URL] = true
		title := l.Text
		if title == "" {
			title = l.ParentText
		}
		docs = append(docs, models.JobDocument{URL: l.URL, Title: title, Type: inferDocumentType(l.URL)})
	}
	return docs
}

func titleTokens(title string) []string {
	var out []string
	for _, tok := range titleSplit.Split(normalizeText(title), -1) {
		if len([]rune(tok)) >= 4 && !titleStopwords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// inferDocumentType looks at the URL path extension only.
func inferDocumentType(raw string) models.DocumentType {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return models.DocumentPDF
	case ".doc":
		return models.DocumentDOC
	case ".docx":
		return models.DocumentDOCX
	}
	return models.DocumentUnknown
}
