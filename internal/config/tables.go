package config

// Selectors lists, for each field, CSS selectors tried in order; the first
// non-empty match wins. Markup drift is handled by editing the YAML file.
type Selectors struct {
	ResultCard   []string `yaml:"result_card"`
	Title        []string `yaml:"title"`
	Link         []string `yaml:"link"`
	Agency       []string `yaml:"agency"`
	Location     []string `yaml:"location"`
	Salary       []string `yaml:"salary"`
	PostedDate   []string `yaml:"posted_date"`
	ClosingDate  []string `yaml:"closing_date"`
	JobReference []string `yaml:"job_reference"`
	IDAttributes []string `yaml:"id_attributes"`

	PageSize []string `yaml:"page_size"`
	SortDate []string `yaml:"sort_date"`
	NextPage []string `yaml:"next_page"`

	SummaryRow  []string `yaml:"summary_row"`
	Description []string `yaml:"description"`
}

// Keywords holds the classification vocabularies. Matching is
// case-insensitive and accent-insensitive.
type Keywords struct {
	Responsibilities []string `yaml:"responsibilities"`
	Requirements     []string `yaml:"requirements"`
	AboutUs          []string `yaml:"about_us"`
	Notes            []string `yaml:"notes"`
	// KeepUnclassified routes sections matching no category into Notes.
	KeepUnclassified bool `yaml:"keep_unclassified"`
	// HeadingFirst classifies by the first line of a section before the body.
	HeadingFirst bool `yaml:"heading_first"`

	LabelAgency    []string `yaml:"label_agency"`
	LabelJobType   []string `yaml:"label_job_type"`
	LabelLocation  []string `yaml:"label_location"`
	LabelReference []string `yaml:"label_reference"`

	ContactMarkers []string `yaml:"contact_markers"`

	PrimaryDocuments   []string `yaml:"primary_documents"`
	SecondaryDocuments []string `yaml:"secondary_documents"`
	RoleContext        []string `yaml:"role_context"`
}

func (s Selectors) withDefaults() Selectors {
	orDefault(&s.ResultCard, ".job-search-result", "article.job-card", ".job-item", "li.job-listing")
	orDefault(&s.Title, "h2 a", "h3 a", ".job-title a", ".job-title", "a.job-link")
	orDefault(&s.Link, "h2 a[href]", "h3 a[href]", ".job-title a[href]", "a.job-link[href]", "a[href*='/job/']")
	orDefault(&s.Agency, ".job-agency", ".agency", ".organisation", "[data-field='agency']")
	orDefault(&s.Location, ".job-location", ".location", "[data-field='location']")
	orDefault(&s.Salary, ".job-salary", ".salary", ".remuneration", "[data-field='salary']")
	orDefault(&s.PostedDate, ".job-posted", ".posted-date", ".date-posted", "[data-field='posted']")
	orDefault(&s.ClosingDate, ".job-closing", ".closing-date", ".date-closing", "[data-field='closing']")
	orDefault(&s.JobReference, ".job-reference", ".reference", "[data-field='reference']")
	orDefault(&s.IDAttributes, "data-job-id", "data-id", "id")

	orDefault(&s.PageSize, "select#pageSize", "select[name='pagesize']", "select[name='pageSize']", "select.page-size")
	orDefault(&s.SortDate, "a[data-sort='date']", "button[data-sort='date']", "a.sort-date", "#sortByDate")
	orDefault(&s.NextPage, "a[rel='next']", "li.next a", "a.next", ".pagination-next a", "button.next")

	orDefault(&s.SummaryRow, "table.job-summary tr", ".job-details table tr", ".job-detail-summary tr", "table tr")
	orDefault(&s.Description, "#job-description", ".job-detail-des", ".job-description", "article .content")
	return s
}

func (k Keywords) withDefaults() Keywords {
	orDefault(&k.Responsibilities, "responsibilities", "key accountabilities", "about the role", "what you'll do", "your role", "the role", "duties")
	orDefault(&k.Requirements, "requirements", "essential requirements", "selection criteria", "skills and experience", "what you'll bring", "qualifications", "about you")
	orDefault(&k.AboutUs, "about us", "who we are", "about the agency", "our organisation", "about the department")
	orDefault(&k.Notes, "note", "please note", "how to apply", "closing date", "applications close", "eligibility", "diversity", "inclusion")

	orDefault(&k.LabelAgency, "agency", "organisation", "organization", "department")
	orDefault(&k.LabelJobType, "job type", "work type", "employment type")
	orDefault(&k.LabelLocation, "location", "job location")
	orDefault(&k.LabelReference, "job reference", "reference", "job number", "ref")

	orDefault(&k.ContactMarkers, "for more information", "enquiries", "contact")

	orDefault(&k.PrimaryDocuments, "role description", "position description", "duty statement", "job description", "role profile")
	orDefault(&k.SecondaryDocuments, "information pack", "candidate pack", "applicant pack", "candidate information", "applicant information", "application kit")
	orDefault(&k.RoleContext, "role", "position", "job", "vacancy",
		"firefighter", "officer", "nurse", "teacher", "manager", "coordinator", "analyst", "engineer",
		"clerk", "assistant", "administrator", "paramedic", "ranger", "adviser", "advisor", "specialist",
		"technician", "inspector", "librarian", "caseworker", "psychologist", "counsellor", "driver")
	return k
}

func orDefault(dst *[]string, values ...string) {
	if len(*dst) == 0 {
		*dst = values
	}
}
