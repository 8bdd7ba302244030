package portal

import (
	"fmt"
	"strings"

	"github.com/jun/formdesk/internal/model"
)

// Catalog is the fixed, read-only set of document templates. It is defined
// at build time; templates have no create/update/delete lifecycle.
type Catalog struct {
	templates []model.Template
}

// NewCatalog returns the standard template catalog.
func NewCatalog() *Catalog {
	return &Catalog{templates: []model.Template{
		{
			ID:          "appointment-letter",
			Title:       "Appointment Letter",
			Description: "Formal letter offering a position to a candidate.",
			InitialContent: `# Appointment Letter

Date: ________

Dear ________,

We are pleased to offer you the position of **________** with our
organization, effective ________.

Your remuneration will be ________ per annum, payable monthly. Other terms
and conditions of employment are set out in the attached schedule.

Please sign and return a copy of this letter to confirm your acceptance.

Sincerely,

________
`,
		},
		{
			ID:          "leave-application",
			Title:       "Leave Application Form",
			Description: "Request for leave of absence.",
			InitialContent: `# Leave Application Form

Date: ________

To: The Manager

Dear Sir/Madam,

I request leave of absence from **________** to **________** on account of
________.

During my absence, ________ has agreed to cover my duties. I will remain
reachable for urgent matters.

Yours faithfully,

________
`,
		},
		{
			ID:          "equipment-request",
			Title:       "Equipment Request Form",
			Description: "Request for office equipment or supplies.",
			InitialContent: `# Equipment Request Form

Date: ________

Requested by: ________

Department: ________

| Item | Quantity | Justification |
|------|----------|---------------|
|      |          |               |
|      |          |               |

Required by date: ________

Approved by: ________
`,
		},
	}}
}

// Templates returns the full catalog in its defined order.
func (c *Catalog) Templates() []model.Template {
	out := make([]model.Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Get looks up a template by ID.
func (c *Catalog) Get(id string) (model.Template, error) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
}

// Filter returns templates whose title contains query, case-insensitively,
// preserving catalog order. An empty query returns the full catalog.
func (c *Catalog) Filter(query string) []model.Template {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Templates()
	}

	var out []model.Template
	for _, t := range c.templates {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}
