// Package clubs turns the Cal Poly club directory into a plain-text
// document of sentences that the relevance filter and QA model can read.
package clubs

import (
	"github.com/go-playground/validator/v10"
)

// DemoQuestion is the question asked by the clubs demo.
const DemoQuestion = "who is the advisor for Computer Science and Artificial Intelligence club?"

// Club is one row of the club directory.
type Club struct {
	ClubName      string `json:"club_name" validate:"required"`
	Types         string `json:"types"`
	Desc          string `json:"desc"`
	ContactEmail  string `json:"contact_email"`
	ContactEmail2 string `json:"contact_email_2"`
	ContactPerson string `json:"contact_person"`
	ContactPhone  string `json:"contact_phone"`
	Box           string `json:"box"`
	Advisor       string `json:"advisor"`
	Affiliation   string `json:"affiliation"`
}

// Validate validates the Club using the validator.
func (c *Club) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Fields returns the club's values keyed by CSV column name.
func (c *Club) Fields() map[string]string {
	return map[string]string{
		"club_name":       c.ClubName,
		"types":           c.Types,
		"desc":            c.Desc,
		"contact_email":   c.ContactEmail,
		"contact_email_2": c.ContactEmail2,
		"contact_person":  c.ContactPerson,
		"contact_phone":   c.ContactPhone,
		"box":             c.Box,
		"advisor":         c.Advisor,
		"affiliation":     c.Affiliation,
	}
}

// setField assigns value to the field named by column. Unknown columns are ignored.
func (c *Club) setField(column, value string) {
	switch column {
	case "club_name":
		c.ClubName = value
	case "types":
		c.Types = value
	case "desc":
		c.Desc = value
	case "contact_email":
		c.ContactEmail = value
	case "contact_email_2":
		c.ContactEmail2 = value
	case "contact_person":
		c.ContactPerson = value
	case "contact_phone":
		c.ContactPhone = value
	case "box":
		c.Box = value
	case "advisor":
		c.Advisor = value
	case "affiliation":
		c.Affiliation = value
	}
}
