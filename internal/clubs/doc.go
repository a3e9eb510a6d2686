package clubs

import (
	"strings"
)

// Templates are the sentence templates filled in for every club.
// Placeholders are CSV column names in square brackets.
var Templates = []string{
	"The type of [club_name] is [types].",
	"Here is the description of [club_name]: [desc].",
	"You can contact [club_name] by emailing [contact_person] at [contact_email] or [contact_email_2].",
	"You can call [club_name] by the phone number [contact_phone].",
	"The phone number for [club_name] is [contact_phone].",
	"[club_name] has the mail box [box].",
	"The mail box of [club_name] is [box].",
	"[club_name] has Professor [advisor] as their advisor.",
	"Professor [advisor] advises [club_name].",
	"Professor [advisor] is the advisor for [club_name].",
	"[club_name] affiliates with [affiliation].",
	"[club_name] has the affiliation [affiliation].",
}

// Fill replaces every [column] placeholder in template with the club's value.
// Placeholders for unknown columns are left in place.
func Fill(template string, club *Club) string {
	fields := club.Fields()
	pairs := make([]string, 0, len(fields)*2)
	for key, value := range fields {
		pairs = append(pairs, "["+key+"]", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// MakeSentences fills every template for club, in template order.
func MakeSentences(club *Club) []string {
	sentences := make([]string, len(Templates))
	for i, template := range Templates {
		sentences[i] = Fill(template, club)
	}
	return sentences
}

// MakeDoc renders one sentence per line for every club, in input order.
func MakeDoc(clubs []Club) string {
	lines := make([]string, 0, len(clubs)*len(Templates))
	for i := range clubs {
		lines = append(lines, MakeSentences(&clubs[i])...)
	}
	return strings.Join(lines, "\n")
}
