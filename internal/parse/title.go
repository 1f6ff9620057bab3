package parse

import (
	"regexp"
	"strings"

	"github.com/local/mediainsight/internal/model"
)

const (
	// DefaultMediaTitle is returned when no title can be extracted.
	DefaultMediaTitle = "Generated Media"
	// DefaultMediaDescription is returned alongside DefaultMediaTitle.
	DefaultMediaDescription = " -"
)

var titleDescription = regexp.MustCompile(
	`(?s)(?:\*\*Title:\*\*|Title:)?[ \t]*(?P<title>[^\n]*?)[ \t]*\n+[ \t]*\*\*Description:\*\*(?P<description>.*)`,
)

// ExtractTitleAndDescription pulls a title line and a (possibly multi-line) description
// out of the text that accompanies generated media. Unmatched text yields the
// "Generated Media" / " -" sentinel.
func ExtractTitleAndDescription(text string) model.TitleDescription {
	m := titleDescription.FindStringSubmatch(text)
	if m == nil {
		return model.TitleDescription{Title: DefaultMediaTitle, Description: DefaultMediaDescription}
	}
	return model.TitleDescription{
		Title:       strings.TrimSpace(m[titleDescription.SubexpIndex("title")]),
		Description: strings.TrimSpace(m[titleDescription.SubexpIndex("description")]),
	}
}
