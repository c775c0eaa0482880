package webhook

import (
	"regexp"
	"strings"

	"github.com/edumeal/edumeal-api/internal/domain/student"
)

const (
	placeholderFirstName = "Unknown"
	placeholderLastName  = "Student"
	placeholderUnknown   = "Unknown"
)

var (
	gradePattern      = regexp.MustCompile(`(?i)Grade\s*(\d+[A-Z]*)`)
	shortGradePattern = regexp.MustCompile(`(?i)\bG\s*(\d+[A-Z]*)`)
)

// ParsePayer extracts a roster draft from the loosely structured fields an
// accounting system sends. The customer field may be "First Last ID";
// the school id is always its last token.
func ParsePayer(studentID, description, productType, grade, class string) student.Draft {
	d := student.Draft{
		FirstName: placeholderFirstName,
		LastName:  placeholderLastName,
		Grade:     strings.TrimSpace(grade),
		Class:     strings.TrimSpace(class),
	}

	tokens := strings.Fields(studentID)
	if n := len(tokens); n > 0 {
		d.StudentID = tokens[n-1]
		switch names := tokens[:n-1]; len(names) {
		case 0:
		case 1:
			d.FirstName = names[0]
		default:
			d.FirstName = names[0]
			d.LastName = strings.Join(names[1:], " ")
		}
	}

	if d.Grade == "" {
		d.Grade = findGrade(description, productType)
	}
	if d.Class == "" {
		d.Class = placeholderUnknown
	}
	return d
}

func findGrade(texts ...string) string {
	for _, re := range []*regexp.Regexp{gradePattern, shortGradePattern} {
		for _, t := range texts {
			if m := re.FindStringSubmatch(t); m != nil {
				return strings.ToUpper(m[1])
			}
		}
	}
	return placeholderUnknown
}
