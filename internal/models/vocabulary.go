package models

// Grades is the fixed grade-level vocabulary used by speakers, teachers and requests.
var Grades = []string{
	"Pre-K",
	"Elementary",
	"Middle School",
	"High School",
	"Higher Education",
	"Adult Education",
}

// Languages is the fixed language vocabulary for speaker delivery languages.
var Languages = []string{
	"English",
	"Spanish",
	"French",
	"Mandarin",
	"Arabic",
	"Portuguese",
	"Hindi",
	"American Sign Language",
}

var (
	gradeSet    = toSet(Grades)
	languageSet = toSet(Languages)
)

// IsValidGrade reports whether g belongs to the grade vocabulary.
func IsValidGrade(g string) bool {
	_, ok := gradeSet[g]
	return ok
}

// IsValidLanguage reports whether l belongs to the language vocabulary.
func IsValidLanguage(l string) bool {
	_, ok := languageSet[l]
	return ok
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
