package applicant

import "strings"

// Industry is the applicant's employment sector.
type Industry string

// Canonical industry members.
const (
	IndustryFinance       Industry = "finance"
	IndustryIT            Industry = "it"
	IndustryManufacturing Industry = "manufacturing"
	IndustryRetail        Industry = "retail"
	IndustryEducation     Industry = "education"
	IndustryHealthcare    Industry = "healthcare"
	IndustryRealEstate    Industry = "real_estate"
	IndustryOther         Industry = "other"
)

// Education is the applicant's highest completed education level.
type Education string

// Canonical education members, ordered highest to lowest.
const (
	EducationDoctorate  Education = "doctorate"
	EducationMasters    Education = "masters"
	EducationBachelors  Education = "bachelors"
	EducationAssociate  Education = "associate"
	EducationHighSchool Education = "high_school"
)

// MaritalStatus is recorded on the application but unused by scoring.
type MaritalStatus string

// Canonical marital status members.
const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

// Alias tables map upstream data-file values (the original files use
// Chinese member names) and common English spellings onto canonical
// members. Lookup keys are lowercased and trimmed first.
var industryAliases = map[string]Industry{
	"金融":          IndustryFinance,
	"finance":     IndustryFinance,
	"it":          IndustryIT,
	"制造业":         IndustryManufacturing,
	"manufacturing": IndustryManufacturing,
	"零售":          IndustryRetail,
	"retail":      IndustryRetail,
	"教育":          IndustryEducation,
	"education":   IndustryEducation,
	"医疗":          IndustryHealthcare,
	"healthcare":  IndustryHealthcare,
	"房地产":         IndustryRealEstate,
	"real estate": IndustryRealEstate,
	"real-estate": IndustryRealEstate,
	"real_estate": IndustryRealEstate,
	"其他":          IndustryOther,
	"other":       IndustryOther,
}

var educationAliases = map[string]Education{
	"博士":         EducationDoctorate,
	"doctorate":  EducationDoctorate,
	"phd":        EducationDoctorate,
	"硕士":         EducationMasters,
	"masters":    EducationMasters,
	"master's":   EducationMasters,
	"master":     EducationMasters,
	"本科":         EducationBachelors,
	"bachelors":  EducationBachelors,
	"bachelor's": EducationBachelors,
	"bachelor":   EducationBachelors,
	"大专":         EducationAssociate,
	"associate":  EducationAssociate,
	"高中及以下":      EducationHighSchool,
	"high school": EducationHighSchool,
	"high-school": EducationHighSchool,
	"high_school": EducationHighSchool,
}

var maritalAliases = map[string]MaritalStatus{
	"单身":       MaritalSingle,
	"single":   MaritalSingle,
	"已婚":       MaritalMarried,
	"married":  MaritalMarried,
	"离婚":       MaritalDivorced,
	"divorced": MaritalDivorced,
	"丧偶":       MaritalWidowed,
	"widowed":  MaritalWidowed,
}

// NormalizeIndustry maps raw to its canonical member. Unknown values are
// returned trimmed but otherwise verbatim.
func NormalizeIndustry(raw string) Industry {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := industryAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return Industry(trimmed)
}

// NormalizeEducation maps raw to its canonical member. Unknown values are
// returned trimmed but otherwise verbatim.
func NormalizeEducation(raw string) Education {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := educationAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return Education(trimmed)
}

// NormalizeMaritalStatus maps raw to its canonical member. Unknown values
// are returned trimmed but otherwise verbatim.
func NormalizeMaritalStatus(raw string) MaritalStatus {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := maritalAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return MaritalStatus(trimmed)
}
