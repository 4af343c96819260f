package llm

import "context"

// Gender is an optional gender preference for the provider.
type Gender string

const (
	GenderNone   Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Intent is the structured interpretation of one user utterance.
type Intent struct {
	Specialty string   `json:"recommended_specialty"`
	Location  string   `json:"location"`
	Languages []string `json:"languages_found"`
	Gender    Gender   `json:"gender_preference"`
}

// LanguageCodes is the closed vocabulary the extractor is allowed to return.
// Codes outside this set are dropped from the intent.
var LanguageCodes = map[string]bool{
	"de": true, "gb": true, "ar": true, "cn": true, "es": true,
	"fr": true, "gr": true, "it": true, "jp": true, "sgn": true,
	"fa": true, "pl": true, "pt": true, "ro": true, "ru": true,
	"tr": true, "ua": true,
}

// Extractor defines the interface for intent extraction providers.
type Extractor interface {
	// Extract converts a free-text symptom description into a structured
	// intent. Specialty or location may come back empty; validating them
	// is the caller's job.
	Extract(ctx context.Context, transcript string) (*Intent, error)
}

// NormalizeGender maps arbitrary extractor output onto the known values.
// Anything unrecognized becomes GenderNone rather than an error.
func NormalizeGender(s string) Gender {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s)
	default:
		return GenderNone
	}
}

// FilterLanguages keeps only codes from the documented vocabulary,
// preserving order and dropping duplicates.
func FilterLanguages(codes []string) []string {
	var out []string
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		if LanguageCodes[c] && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
