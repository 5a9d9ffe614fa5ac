package classifier

import (
	"regexp"
	"strings"

	"parkbot/internal/models"
)

// Result is the classification outcome. RequestID is filled only for
// status checks when an id was found in the message.
type Result struct {
	Type      string
	RequestID string
}

var (
	requestIDPattern = regexp.MustCompile(`(REQ-\d{14}-\d{3})`)
	// Lenient variant used as a routing fallback for ids typed in lowercase.
	requestIDLoosePattern = regexp.MustCompile(`(?i)(REQ-\d{14}-\d{3})`)
)

// Keyword sets cover English and Russian. Matching is ordered, first rule
// wins; see Classify.
var (
	statusKeywords = []string{
		"status", "check", "pending", "approved", "rejected",
		"статус", "проверь", "проверка",
	}

	reserveKeywords = []string{
		"reserve", "book", "reservation", "parking",
		"зарезервировать", "бронь", "резерв", "парковка", "парковочное место",
	}

	infoKeywords = []string{
		"info", "how", "what", "where", "when", "cost", "price", "hours",
		"available", "location",
		"информация", "как", "что", "где", "когда", "стоимость", "цена",
		"часы", "время", "свободно", "место",
	}
)

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Classify maps free text to a request type. The rules are ordered on
// purpose: status intent dominates so that "check parking status" is never
// hijacked by the word "parking", and reservation questions ("how do I
// reserve") answer the question instead of starting a booking.
func Classify(text string) Result {
	lowered := strings.ToLower(strings.TrimSpace(text))

	switch {
	case containsAny(lowered, statusKeywords):
		return Result{Type: models.TypeStatusCheck, RequestID: ExtractRequestID(text)}
	case containsAny(lowered, reserveKeywords):
		if containsAny(lowered, infoKeywords) {
			return Result{Type: models.TypeInfo}
		}
		return Result{Type: models.TypeReservation}
	case containsAny(lowered, infoKeywords):
		return Result{Type: models.TypeInfo}
	default:
		return Result{Type: models.TypeUnknown}
	}
}

// ExtractRequestID returns the first request id token in text, or empty.
func ExtractRequestID(text string) string {
	return requestIDPattern.FindString(text)
}

// ExtractRequestIDLoose accepts ids regardless of letter case and
// normalizes the prefix. Used as a routing fallback.
func ExtractRequestIDLoose(text string) string {
	id := requestIDLoosePattern.FindString(text)
	if id == "" {
		return ""
	}
	return strings.ToUpper(id[:3]) + id[3:]
}
