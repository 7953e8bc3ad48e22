package weather

import (
	"time"
)

// DataType identifies one of the upstream Hong Kong Observatory resources.
type DataType string

const (
	DataTypeLocalForecast   DataType = "flw"
	DataTypeNineDayForecast DataType = "fnd"
	DataTypeCurrentReport   DataType = "rhrread"
	DataTypeWarningSummary  DataType = "warnsum"
	DataTypeWarningInfo     DataType = "warningInfo"
	DataTypeSpecialTips     DataType = "swt"
)

// DataTypes lists every supported data type in a stable order.
var DataTypes = []DataType{
	DataTypeLocalForecast,
	DataTypeNineDayForecast,
	DataTypeCurrentReport,
	DataTypeWarningSummary,
	DataTypeWarningInfo,
	DataTypeSpecialTips,
}

var dataTypeDescriptions = map[DataType]string{
	DataTypeLocalForecast:   "Local weather forecast",
	DataTypeNineDayForecast: "9-day weather forecast",
	DataTypeCurrentReport:   "Current weather report",
	DataTypeWarningSummary:  "Weather warning summary",
	DataTypeWarningInfo:     "Detailed weather warning information",
	DataTypeSpecialTips:     "Special weather tips",
}

// Valid reports whether d is one of the known data types.
func (d DataType) Valid() bool {
	_, ok := dataTypeDescriptions[d]
	return ok
}

// Description returns a human readable label for d.
func (d DataType) Description() string {
	return dataTypeDescriptions[d]
}

// ParseDataType converts s into a DataType. Matching is exact, so "warningInfo"
// must keep its upstream casing.
func ParseDataType(s string) (DataType, error) {
	d := DataType(s)
	if !d.Valid() {
		return "", &InvalidDataTypeError{Value: s}
	}
	return d, nil
}

// Language selects the localization of upstream content.
type Language string

const (
	LanguageEnglish            Language = "en"
	LanguageTraditionalChinese Language = "tc"
	LanguageSimplifiedChinese  Language = "sc"
)

// DefaultLanguage is used when neither the caller nor configuration picks one.
const DefaultLanguage = LanguageTraditionalChinese

// Languages lists every supported language in a stable order.
var Languages = []Language{
	LanguageEnglish,
	LanguageTraditionalChinese,
	LanguageSimplifiedChinese,
}

var languageNames = map[Language]string{
	LanguageEnglish:            "English",
	LanguageTraditionalChinese: "繁體中文",
	LanguageSimplifiedChinese:  "簡體中文",
}

// Valid reports whether l is one of the known languages.
func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}

// Name returns the display name of l.
func (l Language) Name() string {
	return languageNames[l]
}

// ParseLanguage converts s into a Language. An empty string yields fallback.
func ParseLanguage(s string, fallback Language) (Language, error) {
	if s == "" {
		return fallback, nil
	}
	l := Language(s)
	if !l.Valid() {
		return "", &InvalidLanguageError{Value: s}
	}
	return l, nil
}

// CacheKey identifies one cache slot. Requests with equal keys are interchangeable.
type CacheKey struct {
	DataType DataType
	Language Language
}

// String renders the key as "<dataType>_<lang>".
func (k CacheKey) String() string {
	return string(k.DataType) + "_" + string(k.Language)
}

// Payload is the decoded upstream JSON object. Its shape depends on the DataType.
// Payloads handed out by the cache are shared and must be treated as read-only.
type Payload map[string]any

// CacheEntry pairs a payload with the time it was fetched.
type CacheEntry struct {
	Payload   Payload
	FetchedAt time.Time
}

// Age returns how old the entry is at now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// IsFresh reports whether the entry is younger than ttl at now.
func (e CacheEntry) IsFresh(now time.Time, ttl time.Duration) bool {
	return e.Age(now) < ttl
}

// EntryStatus is the diagnostic view of a single cache entry.
type EntryStatus struct {
	FetchedAt time.Time     `json:"timestamp"`
	Age       time.Duration `json:"-"`
	AgeMillis int64         `json:"age"`
	Expired   bool          `json:"expired"`
}
