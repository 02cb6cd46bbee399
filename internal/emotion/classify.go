package emotion

import "strings"

// Valence is the coarse affect class of an emotion label, used by the
// screens to pick colors and glyphs.
type Valence string

const (
	ValencePositive Valence = "positive"
	ValenceNegative Valence = "negative"
	ValenceNeutral  Valence = "neutral"
)

// Classification is the display affordance for one emotion label.
type Classification struct {
	Valence    Valence `json:"valence"`
	ColorToken string  `json:"color"`
	Glyph      string  `json:"glyph"`
}

// neutralClassification is returned for every label outside the fixed
// vocabulary.  The recognizer's vocabulary evolves independently of this
// client, so unknown labels must resolve rather than fail.
var neutralClassification = Classification{ValenceNeutral, "#808080", "😐"}

var classifications = map[string]Classification{
	"happy":     {ValencePositive, "#FFD700", "😄"},
	"surprised": {ValencePositive, "#FFA500", "😮"},
	"excited":   {ValencePositive, "#FF69B4", "🤩"},
	"content":   {ValencePositive, "#9ACD32", "😊"},

	"sad":       {ValenceNegative, "#4169E1", "😢"},
	"angry":     {ValenceNegative, "#FF4500", "😠"},
	"disgusted": {ValenceNegative, "#228B22", "🤢"},
	"disgust":   {ValenceNegative, "#228B22", "🤢"},
	"fearful":   {ValenceNegative, "#800080", "😨"},
	"fear":      {ValenceNegative, "#800080", "😨"},

	"neutral": neutralClassification,
	"calm":    {ValenceNeutral, "#87CEEB", "😌"},
}

// Classify maps an emotion label to its valence and display affordance.
// The lookup is case-insensitive and total: unrecognized labels resolve to
// the neutral affordance.
func Classify(label string) Classification {
	if c, ok := classifications[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return neutralClassification
}
