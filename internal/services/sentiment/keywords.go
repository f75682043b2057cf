package sentiment

// Keyword lists are matched as case-insensitive substrings of headline and
// summary. Each keyword counts at most once per item.
var (
	PositiveKeywords = []string{
		"surge", "soar", "rally", "gain", "jump", "bullish", "beat", "record",
		"upgrade", "growth", "profit", "strong", "outperform", "breakthrough",
		"optimistic", "boost", "rise",
	}

	NegativeKeywords = []string{
		"plunge", "crash", "tumble", "slump", "drop", "bearish", "miss",
		"downgrade", "loss", "weak", "lawsuit", "fraud", "probe", "decline",
		"warning", "fear", "fall",
	}

	// Stopwords are dropped from topic extraction. Only tokens longer than
	// four characters reach this list.
	Stopwords = map[string]struct{}{
		"about": {}, "after": {}, "again": {}, "against": {}, "amid": {}, "before": {},
		"being": {}, "below": {}, "between": {}, "could": {}, "during": {}, "every": {},
		"first": {}, "former": {}, "their": {}, "there": {}, "these": {}, "those": {},
		"through": {}, "today": {}, "under": {}, "until": {}, "where": {}, "which": {},
		"while": {}, "would": {}, "should": {}, "other": {}, "still": {}, "shares": {},
		"stock": {}, "stocks": {}, "market": {}, "markets": {}, "company": {},
		"report": {}, "reports": {}, "says": {}, "year": {}, "years": {},
		"week": {}, "weeks": {}, "update": {},
	}
)
