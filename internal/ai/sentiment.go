package ai

import (
	"regexp"
	"strings"
)

// SentimentResult is the outcome of classifying one partner message.
type SentimentResult struct {
	// Sentiment is the label fed into prompt state hints: positive,
	// negative, neutral, mixed, enthusiastic, engaged, disengaged,
	// neutral_engaged or neutral_disengaged.
	Sentiment string
	// Confidence in the label, 0.0 to 1.0.
	Confidence float64
	// Indicators lists what led to this classification.
	Indicators []string
}

// SentimentClassifier labels partner messages so prompts can carry mood
// hints. The built-in classifier is keyword-based; anything smarter can
// slot in behind this interface.
type SentimentClassifier interface {
	Classify(text string) SentimentResult
}

type sentimentPattern struct {
	re        *regexp.Regexp
	indicator string
}

var positivePatterns = []sentimentPattern{
	{regexp.MustCompile(`\b(great|awesome|amazing|wonderful|fantastic|excellent)\b`), "strong_positive"},
	{regexp.MustCompile(`\b(good|nice|cool|interesting|love|like|enjoy)\b`), "positive"},
	{regexp.MustCompile(`\b(thanks|thank you|appreciate)\b`), "gratitude"},
	{regexp.MustCompile(`\b(haha|lol|hehe|😄|😊|🙂|😀)\b`), "humor"},
	{regexp.MustCompile(`\b(agree|yes|exactly|right|true)\b`), "agreement"},
}

var negativePatterns = []sentimentPattern{
	{regexp.MustCompile(`\b(terrible|horrible|awful|worst|hate)\b`), "strong_negative"},
	{regexp.MustCompile(`\b(bad|annoying|frustrating|boring|disappointed)\b`), "negative"},
	{regexp.MustCompile(`\b(don't like|not good|not great)\b`), "mild_negative"},
	{regexp.MustCompile(`\b(sorry|apologize)\b`), "apology"},
	{regexp.MustCompile(`\b(confused|don't understand|unclear)\b`), "confusion"},
	{regexp.MustCompile(`\b(sad|upset|worried|anxious)\b`), "distress"},
	{regexp.MustCompile(`[?]{2,}`), "uncertainty"},
}

var engagementPatterns = []sentimentPattern{
	{regexp.MustCompile(`\?$`), "question"},
	{regexp.MustCompile(`\b(what|how|why|when|where|who)\b.*\?`), "inquiry"},
	{regexp.MustCompile(`\b(tell me|share|explain|describe)\b`), "request"},
	{regexp.MustCompile(`\b(think|believe|feel|wonder)\b`), "reflection"},
}

var disengagementPatterns = []sentimentPattern{
	{regexp.MustCompile(`^(ok|okay|sure|fine|mhm|hmm)\.?$`), "minimal_response"},
	{regexp.MustCompile(`^(yes|no|maybe)\.?$`), "short_response"},
	{regexp.MustCompile(`\b(whatever|idk|dunno)\b`), "dismissive"},
	{regexp.MustCompile(`^\s*$`), "empty"},
}

// KeywordClassifier is the built-in heuristic classifier: weighted keyword
// tables for positive/negative signal plus an engagement adjustment.
type KeywordClassifier struct{}

// Classify labels the sentiment of a message.
func (KeywordClassifier) Classify(text string) SentimentResult {
	if strings.TrimSpace(text) == "" {
		return SentimentResult{
			Sentiment:  "neutral",
			Confidence: 0.5,
			Indicators: []string{"empty_message"},
		}
	}

	lower := strings.ToLower(strings.TrimSpace(text))

	var indicators []string
	var positive, negative, engagement float64

	for _, p := range positivePatterns {
		if p.re.MatchString(lower) {
			indicators = append(indicators, p.indicator)
			if strings.Contains(p.indicator, "strong") {
				positive += 2.0
			} else {
				positive += 1.0
			}
		}
	}
	// Exclamation marks count as excitement unless a "?" turns the bang
	// into an interrobang. RE2 has no lookahead, so bang runs are scanned
	// directly.
	if hasExcitement(lower) {
		indicators = append(indicators, "excitement")
		positive += 1.0
	}

	for _, p := range negativePatterns {
		if p.re.MatchString(lower) {
			indicators = append(indicators, p.indicator)
			if strings.Contains(p.indicator, "strong") {
				negative += 2.0
			} else {
				negative += 1.0
			}
		}
	}

	for _, p := range engagementPatterns {
		if p.re.MatchString(lower) {
			indicators = append(indicators, p.indicator)
			engagement += 1.0
		}
	}
	for _, p := range disengagementPatterns {
		if p.re.MatchString(lower) {
			indicators = append(indicators, p.indicator)
			engagement -= 1.0
		}
	}

	sentiment, confidence := calculateSentiment(positive, negative, engagement)

	return SentimentResult{
		Sentiment:  sentiment,
		Confidence: confidence,
		Indicators: indicators,
	}
}

// hasExcitement reports whether the text contains a run of up to three
// bangs not immediately followed by a question mark.
func hasExcitement(text string) bool {
	run := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '!' {
			run++
			continue
		}
		if run >= 2 || (run == 1 && text[i] != '?') {
			return true
		}
		run = 0
	}
	return run >= 1
}

func calculateSentiment(positive, negative, engagement float64) (string, float64) {
	total := positive + negative

	if total == 0 {
		switch {
		case engagement > 0:
			return "neutral_engaged", 0.6
		case engagement < 0:
			return "neutral_disengaged", 0.6
		default:
			return "neutral", 0.5
		}
	}

	var sentiment string
	var confidence float64
	switch {
	case positive > negative*1.5:
		sentiment = "positive"
		confidence = min(0.9, 0.5+(positive-negative)*0.1)
	case negative > positive*1.5:
		sentiment = "negative"
		confidence = min(0.9, 0.5+(negative-positive)*0.1)
	case positive > 0 && negative > 0:
		sentiment = "mixed"
		confidence = 0.6
	default:
		sentiment = "neutral"
		confidence = 0.5
	}

	if engagement > 2 {
		if sentiment == "positive" {
			sentiment = "enthusiastic"
		} else if sentiment == "neutral" {
			sentiment = "engaged"
		}
	} else if engagement < -1 && sentiment == "neutral" {
		sentiment = "disengaged"
	}

	return sentiment, confidence
}

var positiveTrendSet = map[string]bool{
	"positive": true, "enthusiastic": true, "engaged": true,
}

var negativeTrendSet = map[string]bool{
	"negative": true, "disengaged": true, "frustrated": true,
}

// SentimentTrend compares the latest sentiments against the earlier ones
// and reports "improving", "declining" or "stable".
func SentimentTrend(sentiments []string) string {
	if len(sentiments) < 2 {
		return "stable"
	}

	recent := sentiments[len(sentiments)-2:]
	older := sentiments[:len(sentiments)-2]

	var recentPositive, recentNegative, olderPositive, olderNegative int
	for _, s := range recent {
		if positiveTrendSet[s] {
			recentPositive++
		}
		if negativeTrendSet[s] {
			recentNegative++
		}
	}
	for _, s := range older {
		if positiveTrendSet[s] {
			olderPositive++
		}
		if negativeTrendSet[s] {
			olderNegative++
		}
	}

	switch {
	case recentPositive > recentNegative && recentPositive > olderPositive:
		return "improving"
	case recentNegative > recentPositive && recentNegative > olderNegative:
		return "declining"
	default:
		return "stable"
	}
}
