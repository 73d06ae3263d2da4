// Package sentiment scores reflection entries for mood using a small word
// lexicon and summarizes the window into a timeline and trend.
package sentiment

import (
	"math"
	"sort"
	"strings"
)

// Sentiment labels.
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

// Window trends.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Input is one day's text to score.
type Input struct {
	Date string
	Text string
}

// DayScore is the mood assessment for a single day.
type DayScore struct {
	Date         string
	Score        float64
	Subjectivity float64
	Label        string
	Emotions     []string
}

// EmotionCount pairs an emotion with its occurrence count over the window.
type EmotionCount struct {
	Name  string
	Count int
}

// Summary aggregates day scores across a window.
type Summary struct {
	Days                int
	AverageScore        float64
	AverageSubjectivity float64
	Positive            int
	Neutral             int
	Negative            int
	Trend               string
	CommonEmotions      []EmotionCount
}

var positiveWords = map[string]bool{
	"accomplished": true, "better": true, "breakthrough": true, "calm": true,
	"clear": true, "confident": true, "delighted": true, "effective": true,
	"encouraged": true, "energized": true, "enjoyed": true, "excellent": true,
	"excited": true, "focused": true, "glad": true, "good": true, "grateful": true,
	"great": true, "happy": true, "helpful": true, "improved": true,
	"insightful": true, "learned": true, "motivated": true, "productive": true,
	"progress": true, "proud": true, "refreshed": true, "relieved": true,
	"satisfied": true, "smooth": true, "solved": true, "steady": true,
	"strong": true, "succeeded": true, "success": true, "useful": true,
	"valuable": true, "win": true, "worked": true,
}

var negativeWords = map[string]bool{
	"afraid": true, "angry": true, "annoyed": true, "anxious": true,
	"bad": true, "blocked": true, "bored": true, "broke": true, "broken": true,
	"confused": true, "difficult": true, "disappointed": true, "distracted": true,
	"drained": true, "exhausted": true, "failed": true, "failure": true,
	"frustrated": true, "frustrating": true, "hard": true, "hopeless": true,
	"lost": true, "mistake": true, "nervous": true, "overwhelmed": true,
	"painful": true, "poor": true, "regret": true, "sad": true, "slow": true,
	"stressed": true, "stuck": true, "tired": true, "trouble": true,
	"uncertain": true, "unclear": true, "unhappy": true, "worried": true,
	"worse": true, "wrong": true,
}

// Score assesses a single day's joined stage text.
// Empty text scores neutral zero, matching an entry with no usable stages.
func Score(date, text string) DayScore {
	pos, neg, words := countHits(text)
	hits := pos + neg

	var polarity, subjectivity float64
	if hits > 0 {
		polarity = clamp(float64(pos-neg)/float64(hits), -1, 1)
		subjectivity = clamp(float64(hits)*5/float64(words), 0, 1)
	}

	polarity = round3(polarity)
	subjectivity = round3(subjectivity)

	return DayScore{
		Date:         date,
		Score:        polarity,
		Subjectivity: subjectivity,
		Label:        toLabel(polarity),
		Emotions:     toEmotions(polarity, subjectivity),
	}
}

// Analyze scores each day and summarizes the window. Input order does not
// matter; the timeline comes back sorted by date ascending.
func Analyze(days []Input) ([]DayScore, Summary) {
	timeline := make([]DayScore, 0, len(days))
	for _, d := range days {
		timeline = append(timeline, Score(d.Date, d.Text))
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Date < timeline[j].Date })

	return timeline, summarize(timeline)
}

func summarize(timeline []DayScore) Summary {
	s := Summary{Days: len(timeline), Trend: TrendStable}
	if len(timeline) == 0 {
		return s
	}

	var sum, subjSum float64
	emotionCounts := make(map[string]int)
	for _, d := range timeline {
		sum += d.Score
		subjSum += d.Subjectivity
		switch d.Label {
		case LabelPositive:
			s.Positive++
		case LabelNegative:
			s.Negative++
		default:
			s.Neutral++
		}
		for _, e := range d.Emotions {
			emotionCounts[e]++
		}
	}

	s.AverageScore = round3(sum / float64(len(timeline)))
	s.AverageSubjectivity = round3(subjSum / float64(len(timeline)))
	s.Trend = trend(timeline)
	s.CommonEmotions = topEmotions(emotionCounts, 3)
	return s
}

// trend compares the mean score of the first half of the window against the
// second half. Fewer than four scored days is not enough signal.
func trend(timeline []DayScore) string {
	if len(timeline) < 4 {
		return TrendStable
	}

	half := len(timeline) / 2
	var first, second float64
	for _, d := range timeline[:half] {
		first += d.Score
	}
	for _, d := range timeline[half:] {
		second += d.Score
	}
	first /= float64(half)
	second /= float64(len(timeline) - half)

	delta := second - first
	switch {
	case delta > 0.12:
		return TrendImproving
	case delta < -0.12:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func topEmotions(counts map[string]int, n int) []EmotionCount {
	out := make([]EmotionCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, EmotionCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func countHits(text string) (pos, neg, words int) {
	fields := strings.Fields(strings.ToLower(text))
	for _, word := range fields {
		word = strings.Trim(word, ".,!?:;\"'()-[]")
		if word == "" {
			continue
		}
		words++
		if positiveWords[word] {
			pos++
		} else if negativeWords[word] {
			neg++
		}
	}
	return pos, neg, words
}

func toLabel(polarity float64) string {
	switch {
	case polarity >= 0.2:
		return LabelPositive
	case polarity <= -0.2:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// toEmotions maps polarity and subjectivity bands to dominant emotions.
func toEmotions(polarity, subjectivity float64) []string {
	switch {
	case polarity >= 0.45:
		if subjectivity >= 0.45 {
			return []string{"joy", "confidence"}
		}
		return []string{"calm", "confidence"}
	case polarity >= 0.15:
		return []string{"calm", "confidence"}
	case polarity <= -0.45:
		if subjectivity >= 0.45 {
			return []string{"frustration", "anxiety"}
		}
		return []string{"anxiety", "calm"}
	case polarity <= -0.15:
		return []string{"anxiety", "calm"}
	default:
		return []string{"calm"}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
