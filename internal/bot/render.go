package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/wordreview/internal/excel"
	"github.com/example/wordreview/internal/lexicon"
	"github.com/example/wordreview/internal/queue"
	"github.com/example/wordreview/internal/review"
	"github.com/example/wordreview/pkg/models"
)

// Constants for callback data
const (
	callbackStartReview = "start_review"
	callbackShowStats   = "show_stats"
	callbackAnswer      = "answer"
)

// Answers a learner can give to a card
const (
	actionRemembered = "remembered"
	actionForgot     = "forgot"
	actionSkip       = "skip"
)

// learnerCommands are the non-review commands reserved for learners
var learnerCommands = map[string]bool{"stop": true, "stats": true, "curve": true}

const learnerOnlyText = "This command is only available for registered learners."

// MaxCurveDays bounds how far ahead a retention curve is predicted
const MaxCurveDays = 365

const helpText = `Welcome to the vocabulary review bot! 🎓

/review - review the words that are due
/all - go through every word
/challenge - practice the words you keep getting wrong
/show <id> - review the words of a show
/wordbook <id> - review the words of a wordbook
/stop - finish the current session
/stats - show your progress
/curve <word> [days] - predict how fast you forget a word`

var errMissingWord = errors.New("missing word")

// parseRequest maps a review command to a batch request
func parseRequest(command, args string) (queue.Request, bool) {
	args = strings.TrimSpace(args)
	switch command {
	case "review":
		return queue.Request{Mode: queue.ModeSmart}, true
	case "all":
		return queue.Request{Mode: queue.ModeAll}, true
	case "challenge":
		return queue.Request{Type: queue.TypeWrongWords}, true
	case "show":
		return queue.Request{Type: queue.TypeShow, ID: args, Mode: queue.ModeSmart}, true
	case "wordbook":
		return queue.Request{Type: queue.TypeWordbook, ID: args, Mode: queue.ModeSmart}, true
	}
	return queue.Request{}, false
}

// parseCurveArgs reads "<word> [days]"
func parseCurveArgs(args string, defaultDays int) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", 0, errMissingWord
	}

	days := defaultDays
	if len(fields) > 1 {
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			if n < 1 || n > MaxCurveDays {
				return "", 0, fmt.Errorf("days must be between 1 and %d", MaxCurveDays)
			}
			days = n
			fields = fields[:len(fields)-1]
		}
	}
	return strings.Join(fields, " "), days, nil
}

func answerData(action string, wordID int64) string {
	return fmt.Sprintf("%s:%s:%d", callbackAnswer, action, wordID)
}

// parseAnswerData splits "answer:<action>:<word id>"
func parseAnswerData(data string) (action, wordID string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != callbackAnswer {
		return "", "", false
	}
	switch parts[1] {
	case actionRemembered, actionForgot, actionSkip:
		return parts[1], parts[2], parts[2] != ""
	}
	return "", "", false
}

func answerButtons(wordID int64) [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "✅ Remembered", CallbackData: answerData(actionRemembered, wordID)},
			{Text: "❌ Forgot", CallbackData: answerData(actionForgot, wordID)},
		},
		{
			{Text: "⏭ Skip", CallbackData: answerData(actionSkip, wordID)},
		},
	}
}

func batchTitle(mode models.BatchMode) string {
	switch mode {
	case models.BatchModeChallenge:
		return "Challenge"
	case models.BatchModeCuratedList:
		return "Word list"
	default:
		return "Review"
	}
}

func renderBatchIntro(batch models.ReviewBatch) string {
	return fmt.Sprintf("%s: %d %s", batchTitle(batch.Mode), batch.Len(), pluralWords(batch.Len()))
}

// renderCard shows the word without its translation
func renderCard(entry models.VocabularyEntry, position, total int) string {
	p := lexicon.Present(entry)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 %d/%d\n\n%s", position, total, p.MainWord())
	if ph := p.Phonetic(); ph != "" {
		fmt.Fprintf(&sb, "  %s", ph)
	}
	if cloze := p.Cloze(); cloze != "" {
		fmt.Fprintf(&sb, "\n\n💬 %s", cloze)
	}
	return sb.String()
}

func renderFeedback(entry models.VocabularyEntry, action string, out review.Outcome) string {
	var sb strings.Builder
	switch action {
	case actionRemembered:
		fmt.Fprintf(&sb, "✅ %s - %s", entry.Word, entry.Translation)
	case actionForgot:
		fmt.Fprintf(&sb, "❌ %s - %s", entry.Word, entry.Translation)
		if ex := lexicon.Present(entry).ExampleText(); ex != "" {
			fmt.Fprintf(&sb, "\n💬 %s", ex)
		}
	default:
		fmt.Fprintf(&sb, "⏭ Skipped: %s - %s", entry.Word, entry.Translation)
		return sb.String()
	}
	fmt.Fprintf(&sb, "\nNext review in %d %s", out.Record.IntervalDays, pluralDays(out.Record.IntervalDays))
	fmt.Fprintf(&sb, "\nSession accuracy: %d%%", out.Accuracy)
	return sb.String()
}

func renderSessionStats(stats models.SessionStats) string {
	if stats.Total == 0 {
		return "🏁 Session finished. No words were answered."
	}
	return fmt.Sprintf("🏁 Session finished\n\nWords: %d\nRemembered: %d\nForgotten: %d\nAccuracy: %d%%\nExperience: +%d",
		stats.Total, stats.Remembered, stats.Forgotten, stats.Accuracy, stats.Experience)
}

func renderOverview(ov review.Overview) string {
	return fmt.Sprintf("📊 Your progress\n\nWords: %d\nDue now: %d\nReviewed: %d\nMastered: %d\nWrong words: %d (+%d / -%d recently)",
		ov.TotalWords, ov.Due, ov.Learned, ov.Mastered,
		ov.WrongWords.TotalWrongWords, ov.WrongWords.RecentlyAdded, ov.WrongWords.RecentlyRemoved)
}

func renderCurve(rec models.LearningRecord, rates []int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📉 Retention of %s (mastery %d%%)\n", rec.Word, rec.MasteryLevel)
	for i, r := range rates {
		fmt.Fprintf(&sb, "\nDay %d: %3d%% %s", i+1, r, strings.Repeat("▇", r/10))
	}
	return sb.String()
}

func renderReminder(count int) string {
	return fmt.Sprintf("⏰ You have %d %s to review! Send /review to start.", count, pluralWords(count))
}

func renderImportResult(res *excel.ImportResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Words processed: %d\n- Added: %d\n- Updated: %d\n- Skipped: %d",
		res.TotalProcessed, res.Created, res.Updated, res.Skipped)

	if len(res.Errors) > 0 {
		fmt.Fprintf(&sb, "\n\n❌ Errors (%d):", len(res.Errors))
		for i, msg := range res.Errors {
			if i == 10 {
				fmt.Fprintf(&sb, "\n... and %d more", len(res.Errors)-i)
				break
			}
			fmt.Fprintf(&sb, "\n- %s", msg)
		}
	}
	return sb.String()
}

func pluralWords(n int) string {
	if n == 1 {
		return "word"
	}
	return "words"
}

func pluralDays(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
