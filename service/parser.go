package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/model"
)

var (
	questionLineRe = regexp.MustCompile(`^(\d+)\s*[.)]\s*(.*)$`)
	optionLineRe   = regexp.MustCompile(`^([a-hA-H])[.)]\)?\s*(.*)$`)
	// a bare option letter, optionally punctuated, as an answer-sheet entry
	answerLetterRe = regexp.MustCompile(`^([a-hA-H])(?:\s*[.)]\)?)?\s*(.*)$`)
)

// ParseBundle splits raw generation output on the section delimiter and
// builds the typed study bundle. The template promises exactly three
// sections; fewer is a malformed response, extras mean the model restated
// the delimiter and are discarded.
func ParseBundle(raw string) (*model.StudyBundle, error) {
	segments := strings.Split(raw, SectionDelimiter)
	if len(segments) < 3 {
		return nil, MalformedResponseError(
			fmt.Sprintf("expected 3 delimited sections, got %d", len(segments)))
	}

	summary := strings.TrimSpace(segments[0])
	quizText := strings.TrimSpace(segments[1])
	answersText := strings.TrimSpace(segments[2])

	quiz := parseQuestions(quizText)
	resolveAnswers(quiz, answersText)

	return &model.StudyBundle{
		Summary:     summary,
		Flashcards:  deriveFlashcards(quiz),
		Quiz:        quiz,
		QuizText:    quizText,
		AnswersText: answersText,
	}, nil
}

// parseQuestions runs the line-oriented sub-parser over the quiz block.
// A leading integer marks a new question, a lettered line a multiple-choice
// option; anything else extends the current question's prompt. Questions
// that do not fit the scheme stay in the raw block untouched, this never
// fails.
func parseQuestions(quizText string) []model.QuestionItem {
	var items []model.QuestionItem
	var current *model.QuestionItem

	flush := func() {
		if current == nil {
			return
		}
		if len(current.Options) > 0 {
			current.Kind = model.KindMultipleChoice
		} else {
			current.Kind = model.KindShortAnswer
		}
		items = append(items, *current)
		current = nil
	}

	for _, line := range strings.Split(quizText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := questionLineRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = &model.QuestionItem{Prompt: strings.TrimSpace(m[2])}
			continue
		}

		if current == nil {
			// section headers and stray lines before the first question
			continue
		}

		if m := optionLineRe.FindStringSubmatch(trimmed); m != nil {
			current.Options = append(current.Options, strings.TrimSpace(m[2]))
			continue
		}

		// continuation of the question prompt (or a short-answer blank)
		if len(current.Options) == 0 {
			current.Prompt = strings.TrimSpace(current.Prompt + "\n" + trimmed)
		}
	}
	flush()

	return items
}

// resolveAnswers walks the numbered answer sheet and attaches answers to the
// parsed questions. Multiple-choice answers are resolved to an option index
// by letter or by option text; an entry that resolves to nothing is kept as
// raw answer text rather than dropped.
func resolveAnswers(items []model.QuestionItem, answersText string) {
	answers := splitAnswerSheet(answersText)

	for i := range items {
		answer, ok := answers[i+1]
		if !ok || answer == "" {
			continue
		}

		if items[i].Kind == model.KindShortAnswer {
			items[i].AnswerText = answer
			continue
		}

		lines := strings.SplitN(answer, "\n", 2)
		first := strings.TrimSpace(lines[0])
		if len(lines) > 1 {
			items[i].Explanation = strings.TrimSpace(lines[1])
		}

		if idx, rest, ok := matchOption(first, items[i].Options); ok {
			items[i].AnswerIndex = &idx
			if rest != "" && items[i].Explanation == "" {
				items[i].Explanation = rest
			}
			continue
		}

		// unresolvable key, keep it raw
		items[i].AnswerText = answer
	}
}

// splitAnswerSheet groups answer-sheet lines by their question number.
// Unnumbered lines continue the preceding entry.
func splitAnswerSheet(answersText string) map[int]string {
	answers := make(map[int]string)
	currentNum := 0

	for _, line := range strings.Split(answersText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := questionLineRe.FindStringSubmatch(trimmed); m != nil {
			num, err := strconv.Atoi(m[1])
			if err == nil && num > 0 {
				currentNum = num
				answers[num] = strings.TrimSpace(m[2])
				continue
			}
		}

		if currentNum > 0 {
			answers[currentNum] = strings.TrimSpace(answers[currentNum] + "\n" + trimmed)
		}
	}

	return answers
}

// matchOption resolves an answer-sheet entry against the option list,
// first by letter prefix, then by option text. The remainder after a letter
// prefix is returned for use as an explanation.
func matchOption(answer string, options []string) (int, string, bool) {
	if m := answerLetterRe.FindStringSubmatch(answer); m != nil {
		idx := int(strings.ToLower(m[1])[0] - 'a')
		rest := strings.TrimSpace(m[2])
		if idx < len(options) && (rest == "" || strings.EqualFold(rest, options[idx])) {
			if strings.EqualFold(rest, options[idx]) {
				rest = ""
			}
			return idx, rest, true
		}
	}

	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), answer) {
			return i, "", true
		}
	}

	return 0, "", false
}

// deriveFlashcards builds front/back cards from every question with a
// resolved answer.
func deriveFlashcards(items []model.QuestionItem) []model.Flashcard {
	cards := make([]model.Flashcard, 0, len(items))
	for _, item := range items {
		front := strings.SplitN(item.Prompt, "\n", 2)[0]

		var back string
		switch {
		case item.Kind == model.KindMultipleChoice && item.AnswerIndex != nil:
			back = item.Options[*item.AnswerIndex]
		case item.AnswerText != "":
			back = strings.SplitN(item.AnswerText, "\n", 2)[0]
		}

		if front == "" || back == "" {
			continue
		}
		cards = append(cards, model.Flashcard{Front: front, Back: back})
	}
	return cards
}
