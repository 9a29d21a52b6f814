package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quiz-schema-service/internal/quiz"
)

var ErrBadCallback = errors.New("malformed callback data")

// Callback data prefixes. Telegram limits callback data to 64 bytes.
const (
	cbSelect = "sel"
	cbCheck  = "chk"
	cbNext   = "next"
	cbPrev   = "prev"
	cbFinish = "finish"
	cbReset  = "reset"
)

func selectData(q, option int) string { return fmt.Sprintf("%s:%d:%d", cbSelect, q, option) }
func checkData(q int) string          { return fmt.Sprintf("%s:%d", cbCheck, q) }

// ParseCallback maps inline keyboard callback data to a runtime action.
func ParseCallback(data string) (quiz.Action, error) {
	parts := strings.Split(data, ":")
	switch parts[0] {
	case cbSelect:
		if len(parts) != 3 {
			return quiz.Action{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		q, err1 := strconv.Atoi(parts[1])
		o, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			return quiz.Action{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		return quiz.Action{Type: quiz.ActionSelectAnswer, Question: q, Option: o}, nil
	case cbCheck:
		if len(parts) != 2 {
			return quiz.Action{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		q, err := strconv.Atoi(parts[1])
		if err != nil {
			return quiz.Action{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		return quiz.Action{Type: quiz.ActionCheckAnswer, Question: q}, nil
	}
	if len(parts) != 1 {
		return quiz.Action{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	switch parts[0] {
	case cbNext:
		return quiz.Action{Type: quiz.ActionNextQuestion}, nil
	case cbPrev:
		return quiz.Action{Type: quiz.ActionPrevQuestion}, nil
	case cbFinish:
		return quiz.Action{Type: quiz.ActionFinishQuiz}, nil
	case cbReset:
		return quiz.Action{Type: quiz.ActionResetQuiz}, nil
	default:
		return quiz.Action{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
}
