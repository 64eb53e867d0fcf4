package queue

import (
	"strconv"
	"strings"

	"pereryv/internal/models"
)

// Допустимые длительности перерывов в минутах.
const (
	DurationShort = 10
	DurationLong  = 20
)

// durationPolicy выбирает длительность перерыва при постановке в очередь.
// Правило определяется графиком: либо оператор выбирает сам, либо длительность
// берётся из шаблона по числу уже завершённых перерывов.
type durationPolicy interface {
	resolve(requested *int) (int, error)
}

// choicePolicy — график разрешает выбор длительности самим оператором.
type choicePolicy struct{}

func (choicePolicy) resolve(requested *int) (int, error) {
	if requested == nil {
		return 0, ErrInvalidDuration
	}
	if *requested != DurationShort && *requested != DurationLong {
		return 0, ErrInvalidDuration
	}
	return *requested, nil
}

// templatePolicy — длительность берётся из шаблона графика по порядковому
// номеру перерыва; вне шаблона действует длительность по умолчанию.
type templatePolicy struct {
	template []int
	finished int
	fallback int
}

func (p templatePolicy) resolve(_ *int) (int, error) {
	if p.finished < len(p.template) {
		return p.template[p.finished], nil
	}
	return p.fallback, nil
}

// policyFor строит правило выбора длительности для графика.
// finishedBreaks — сколько перерывов оператор уже завершил (пропуски не считаются).
func policyFor(sched *models.Schedule, finishedBreaks, fallback int) durationPolicy {
	if sched.AllowDurationChoice {
		return choicePolicy{}
	}
	return templatePolicy{
		template: parseTemplate(sched.BreakTemplate),
		finished: finishedBreaks,
		fallback: fallback,
	}
}

// parseTemplate разбирает шаблон вида "20,10,20"; мусорные элементы пропускаются.
func parseTemplate(s string) []int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}
