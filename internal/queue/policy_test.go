package queue

import (
	"testing"

	"pereryv/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestChoicePolicyValidatesDuration(t *testing.T) {
	sched := &models.Schedule{AllowDurationChoice: true}
	p := policyFor(sched, 0, DurationLong)

	_, err := p.resolve(nil)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = p.resolve(intPtr(15))
	assert.ErrorIs(t, err, ErrInvalidDuration)

	d, err := p.resolve(intPtr(DurationShort))
	require.NoError(t, err)
	assert.Equal(t, DurationShort, d)

	d, err = p.resolve(intPtr(DurationLong))
	require.NoError(t, err)
	assert.Equal(t, DurationLong, d)
}

func TestTemplatePolicyPicksByFinishedCount(t *testing.T) {
	sched := &models.Schedule{BreakTemplate: "20,10,20"}

	cases := []struct {
		finished int
		want     int
	}{
		{0, 20},
		{1, 10},
		{2, 20},
		{3, 20}, // шаблон кончился — длительность по умолчанию
		{7, 20},
	}
	for _, tc := range cases {
		d, err := policyFor(sched, tc.finished, DurationLong).resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, d, "finished=%d", tc.finished)
	}

	// Запрошенная длительность игнорируется, правит шаблон.
	d, err := policyFor(sched, 1, DurationLong).resolve(intPtr(20))
	require.NoError(t, err)
	assert.Equal(t, 10, d)
}

func TestTemplatePolicyEmptyTemplateFallsBack(t *testing.T) {
	sched := &models.Schedule{}
	d, err := policyFor(sched, 0, DurationLong).resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, DurationLong, d)
}

func TestParseTemplateSkipsGarbage(t *testing.T) {
	assert.Nil(t, parseTemplate(""))
	assert.Nil(t, parseTemplate("   "))
	assert.Equal(t, []int{20, 10, 20}, parseTemplate("20,10,20"))
	assert.Equal(t, []int{20, 10}, parseTemplate(" 20 , 10 "))
	assert.Equal(t, []int{10}, parseTemplate("abc,10,-5,0"))
}
