package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tradesim/src/model"
)

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"mon", "Tuesday", " FRI ", "MON"})
	require.NoError(t, err)
	require.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Friday}, days)

	_, err = ParseWeekdays([]string{"MON", "FUNDAY"})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = ParseWeekdays(nil)
	require.ErrorIs(t, err, model.ErrValidation)
}
