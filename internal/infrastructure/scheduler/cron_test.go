package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronSchedule_Invalid(t *testing.T) {
	cases := []string{
		"* * * *",        // too few fields
		"* * * * * *",    // too many fields
		"61 * * * *",     // minute out of range
		"* 25 * * *",     // hour out of range
		"*/0 * * * *",    // zero step
		"banana * * * *", // not a number
	}
	for _, expr := range cases {
		_, err := ParseCronSchedule(expr)
		assert.Error(t, err, expr)
	}
}

func TestCronSchedule_Next(t *testing.T) {
	base := time.Date(2026, 2, 2, 10, 17, 30, 0, time.UTC) // a Monday

	cases := map[string]struct {
		expr string
		want time.Time
	}{
		"every 5 minutes": {
			expr: "*/5 * * * *",
			want: time.Date(2026, 2, 2, 10, 20, 0, 0, time.UTC),
		},
		"daily at 03:00": {
			expr: "0 3 * * *",
			want: time.Date(2026, 2, 3, 3, 0, 0, 0, time.UTC),
		},
		"sunday midnight": {
			expr: "0 0 * * 0",
			want: time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC),
		},
		"minute list": {
			expr: "15,45 * * * *",
			want: time.Date(2026, 2, 2, 10, 45, 0, 0, time.UTC),
		},
		"hour range": {
			expr: "0 9-17 * * *",
			want: time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC),
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cs, err := ParseCronSchedule(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cs.Next(base))
			assert.Equal(t, tc.expr, cs.String())
		})
	}
}

func TestCronSchedule_NextIsStrictlyAfter(t *testing.T) {
	cs := MustParseCronSchedule("0 3 * * *")

	// Asking at exactly 03:00 yields the next day, never the same instant.
	at := time.Date(2026, 2, 2, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(24*time.Hour), cs.Next(at))
}

func TestCronSchedule_ImplementsSchedule(t *testing.T) {
	var _ Schedule = MustParseCronSchedule("* * * * *")
}
