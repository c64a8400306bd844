package querier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/usersearch/fault"
)

// fixedNow is Wednesday 13 March 2024, 10:30 UTC.
var fixedNow = time.Date(2024, time.March, 13, 10, 30, 0, 0, time.UTC)

func newTestCoercer(order DateOrder) *Coercer {
	return NewCoercer(Options{
		DateOrder: order,
		Location:  time.UTC,
		Now:       func() time.Time { return fixedNow },
	})
}

func TestCoerceNumber(t *testing.T) {
	c := newTestCoercer(DateOrderDMY)

	tests := map[string]float64{
		"5":         5,
		"-5":        -5,
		"2.5":       2.5,
		"10*3":      30,
		"(1+2)^2":   9,
		" 100 / 8 ": 12.5,
		"7 % 4":     3,
	}

	for input, want := range tests {
		got, err := c.Coerce(input, TypeNumber)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestCoerceNumberRejectsNonArithmetic(t *testing.T) {
	c := newTestCoercer(DateOrderDMY)

	for _, input := range []string{"3; DROP TABLE x", "abc", "1,5", "", "system('ls')", "1/0", "0x10"} {
		_, err := c.Coerce(input, TypeNumber)
		assert.True(t, fault.Is(err, fault.CoercionCode), input)
	}
}

func TestCoerceStringAndBoolean(t *testing.T) {
	c := newTestCoercer(DateOrderDMY)

	v, err := c.Coerce("  jo% ", TypeString)
	require.NoError(t, err)
	assert.Equal(t, "  jo% ", v)

	for input, want := range map[string]bool{"true": true, "TRUE": true, "False": false, "false": false} {
		v, err := c.Coerce(input, TypeBoolean)
		require.NoError(t, err, input)
		assert.Equal(t, want, v, input)
	}

	for _, input := range []string{"yes", "1", "", "t"} {
		_, err := c.Coerce(input, TypeBoolean)
		assert.True(t, fault.Is(err, fault.CoercionCode), input)
	}
}

func TestCoerceDate(t *testing.T) {
	date := func(y int, m time.Month, d, hh, mm, ss, ms int) time.Time {
		return time.Date(y, m, d, hh, mm, ss, ms*int(time.Millisecond), time.UTC)
	}

	tests := []struct {
		order DateOrder
		input string
		want  time.Time
	}{
		{DateOrderDMY, "today", date(2024, 3, 13, 0, 0, 0, 0)},
		{DateOrderDMY, "Today", date(2024, 3, 13, 0, 0, 0, 0)},
		{DateOrderDMY, "now", fixedNow},
		{DateOrderDMY, "now + 3 minutes", date(2024, 3, 13, 10, 33, 0, 0)},
		{DateOrderDMY, "yesterday", date(2024, 3, 12, 0, 0, 0, 0)},
		{DateOrderDMY, "tomorrow - 1 millisecond", date(2024, 3, 13, 23, 59, 59, 999)},
		{DateOrderDMY, "2024-03-13 + 1 week - 2 days", date(2024, 3, 18, 0, 0, 0, 0)},
		{DateOrderDMY, "01/03/2017", date(2017, 3, 1, 0, 0, 0, 0)},
		{DateOrderDMY, "01-03-2017", date(2017, 3, 1, 0, 0, 0, 0)},
		{DateOrderDMY, "01/03/2017 06:00", date(2017, 3, 1, 6, 0, 0, 0)},
		{DateOrderDMY, "01/03/2017 6pm", date(2017, 3, 1, 18, 0, 0, 0)},
		{DateOrderDMY, "1 Mar 2016 6pm", date(2016, 3, 1, 18, 0, 0, 0)},
		{DateOrderDMY, "2017-03-01 + 3 minutes", date(2017, 3, 1, 0, 3, 0, 0)},
		{DateOrderDMY, "2017-03-01 12:00:00", date(2017, 3, 1, 12, 0, 0, 0)},
		{DateOrderDMY, "next Wednesday", date(2024, 3, 20, 0, 0, 0, 0)},
		{DateOrderDMY, "last friday", date(2024, 3, 8, 0, 0, 0, 0)},
		{DateOrderDMY, "this friday", date(2024, 3, 15, 0, 0, 0, 0)},
		{DateOrderDMY, "first day of Jan", date(2024, 1, 1, 0, 0, 0, 0)},
		{DateOrderDMY, "last day of february", date(2024, 2, 29, 0, 0, 0, 0)},
		{DateOrderDMY, "last day of feb 2023", date(2023, 2, 28, 0, 0, 0, 0)},
		{DateOrderDMY, "first day of next month", date(2024, 4, 1, 0, 0, 0, 0)},
		{DateOrderMDY, "01/03/2017", date(2017, 1, 3, 0, 0, 0, 0)},
		{DateOrderMDY, "Mar 1 2016", date(2016, 3, 1, 0, 0, 0, 0)},
		{DateOrderYMD, "2017/03/01", date(2017, 3, 1, 0, 0, 0, 0)},
		{DateOrderDMY, "oct 7, 1970", date(1970, 10, 7, 0, 0, 0, 0)},
	}

	for _, tt := range tests {
		c := newTestCoercer(tt.order)

		got, err := c.Coerce(tt.input, TypeDate)
		require.NoError(t, err, "%s %q", tt.order, tt.input)
		assert.True(t, tt.want.Equal(got.(time.Time)), "%s %q: got %v, want %v", tt.order, tt.input, got, tt.want)
	}
}

func TestCoerceDateRelativePhrase(t *testing.T) {
	c := newTestCoercer(DateOrderDMY)

	got, err := c.Coerce("in 2 days", TypeDate)
	require.NoError(t, err)

	y, m, d := got.(time.Time).Date()
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.March, m)
	assert.Equal(t, 15, d)
}

func TestCoerceDateConcurrent(t *testing.T) {
	inputs := []string{"in 2 days", "next Wednesday", "now + 3 minutes", "first day of next month"}

	want := make([]time.Time, len(inputs))
	for i, input := range inputs {
		got, err := newTestCoercer(DateOrderDMY).Coerce(input, TypeDate)
		require.NoError(t, err, input)
		want[i] = got.(time.Time)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16*len(inputs))
	for range 16 {
		wg.Go(func() {
			c := newTestCoercer(DateOrderDMY)
			for i, input := range inputs {
				got, err := c.Coerce(input, TypeDate)
				if err != nil || !got.(time.Time).Equal(want[i]) {
					errs <- input
				}
			}
		})
	}
	wg.Wait()
	close(errs)

	for input := range errs {
		t.Errorf("concurrent coercion of %q differs from serial result", input)
	}
}

func TestCoerceDateRejects(t *testing.T) {
	c := newTestCoercer(DateOrderDMY)

	for _, input := range []string{"", "banana", "+ 3 days", "2020-13-45"} {
		_, err := c.Coerce(input, TypeDate)
		assert.True(t, fault.Is(err, fault.CoercionCode), input)
	}
}

func TestParseDateOrder(t *testing.T) {
	for input, want := range map[string]DateOrder{"": DateOrderDMY, "eur": DateOrderDMY, "usa": DateOrderMDY, "MDY": DateOrderMDY, "iso": DateOrderYMD} {
		got, err := ParseDateOrder(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseDateOrder("julian")
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "12.5", FormatValue(12.5))
	assert.Equal(t, "1000000", FormatValue(1e6))
	assert.Equal(t, "-0.25", FormatValue(-0.25))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "2017-03-01 06:00:00", FormatValue(time.Date(2017, 3, 1, 6, 0, 0, 0, time.UTC)))
	assert.Equal(t, "jo%", FormatValue("jo%"))
}
