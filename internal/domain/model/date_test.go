package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []any{"2021-08-01", "20210801T0000", "2021/08/01", " 2021-08-01T00:00:00Z ", want, &want} {
		got, err := ParseDate(in)
		require.NoError(t, err, "%v", in)
		assert.True(t, want.Equal(got), "%v parsed as %v", in, got)
	}

	_, err := ParseDate("01.08.2021")
	assert.Error(t, err)
	_, err = ParseDate(20210801)
	assert.Error(t, err)
	_, err = ParseDate((*time.Time)(nil))
	assert.Error(t, err)
}
