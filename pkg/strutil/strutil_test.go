package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdefgh", "abcd***"},
		{"abcdefghijklmnop", "abcd***mnop"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.in), "입력: %q", tt.in)
	}
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitAndTrim("a, , b,c", ","))
	assert.Nil(t, SplitAndTrim(" , ", ","))
	assert.Nil(t, SplitAndTrim("", ","))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "리뷰 결과", Truncate("리뷰 결과", 5))
	assert.Equal(t, "리뷰…", Truncate("리뷰 결과", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}
