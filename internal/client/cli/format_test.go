package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{-5, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{200 * 1024, "200 KB"},
		{1024 * 1024, "1 MB"},
		{5*1024*1024*1024 + 512*1024*1024, "5.5 GB"},
		{3 << 50, "3072 TB"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, formatBytes(tc.in), "formatBytes(%d)", tc.in)
	}
}

func TestProgressLine(t *testing.T) {
	line := progressLine("a.txt", 50)
	assert.True(t, strings.HasPrefix(line, "\ra.txt ["))
	assert.Contains(t, line, strings.Repeat("=", barWidth/2)+strings.Repeat(" ", barWidth/2))
	assert.True(t, strings.HasSuffix(line, " 50%"))

	assert.Contains(t, progressLine("x", 150), strings.Repeat("=", barWidth)+"] 100%")
	assert.Contains(t, progressLine("x", -1), "["+strings.Repeat(" ", barWidth)+"]   0%")
}
