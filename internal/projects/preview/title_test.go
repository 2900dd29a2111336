package preview

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
)

func projectWithHTML(html string) domain.Project {
	p := domain.New("k")
	p.Sources.HTML = html
	return p
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"title element", "<html><head><title> My   Page </title></head><body><h1>Other</h1></body></html>", "My Page"},
		{"first body text", "<body><script>var x;</script><h1>\n  Hello\n  world </h1><p>more</p></body>", "Hello world"},
		{"empty document", "", "Untitled"},
		{"only whitespace", "<body>   </body>", "Untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(projectWithHTML(tt.html)))
		})
	}
}

func TestTitle_Truncates(t *testing.T) {
	long := strings.Repeat("é", 80)
	got := Title(projectWithHTML("<title>" + long + "</title>"))

	assert.Equal(t, maxTitleRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
