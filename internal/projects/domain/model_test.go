package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p := New("k1")

	assert.Equal(t, "k1", p.ProjectKey)
	assert.Equal(t, Sources{}, p.Sources)
	assert.Equal(t, []string{ComponentConsole}, p.HiddenUIComponents.Slice())
	assert.Equal(t, 0, p.EnabledLibraries.Len())
	assert.Nil(t, p.UpdatedAt)
	assert.True(t, IsPristine(p))
}

func TestFromData(t *testing.T) {
	ts := int64(42)
	data := ProjectData{
		ProjectKey:         "k1",
		Sources:            Sources{HTML: "<p>hi</p>"},
		EnabledLibraries:   []string{"jquery"},
		HiddenUIComponents: []string{"output"},
		UpdatedAt:          &ts,
	}

	p := FromData(data)

	assert.Equal(t, []string{ComponentConsole, "output"}, p.HiddenUIComponents.Slice())
	assert.Equal(t, []string{"jquery"}, p.EnabledLibraries.Slice())
	require.NotNil(t, p.UpdatedAt)
	assert.Equal(t, int64(42), *p.UpdatedAt)

	ts = 7
	assert.Equal(t, int64(42), *p.UpdatedAt, "timestamp must not alias the record")
}

func TestProject_DataRoundTrip(t *testing.T) {
	p := New("k1").Touch(5)
	p.Sources = p.Sources.With(LanguageCSS, "p {}")
	p.EnabledLibraries = NewSet("lodash")

	back := FromData(p.Data())

	assert.Equal(t, p.Sources, back.Sources)
	assert.True(t, p.EnabledLibraries.Equal(back.EnabledLibraries))
	assert.True(t, p.HiddenUIComponents.Equal(back.HiddenUIComponents))
	assert.Equal(t, *p.UpdatedAt, *back.UpdatedAt)
}

func TestIsPristine(t *testing.T) {
	tests := []struct {
		name string
		p    Project
		want bool
	}{
		{"fresh", New("a"), true},
		{"touched", New("a").Touch(1), false},
		{"edited source", Project{ProjectKey: "a", Sources: Sources{JavaScript: "x"}, HiddenUIComponents: NewSet(ComponentConsole)}, false},
		{"library enabled", Project{ProjectKey: "a", EnabledLibraries: NewSet("jquery"), HiddenUIComponents: NewSet(ComponentConsole)}, false},
		{"console shown", Project{ProjectKey: "a"}, false},
		{"instructions", Project{ProjectKey: "a", Instructions: "do it", HiddenUIComponents: NewSet(ComponentConsole)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPristine(tt.p))
		})
	}
}

func TestParseLanguage(t *testing.T) {
	for _, l := range Languages {
		got, err := ParseLanguage(string(l))
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}

	_, err := ParseLanguage("python")
	assert.True(t, errors.Is(err, ErrUnknownLanguage))
}

func TestSources_GetWith(t *testing.T) {
	s := Sources{}.With(LanguageHTML, "a").With(LanguageJavaScript, "b")
	assert.Equal(t, "a", s.Get(LanguageHTML))
	assert.Equal(t, "", s.Get(LanguageCSS))
	assert.Equal(t, "b", s.Get(LanguageJavaScript))
}
