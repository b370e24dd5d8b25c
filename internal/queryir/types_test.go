package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/diary/internal/ir"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		view    View
		wantErr bool
	}{
		{"all", All{}, false},
		{"latest positive", Latest{Limit: 1}, false},
		{"latest zero", Latest{Limit: 0}, true},
		{"latest negative", Latest{Limit: -3}, true},
		{"range ordered", Range{Start: 1, End: 2}, false},
		{"range single instant", Range{Start: 5, End: 5}, false},
		{"range inverted", Range{Start: 9, End: 2}, true},
		{"title empty query", TitleSearch{}, false},
		{"content query", ContentSearch{Query: "x"}, false},
		{"nil view", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.view)
			if tt.wantErr {
				assert.ErrorIs(t, err, ir.ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_Details(t *testing.T) {
	err := Validate(Range{Start: 9, End: 2})

	var de *ir.Error
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, "9", de.Details["start"])
	assert.Equal(t, "2", de.Details["end"])
}

func TestName(t *testing.T) {
	assert.Equal(t, "entries", Name(All{}))
	assert.Equal(t, "latestEntries", Name(Latest{Limit: 1}))
	assert.Equal(t, "entriesInRange", Name(Range{}))
	assert.Equal(t, "searchByTitle", Name(TitleSearch{}))
	assert.Equal(t, "searchByContent", Name(ContentSearch{}))
}

func TestFoldContains(t *testing.T) {
	tests := []struct {
		haystack, needle string
		want             bool
	}{
		{"Morning Run", "morning", true},
		{"Morning Run", "RUN", true},
		{"Morning Run", "evening", false},
		{"anything", "", true},
		{"", "", true},
		{"", "x", false},
		{"Straße", "STRASSE", true},
		{"ΣΊΣΥΦΟΣ", "σίσυφος", true},
		{"Café au lait", "CAFE\u0301", true},
		{"Cafe\u0301", "café", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldContains(tt.haystack, tt.needle), "%q in %q", tt.needle, tt.haystack)
	}
}
