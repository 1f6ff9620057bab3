package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/mediainsight/internal/model"
)

func TestExtractTitleAndDescription(t *testing.T) {
	sentinel := model.TitleDescription{Title: "Generated Media", Description: " -"}
	require.Equal(t, sentinel, model.TitleDescription{Title: DefaultMediaTitle, Description: DefaultMediaDescription})
	tests := []struct {
		name string
		text string
		want model.TitleDescription
	}{
		{
			name: "bold labels",
			text: "**Title:** Cabin at Sunset\n**Description:** A cozy cabin glowing at dusk.",
			want: model.TitleDescription{Title: "Cabin at Sunset", Description: "A cozy cabin glowing at dusk."},
		},
		{
			name: "multi line description",
			text: "**Title:** Harbor\n\n**Description:** Boats at rest.\nGulls overhead.\n",
			want: model.TitleDescription{Title: "Harbor", Description: "Boats at rest.\nGulls overhead."},
		},
		{
			name: "preamble before title",
			text: "Here is your image:\n**Title:** Fox\n**Description:** A red fox.",
			want: model.TitleDescription{Title: "Fox", Description: "A red fox."},
		},
		{
			name: "unlabelled title line",
			text: "Mountain Lake\n**Description:** Still water.",
			want: model.TitleDescription{Title: "Mountain Lake", Description: "Still water."},
		},
		{name: "no description label", text: "**Title:** Lonely title", want: sentinel},
		{name: "empty", text: "", want: sentinel},
		{name: "description on same line", text: "Title **Description:** x", want: sentinel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitleAndDescription(tt.text))
		})
	}
}
