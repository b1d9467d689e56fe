package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	t.Run("unknown page", func(t *testing.T) {
		p, ok := Page("blog")

		assert.False(t, ok)
		assert.Nil(t, p)
	})

	t.Run("home", func(t *testing.T) {
		p, ok := Page("home")

		assert.True(t, ok)
		h, isHome := p.(Home)
		assert.True(t, isHome)
		assert.Equal(t, "Keiran", h.Name)
		assert.NotEmpty(t, h.Taglines)
	})

	t.Run("projects", func(t *testing.T) {
		p, ok := Page("projects")

		assert.True(t, ok)
		list, isList := p.([]Project)
		assert.True(t, isList)
		assert.NotEmpty(t, list)
		for _, project := range list {
			assert.NotEmpty(t, project.Title)
			assert.NotEmpty(t, project.URL)
		}
	})

	t.Run("every page serializes", func(t *testing.T) {
		for _, name := range PageNames() {
			p, ok := Page(name)
			assert.True(t, ok)

			_, err := json.Marshal(p)
			assert.NoError(t, err, "page %q must serialize", name)
		}
	})
}

func TestPageNames(t *testing.T) {
	names := PageNames()

	assert.Len(t, names, 4)
	assert.ElementsMatch(t, []string{"home", "projects", "contact", "system"}, names)
}
