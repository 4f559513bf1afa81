package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bravo68web/ghcrm/pkg/client"
	"github.com/bravo68web/ghcrm/pkg/tracker"
)

func TestRenderRepositories(t *testing.T) {
	var buf bytes.Buffer
	repos := []client.Repository{{
		ID: 7, FullName: "vuejs/vue", Stars: 180000, Forks: 30000, OpenIssues: 600,
		CreatedAt: 1374151488, URL: "https://github.com/vuejs/vue",
	}}

	RenderRepositories(&buf, repos, tracker.Pagination{Page: 2, Limit: 10, Total: 11}, "")

	out := buf.String()
	assert.Contains(t, out, "REPOSITORY")
	assert.Contains(t, out, "vuejs/vue")
	assert.Contains(t, out, "2013-07-18")
	assert.Contains(t, out, "Showing 11-11 of 11 (page 2/2)")
}

func TestRenderRepositoriesEmptyStates(t *testing.T) {
	var buf bytes.Buffer
	RenderRepositories(&buf, nil, tracker.Pagination{Page: 1, Limit: 10}, "")
	assert.Contains(t, buf.String(), "No repositories tracked yet")

	buf.Reset()
	RenderRepositories(&buf, nil, tracker.Pagination{Page: 1, Limit: 10}, "zzz")
	assert.Contains(t, buf.String(), `No repositories match "zzz"`)
}

func TestRenderSuggestions(t *testing.T) {
	var buf bytes.Buffer
	RenderSuggestions(&buf, []tracker.SearchOption{{Label: "facebook/react", Stars: 200000, Description: "UI"}})
	assert.Contains(t, buf.String(), "facebook/react")
	assert.Contains(t, buf.String(), "200000")

	buf.Reset()
	RenderSuggestions(&buf, nil)
	assert.Contains(t, buf.String(), "No matching repositories")
}

func TestRenderUser(t *testing.T) {
	var buf bytes.Buffer
	RenderUser(&buf, nil)
	assert.Equal(t, "Not signed in\n", buf.String())

	buf.Reset()
	RenderUser(&buf, &client.User{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	assert.Contains(t, buf.String(), "Ada Lovelace")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
