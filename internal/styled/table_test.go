package styled

import (
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
)

func TestNewTableWriter(t *testing.T) {
	text.DisableColors()
	defer text.EnableColors()

	tw := NewTableWriter()
	tw.AppendHeader(table.Row{"name", "Rows"})
	tw.AppendRow(table.Row{"users", 3})
	out := tw.Render()

	assert.Contains(t, out, "name")
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "┌")
}

func TestNewMessageTable(t *testing.T) {
	text.DisableColors()
	defer text.EnableColors()

	out := NewMessageTable("Error", "no such table: nope").Render()
	assert.Contains(t, out, "Error")
	assert.Contains(t, out, "no such table: nope")
}
