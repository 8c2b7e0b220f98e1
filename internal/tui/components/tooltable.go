package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/tui/styles"
)

const (
	columnKeyName   = "name"
	columnKeyParams = "params"
	columnKeyDesc   = "description"
)

// ToolTable lists the configured tools and tracks the selected one.
type ToolTable struct {
	table    table.Model
	tools    []catalog.ToolDescriptor
	selected int
	width    int
	height   int
}

func NewToolTable(tools []catalog.ToolDescriptor) *ToolTable {
	rows := make([]table.Row, len(tools))
	for i, t := range tools {
		rows[i] = table.NewRow(table.RowData{
			columnKeyName:   t.Name,
			columnKeyParams: strings.Join(t.InputSchema.Required, ", "),
			columnKeyDesc:   t.Description,
		})
	}

	tt := &ToolTable{tools: tools}
	tt.table = table.New([]table.Column{
		table.NewColumn(columnKeyName, "Tool", 16),
		table.NewColumn(columnKeyParams, "Params", 14),
		table.NewFlexColumn(columnKeyDesc, "Description", 1),
	}).
		WithRows(rows).
		HeaderStyle(styles.ToolHeaderStyle).
		HighlightStyle(styles.ToolHighlightStyle).
		BorderRounded().
		Focused(true)
	tt.SetSize(60, 10)
	return tt
}

// SetSize fits the table into width columns and height lines.
func (tt *ToolTable) SetSize(width, height int) {
	tt.width, tt.height = width, height
	// Header and borders take four lines
	pageSize := height - 4
	if pageSize < 1 {
		pageSize = 1
	}
	tt.table = tt.table.
		WithTargetWidth(width).
		WithPageSize(pageSize)
}

func (tt *ToolTable) Len() int {
	return len(tt.tools)
}

// Selected returns the highlighted tool.
func (tt *ToolTable) Selected() (catalog.ToolDescriptor, bool) {
	if len(tt.tools) == 0 {
		return catalog.ToolDescriptor{}, false
	}
	return tt.tools[tt.selected], true
}

// Select highlights the named tool. It reports whether the name is known.
func (tt *ToolTable) Select(name string) bool {
	for i, t := range tt.tools {
		if t.Name == name {
			tt.setSelected(i)
			return true
		}
	}
	return false
}

func (tt *ToolTable) MoveUp() {
	if tt.selected > 0 {
		tt.setSelected(tt.selected - 1)
	}
}

func (tt *ToolTable) MoveDown() {
	if tt.selected < len(tt.tools)-1 {
		tt.setSelected(tt.selected + 1)
	}
}

func (tt *ToolTable) setSelected(i int) {
	tt.selected = i
	tt.table = tt.table.WithHighlightedRow(i)
}

// Skeleton returns an input line for the selected tool with one key= per
// required parameter.
func (tt *ToolTable) Skeleton() string {
	t, ok := tt.Selected()
	if !ok {
		return ""
	}
	parts := []string{t.Name}
	for _, p := range t.InputSchema.Required {
		parts = append(parts, p+"=")
	}
	return strings.Join(parts, " ")
}

func (tt *ToolTable) View() string {
	if len(tt.tools) == 0 {
		return lipgloss.NewStyle().
			Width(tt.width).
			Render(styles.InfoStyle.Render("No commands configured"))
	}
	return tt.table.View()
}
