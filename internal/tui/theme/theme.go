package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/OneVth/prj-board/internal/board"
)

// hotLikes is where a post title switches to the hot style.
const hotLikes = 20

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	Counter    lipgloss.Style
	Author     lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style
	Spinner    lipgloss.Style
	Prompt     lipgloss.Style
	Marker     lipgloss.Style

	TitleHot     lipgloss.Style
	TitleDiscuss lipgloss.Style
	TitleQuiet   lipgloss.Style
}

func Default() Theme {
	cpRosewater := lipgloss.Color("#f5e0dc")
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:   lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		Counter:    lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		Author:     lipgloss.NewStyle().Foreground(cpSubtext0),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),
		Spinner:    lipgloss.NewStyle().Foreground(cpPeach),
		Prompt:     lipgloss.NewStyle().Foreground(cpMauve).Bold(true),
		Marker:     lipgloss.NewStyle().Foreground(cpOverlay1).Italic(true),

		TitleHot:     lipgloss.NewStyle().Bold(true).Foreground(cpRosewater),
		TitleDiscuss: lipgloss.NewStyle().Bold(true).Foreground(cpText),
		TitleQuiet:   lipgloss.NewStyle().Foreground(cpSubtext0),
	}
}

// StylePostTitle picks a title style from the post's engagement, so the
// list reads at a glance: hot posts pop, quiet ones recede.
func (t Theme) StylePostTitle(p board.Post, title string) string {
	if title == "" {
		return title
	}
	switch {
	case p.Likes >= hotLikes:
		return t.TitleHot.Render(title)
	case p.CommentCount > 0:
		return t.TitleDiscuss.Render(title)
	default:
		return t.TitleQuiet.Render(title)
	}
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
