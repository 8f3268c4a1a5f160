package tui

import (
	"fmt"
	"strconv"
	"strings"

	"signal-forest/internal/ml/evaluation"
	"signal-forest/internal/ml/training"
	"signal-forest/internal/ml/tree"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	cellStyle   = lipgloss.NewStyle().Width(7).Align(lipgloss.Right)
	headStyle   = cellStyle.Foreground(lipgloss.Color("245"))
	rowStyle    = lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("245"))
	diagStyle   = cellStyle.Foreground(lipgloss.Color("42")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Result is one finished run as the menu shows it.
type Result struct {
	Symbol    string
	Learner   tree.Kind
	Bags      int
	TrainRows int
	TestRows  int
	Report    training.Report
}

// RenderReport formats res as a boxed block of scores plus, for classifier
// runs, the confusion matrix.
func RenderReport(res *Result) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s x%d", res.Symbol, learnerName(res.Learner), res.Bags)))
	b.WriteString("\n")
	b.WriteString(stat("train rows", strconv.Itoa(res.TrainRows)))
	b.WriteString(stat("test rows", strconv.Itoa(res.TestRows)))

	if c := res.Report.Classification; c != nil {
		b.WriteString(stat("accuracy", pct(c.Accuracy)))
		b.WriteString(stat("precision", pct(c.Precision)))
		b.WriteString(stat("recall", pct(c.Recall)))
		b.WriteString(stat("f1", pct(c.F1)))
		if base := res.Report.Baseline; base != nil {
			b.WriteString(stat("boosted", pct(base.Accuracy)+" accuracy"))
		}
		b.WriteString("\n")
		b.WriteString(confusion(c))
	}
	if r := res.Report.Regression; r != nil {
		b.WriteString(stat("rmse", fmt.Sprintf("%.4f", r.RMSE)))
		b.WriteString(stat("mae", fmt.Sprintf("%.4f", r.MAE)))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func stat(name, value string) string {
	return labelStyle.Render(name) + valueStyle.Render(value) + "\n"
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// confusion renders rows as true labels and columns as predicted labels.
func confusion(c *evaluation.ClassificationStats[string]) string {
	header := []string{rowStyle.Render("true\\pred")}
	for _, l := range c.Labels {
		header = append(header, headStyle.Render(l))
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}
	for i, row := range c.Confusion {
		cells := []string{rowStyle.Render(c.Labels[i])}
		for j, n := range row {
			style := cellStyle
			if i == j {
				style = diagStyle
			}
			cells = append(cells, style.Render(strconv.Itoa(n)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func learnerName(k tree.Kind) string {
	switch k {
	case tree.KindDecision:
		return "decision trees"
	case tree.KindRandom:
		return "random trees"
	default:
		return string(k)
	}
}
