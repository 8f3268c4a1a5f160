package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"signal-forest/internal/ml/evaluation"
	"signal-forest/internal/ml/training"
	"signal-forest/internal/ml/tree"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and any batched commands, returning the first
// runFinishedMsg it produces.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if m, ok := c().(runFinishedMsg); ok {
				return m
			}
		}
		t.Fatal("batch produced no run result")
	}
	return msg
}

func sampleResult(kind tree.Kind) *Result {
	return &Result{
		Symbol:    "AAPL",
		Learner:   kind,
		Bags:      20,
		TrainRows: 160,
		TestRows:  40,
		Report: training.Report{
			Classification: &evaluation.ClassificationStats[string]{
				Accuracy:  0.625,
				Precision: 0.5,
				Recall:    0.625,
				F1:        0.55,
				Labels:    []string{"B", "H", "S"},
				Confusion: [][]int{{5, 3, 1}, {2, 18, 1}, {1, 5, 4}},
				N:         40,
			},
		},
	}
}

func TestMenuRunsChosenLearner(t *testing.T) {
	var got tree.Kind
	m := NewModel(context.Background(), "forest", func(ctx context.Context, kind tree.Kind) (*Result, error) {
		got = kind
		return sampleResult(kind), nil
	})

	m.Update(key("down"))
	_, cmd := m.Update(key("enter"))
	if m.state != stateRunning {
		t.Fatalf("expected running state, got %v", m.state)
	}
	if !strings.Contains(m.View(), "random trees") {
		t.Fatalf("running view should name the learner: %q", m.View())
	}

	m.Update(runCmd(t, cmd))
	if got != tree.KindRandom {
		t.Fatalf("expected random tree runner, got %q", got)
	}
	if m.state != stateDone || m.result == nil {
		t.Fatalf("expected finished state with result, got %v", m.state)
	}
	view := m.View()
	for _, want := range []string{"62.50%", "train rows", "true\\pred", "18"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m.Update(key("enter"))
	if m.state != stateMenu || m.result != nil {
		t.Fatal("expected to return to the menu")
	}
}

func TestMenuShowsErrors(t *testing.T) {
	m := NewModel(context.Background(), "forest", func(ctx context.Context, kind tree.Kind) (*Result, error) {
		return nil, errors.New("no market data")
	})
	_, cmd := m.Update(key("enter"))
	m.Update(runCmd(t, cmd))
	if !strings.Contains(m.View(), "Training failed: no market data") {
		t.Fatalf("expected error in view:\n%s", m.View())
	}
}

func TestMenuWithoutRunner(t *testing.T) {
	m := NewModel(context.Background(), "forest", nil)
	_, cmd := m.Update(key("enter"))
	msg, ok := runCmd(t, cmd).(runFinishedMsg)
	if !ok || msg.err == nil {
		t.Fatalf("expected runner error, got %#v", msg)
	}
}

func TestMenuCursorBounds(t *testing.T) {
	m := NewModel(context.Background(), "forest", nil)
	m.Update(key("up"))
	if m.cursor != 0 {
		t.Fatalf("cursor moved above the first item: %d", m.cursor)
	}
	for i := 0; i < 10; i++ {
		m.Update(key("j"))
	}
	if m.cursor != len(choices)-1 {
		t.Fatalf("cursor should stop at the last item, got %d", m.cursor)
	}
}

func TestMenuQuit(t *testing.T) {
	m := NewModel(context.Background(), "forest", nil)
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Fatal("expected quit command")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}

	m.cursor = len(choices) - 1
	if _, cmd := m.Update(key("enter")); cmd == nil {
		t.Fatal("selecting Quit should quit")
	}
}

func TestRenderRegressionReport(t *testing.T) {
	out := RenderReport(&Result{
		Symbol:  "MSFT",
		Learner: tree.KindDecision,
		Bags:    5,
		Report: training.Report{
			Regression: &evaluation.RegressionStats{RMSE: 1.25, MAE: 0.5, N: 10},
		},
	})
	if !strings.Contains(out, "1.2500") || !strings.Contains(out, "decision trees") {
		t.Fatalf("unexpected report:\n%s", out)
	}
	if strings.Contains(out, "true\\pred") {
		t.Fatal("regression report must not render a confusion matrix")
	}
	if RenderReport(nil) != "" {
		t.Fatal("nil result renders empty")
	}
}

func TestWindowSize(t *testing.T) {
	m := NewModel(context.Background(), "forest", nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if m.width != 100 || m.height != 30 {
		t.Fatalf("size not recorded: %dx%d", m.width, m.height)
	}
}

type trainerStub struct {
	req training.Request
}

func (s *trainerStub) Run(ctx context.Context, req training.Request) (*training.RunResult, error) {
	s.req = req
	res := &training.RunResult{Report: sampleResult(tree.KindDecision).Report}
	res.Run.Symbol = "AAPL"
	res.Run.Learner = req.Learner
	res.Run.Bags = 7
	res.Run.TrainRows = 80
	return res, nil
}

func TestServiceRunner(t *testing.T) {
	stub := &trainerStub{}
	res, err := ServiceRunner(stub)(context.Background(), tree.KindDecision)
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	if stub.req.Learner != "dt" {
		t.Fatalf("expected learner override dt, got %q", stub.req.Learner)
	}
	if res.Learner != tree.KindDecision || res.Bags != 7 || res.TrainRows != 80 || res.Report.Classification == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}
