package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

func TestRootCmd_Subcommands(t *testing.T) {
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, want := range []string{"admin", "export", "list", "show", "stats", "watch"} {
		found := false
		for _, name := range got {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing subcommand %q in %v", want, got)
		}
	}

	create, _, err := rootCmd.Find([]string{"admin", "create"})
	if err != nil || create.Name() != "create" {
		t.Fatalf("admin create not registered: %v", err)
	}
	if create.Flags().Lookup("email") == nil || create.Flags().Lookup("password") == nil {
		t.Error("admin create must have --email and --password")
	}
	revoke, _, err := rootCmd.Find([]string{"admin", "revoke-sessions"})
	if err != nil || revoke.Name() != "revoke-sessions" || revoke.Flags().Lookup("email") == nil {
		t.Errorf("admin revoke-sessions --email not registered: %v", err)
	}
	if rootCmd.PersistentFlags().Lookup("database-url") == nil {
		t.Error("missing persistent --database-url")
	}
}

func TestPrintMessages(t *testing.T) {
	acme := "Acme"
	msgs := []*model.ContactMessage{{
		ID: "id-1", Name: "Ann", Email: "ann@example.com", Company: &acme,
		Message: "line one\nline two", Status: model.StatusNew,
		CreatedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}}
	var buf bytes.Buffer
	if err := printMessages(&buf, msgs); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("unexpected header %q", lines[0])
	}
	for _, want := range []string{"id-1", "new", "Ann", "ann@example.com", "Acme", "line one line two"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"  many\n\tspaces  here ", 40, "many spaces here"},
		{"abcdefghij", 5, "abcd…"},
		{"こんにちは世界", 4, "こんに…"},
	}
	for _, tt := range tests {
		if got := preview(tt.in, tt.n); got != tt.want {
			t.Errorf("preview(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestPrintMessages_WideCharactersKeepColumnsAligned(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	msgs := []*model.ContactMessage{
		{ID: "id-1", Name: "Ann Lee", Email: "ann@example.com", Message: "hi", Status: model.StatusNew, CreatedAt: at},
		{ID: "id-2", Name: "山田 太郎", Email: "taro@example.jp", Message: "こんにちは", Status: model.StatusRead, CreatedAt: at},
	}
	var buf bytes.Buffer
	if err := printMessages(&buf, msgs); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got:\n%s", buf.String())
	}
	// 端末上の表示幅 (セル数) で EMAIL 列の開始位置を比較する
	var cols []int
	for i, email := range []string{"EMAIL", "ann@example.com", "taro@example.jp"} {
		idx := strings.Index(lines[i], email)
		if idx < 0 {
			t.Fatalf("line %d missing %q: %q", i, email, lines[i])
		}
		cols = append(cols, lipgloss.Width(lines[i][:idx]))
	}
	if cols[0] != cols[1] || cols[1] != cols[2] {
		t.Errorf("EMAIL column starts at cells %v, want all equal:\n%s", cols, buf.String())
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	err := printStats(&buf, model.Stats{
		TotalCount: 4, NewCount: 2, ReadCount: 1, RepliedCount: 1, PendingCount: 3, ResponseRatePercent: 25,
		Trends: model.Trends{Response: model.TrendNeedsAttention, Today: model.TrendQuietDay, Recent: model.TrendNormal},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := map[string][]string{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		f := strings.Fields(line)
		got[f[0]] = f[1:]
	}
	if diff := cmp.Diff([]string{"4"}, got["total"]); diff != "" {
		t.Errorf("total (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"3"}, got["pending"]); diff != "" {
		t.Errorf("pending (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"25%", "Needs", "attention"}, got["response"]); diff != "" {
		t.Errorf("response (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0", "Quiet", "day"}, got["today"]); diff != "" {
		t.Errorf("today (-want +got):\n%s", diff)
	}
}

func TestPrintMessage(t *testing.T) {
	updated := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	m := &model.ContactMessage{
		ID: "id-1", Name: "Ann", Email: "ann@example.com", Message: "line one\nline two",
		Status: model.StatusRead, CreatedAt: updated.Add(-time.Hour), UpdatedAt: &updated,
	}
	var buf bytes.Buffer
	if err := printMessage(&buf, m); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"id-1", "read", "ann@example.com", "updated", "line one\nline two\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "company") {
		t.Errorf("empty company should be omitted:\n%s", out)
	}
}

func TestRunShow_RejectsNonUUID(t *testing.T) {
	if err := runShow(&cobra.Command{}, []string{"not-a-uuid"}); err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Errorf("expected invalid id error, got %v", err)
	}
}

type stubSource struct {
	onChange func()
}

func (s *stubSource) List(context.Context) ([]*model.ContactMessage, error) { return nil, nil }
func (s *stubSource) UpdateStatus(context.Context, string, model.Status) (time.Time, error) {
	return time.Time{}, nil
}
func (s *stubSource) Delete(context.Context, string) error { return nil }
func (s *stubSource) Subscribe(_ context.Context, onChange func()) (repository.Unsubscribe, error) {
	s.onChange = onChange
	return func() {}, nil
}

func TestAfterChange_RunsAfterControllerCallback(t *testing.T) {
	stub := &stubSource{}
	var order []string
	src := afterChange{Source: stub, after: func() { order = append(order, "after") }}

	if _, err := src.Subscribe(context.Background(), func() { order = append(order, "refresh") }); err != nil {
		t.Fatal(err)
	}
	stub.onChange()
	if diff := cmp.Diff([]string{"refresh", "after"}, order); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestAdminCreate_RequiresPassword(t *testing.T) {
	t.Setenv("INBOXCTL_PASSWORD", "")
	adminPassword = ""
	if err := runAdminCreate(&cobra.Command{}, nil); err == nil || !strings.Contains(err.Error(), "password") {
		t.Errorf("expected password error, got %v", err)
	}
}
