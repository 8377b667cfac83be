package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTable_RenderPlainText(t *testing.T) {
	tb := newTable("A", "BB")
	tb.addRow("xxx", "y")
	tb.addRow("", "z")

	var buf bytes.Buffer
	if err := tb.render(&buf); err != nil {
		t.Fatal(err)
	}
	want := "A    BB\nxxx  y\n     z\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestTable_WideCellWidth(t *testing.T) {
	tb := newTable()
	tb.addRow("日本", "x")
	tb.addRow("abcd", "y")

	var buf bytes.Buffer
	if err := tb.render(&buf); err != nil {
		t.Fatal(err)
	}
	// "日本" は 4 セル幅なので "abcd" と同じ位置に次の列が来る
	want := "日本  x\nabcd  y\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestTable_WriteError(t *testing.T) {
	tb := newTable("A")
	tb.addRow(strings.Repeat("x", 3))
	if err := tb.render(failWriter{}); err == nil {
		t.Error("expected write error")
	}
}
