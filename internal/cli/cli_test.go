package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eventcal/internal/model"
	"eventcal/internal/mutate"
	"eventcal/internal/store"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func mustRun(t *testing.T, args ...string) []byte {
	t.Helper()
	out, errOut, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("%v: %v\nstderr:\n%s", args, err, errOut)
	}
	return out
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Hints []string        `json:"_hints"`
}

func decodeData(t *testing.T, out []byte, v any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v\n%s", err, out)
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("unmarshal data: %v\n%s", err, env.Data)
		}
	}
	return env
}

func TestEvents_AddShowEditListDelete(t *testing.T) {
	dir := t.TempDir()

	var added model.Event
	env := decodeData(t, mustRun(t, "--dir", dir, "events", "add",
		"--title", "Standup", "--date", "2025-03-10", "--category", "work", "--desc", "daily"), &added)
	if !store.LooksLikeEventID(added.ID) || added.Category != model.CategoryWork || added.Date.String() != "2025-03-10" {
		t.Fatalf("unexpected event %+v", added)
	}
	if len(env.Hints) != 1 || env.Hints[0] != "eventcal events show "+added.ID {
		t.Fatalf("unexpected hints %v", env.Hints)
	}

	var shown model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "show", added.ID), &shown)
	if shown != added {
		t.Fatalf("show mismatch: %+v vs %+v", shown, added)
	}

	var edited model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "edit", added.ID, "--title", "Daily standup"), &edited)
	if edited.Title != "Daily standup" || edited.Desc != "daily" || edited.Date != added.Date {
		t.Fatalf("edit should only touch the title: %+v", edited)
	}

	mustRun(t, "--dir", dir, "events", "add", "--title", "Review", "--date", "2025-04-02", "--category", "Work")
	mustRun(t, "--dir", dir, "events", "add", "--title", "Gym", "--date", "2025-03-12", "--category", "Personal")

	var march []model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "list", "--month", "2025-03"), &march)
	if len(march) != 2 || march[0].Title != "Daily standup" || march[1].Title != "Gym" {
		t.Fatalf("unexpected march list %+v", march)
	}

	var work []model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "list", "--category", "Work"), &work)
	if len(work) != 2 {
		t.Fatalf("expected 2 work events, got %+v", work)
	}

	mustRun(t, "--dir", dir, "events", "delete", added.ID)
	_, errOut, err := runCLI(t, []string{"--dir", dir, "events", "show", added.ID})
	var nf mutate.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(string(errOut), "Event not found") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestEvents_AddRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	var ve mutate.ValidationError
	for _, bad := range []string{"2025-02-30", "2025-13-01", "hello tomorrow world"} {
		_, errOut, err := runCLI(t, []string{"--dir", dir, "events", "add", "--title", "x", "--date", bad})
		if !errors.As(err, &ve) || ve.Field != "date" {
			t.Fatalf("%q: expected date validation error, got %v", bad, err)
		}
		if !strings.Contains(string(errOut), "invalid date") {
			t.Fatalf("%q: unexpected stderr %q", bad, errOut)
		}
	}

	_, _, err := runCLI(t, []string{"--dir", dir, "events", "add", "--title", "x", "--date", "2025-02-03", "--category", "Holiday"})
	if !errors.As(err, &ve) || ve.Field != "category" {
		t.Fatalf("expected category validation error, got %v", err)
	}

	var all []model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "list"), &all)
	if len(all) != 0 {
		t.Fatalf("nothing should be stored, got %+v", all)
	}

	var added model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "add", "--title", "ok", "--date", "2025-02-03"), &added)
	_, _, err = runCLI(t, []string{"--dir", dir, "events", "edit", added.ID, "--date", "2025-02-30"})
	if !errors.As(err, &ve) || ve.Field != "date" {
		t.Fatalf("expected date validation error on edit, got %v", err)
	}
	var shown model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "show", added.ID), &shown)
	if shown.Date.String() != "2025-02-03" {
		t.Fatalf("date changed after rejected edit: %s", shown.Date)
	}
}

func TestCalendarAndUpcoming(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "events", "add", "--title", "A", "--date", "2025-03-10", "--category", "Work")
	mustRun(t, "--dir", dir, "events", "add", "--title", "B", "--date", "2999-06-01", "--category", "Work")
	mustRun(t, "--dir", dir, "events", "add", "--title", "C", "--date", "2999-02-01", "--category", "Personal")

	var cal struct {
		Title    string   `json:"title"`
		Weekdays []string `json:"weekdays"`
		Grid     struct {
			Weeks [][]struct {
				Date   string        `json:"date"`
				Events []model.Event `json:"events"`
			} `json:"weeks"`
		} `json:"grid"`
	}
	decodeData(t, mustRun(t, "--dir", dir, "calendar", "--month", "2025-03"), &cal)
	if cal.Title != "March 2025" || cal.Weekdays[0] != "Sun" || len(cal.Grid.Weeks) != 6 {
		t.Fatalf("unexpected calendar %+v", cal)
	}
	if first := cal.Grid.Weeks[0][0].Date; first != "2025-02-23" {
		t.Fatalf("expected grid to start 2025-02-23, got %s", first)
	}

	var up struct {
		Count  int `json:"count"`
		Groups []struct {
			Label  string `json:"label"`
			Months []struct {
				Label string `json:"label"`
			} `json:"months"`
		} `json:"groups"`
	}
	decodeData(t, mustRun(t, "--dir", dir, "upcoming", "--year", "2999"), &up)
	if up.Count != 2 || len(up.Groups) != 1 || up.Groups[0].Label != "2999" {
		t.Fatalf("unexpected upcoming %+v", up)
	}
	if up.Groups[0].Months[0].Label != "February 2999" || up.Groups[0].Months[1].Label != "June 2999" {
		t.Fatalf("expected months ascending, got %+v", up.Groups[0].Months)
	}

	decodeData(t, mustRun(t, "--dir", dir, "upcoming", "--year", "2999", "--category", "Personal"), &up)
	if up.Count != 1 {
		t.Fatalf("expected 1 personal event, got %d", up.Count)
	}
}

func TestExportImport_JSONAndICS(t *testing.T) {
	src := t.TempDir()
	mustRun(t, "--dir", src, "events", "add", "--title", "Party", "--date", "2025-05-01", "--category", "Entertainment", "--desc", "bring snacks")

	jsonPath := filepath.Join(t.TempDir(), "events.json")
	mustRun(t, "--dir", src, "export", "--out", jsonPath)
	icsOut := mustRun(t, "--dir", src, "export", "--as", "ics")
	if !strings.Contains(string(icsOut), "BEGIN:VEVENT") || !strings.Contains(string(icsOut), "Party") {
		t.Fatalf("unexpected ics:\n%s", icsOut)
	}
	icsPath := filepath.Join(t.TempDir(), "events.ics")
	if err := os.WriteFile(icsPath, icsOut, 0o644); err != nil {
		t.Fatal(err)
	}

	dst := t.TempDir()
	var res struct {
		Added    int `json:"added"`
		Replaced int `json:"replaced"`
		Total    int `json:"total"`
	}
	decodeData(t, mustRun(t, "--dir", dst, "import", jsonPath), &res)
	if res.Added != 1 || res.Total != 1 {
		t.Fatalf("unexpected json import %+v", res)
	}
	// Same UIDs again: replaced, not duplicated.
	decodeData(t, mustRun(t, "--dir", dst, "import", icsPath), &res)
	if res.Added != 0 || res.Replaced != 1 || res.Total != 1 {
		t.Fatalf("unexpected ics import %+v", res)
	}

	var all []model.Event
	decodeData(t, mustRun(t, "--dir", dst, "events", "list"), &all)
	if len(all) != 1 || all[0].Category != model.CategoryEntertainment || all[0].Desc != "bring snacks" {
		t.Fatalf("unexpected events after import %+v", all)
	}
}

func TestImport_AssignsMissingIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "legacy.json")
	raw := `[{"title":"No id","date":"2025-01-02","category":""},{"id":"_abc","title":"Old id","date":"2025-01-03","category":"Work"}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, "--dir", dir, "import", path)

	var all []model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "list"), &all)
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %+v", all)
	}
	if !store.LooksLikeEventID(all[0].ID) || all[0].Category != model.CategoryOthers {
		t.Fatalf("expected generated id and Others category, got %+v", all[0])
	}
	if all[1].ID != "_abc" {
		t.Fatalf("existing ids must be kept, got %q", all[1].ID)
	}
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "events", "add", "--title", "A", "--date", "2025-03-10")

	var res struct {
		Path string `json:"path"`
	}
	decodeData(t, mustRun(t, "--dir", dir, "backup", "--keep", "3"), &res)
	b, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(b), `"title":"A"`) && !strings.Contains(string(b), `"title": "A"`) {
		t.Fatalf("unexpected backup contents %s", b)
	}

	var list []string
	decodeData(t, mustRun(t, "--dir", dir, "backup", "list"), &list)
	if len(list) != 1 || list[0] != res.Path {
		t.Fatalf("unexpected backup list %v", list)
	}
}

func TestConfigGetSet(t *testing.T) {
	dir := t.TempDir()

	var kv struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	decodeData(t, mustRun(t, "--dir", dir, "config", "get", "week_start"), &kv)
	if kv.Value != "sunday" {
		t.Fatalf("expected default sunday, got %q", kv.Value)
	}
	mustRun(t, "--dir", dir, "config", "set", "week_start", "monday")
	decodeData(t, mustRun(t, "--dir", dir, "config", "get", "week_start"), &kv)
	if kv.Value != "monday" {
		t.Fatalf("expected monday, got %q", kv.Value)
	}

	var cal struct {
		Weekdays []string `json:"weekdays"`
	}
	decodeData(t, mustRun(t, "--dir", dir, "calendar", "--month", "2025-03"), &cal)
	if cal.Weekdays[0] != "Mon" {
		t.Fatalf("expected monday start, got %v", cal.Weekdays)
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "config", "set", "week_start", "friday"}); err == nil {
		t.Fatalf("expected invalid week_start to be rejected")
	}
}

func TestDocs(t *testing.T) {
	var topics struct {
		Topics []struct {
			Name string `json:"name"`
		} `json:"topics"`
	}
	decodeData(t, mustRun(t, "docs"), &topics)
	found := false
	for _, tp := range topics.Topics {
		if tp.Name == "keys" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected keys topic, got %+v", topics)
	}

	out := mustRun(t, "docs", "keys", "--raw")
	if !strings.HasPrefix(string(out), "# ") {
		t.Fatalf("expected raw markdown, got %q", out)
	}

	if _, _, err := runCLI(t, []string{"docs", "../etc"}); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}

func TestFormatEDN(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "events", "add", "--title", "A", "--date", "2025-03-10")
	out := mustRun(t, "--dir", dir, "--format", "edn", "events", "list")
	if !strings.HasPrefix(string(out), "{:data [") {
		t.Fatalf("unexpected edn output %q", out)
	}
}

func TestImport_SkipsBadDatesAndCollapsesRepeatedIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "messy.json")
	raw := `[
		{"id":"dup","title":"a","date":"not-a-date"},
		{"id":"dup","title":"b","date":"2025-13-45"},
		{"id":"x","title":"first","date":"2025-05-01"},
		{"id":"x","title":"second","date":"2025-05-02"}
	]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	var res struct {
		Added   int `json:"added"`
		Skipped int `json:"skipped"`
		Total   int `json:"total"`
	}
	decodeData(t, mustRun(t, "--dir", dir, "import", "--replace", path), &res)
	if res.Added != 1 || res.Skipped != 3 || res.Total != 1 {
		t.Fatalf("unexpected import result %+v", res)
	}

	var all []model.Event
	decodeData(t, mustRun(t, "--dir", dir, "events", "list"), &all)
	if len(all) != 1 || all[0].ID != "x" || all[0].Title != "second" || all[0].Date.String() != "2025-05-02" {
		t.Fatalf("unexpected events after import %+v", all)
	}
}
