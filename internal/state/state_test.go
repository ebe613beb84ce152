package state

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/starford/inkpad/internal/apperr"
	"github.com/starford/inkpad/internal/checksum"
	"github.com/starford/inkpad/internal/kvstore"
	"github.com/starford/inkpad/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type failingKV struct{ *kvstore.Memory }

func (f *failingKV) Put(string, []byte) error { return errors.New("disk full") }

func TestStore_SetNotifiesInOrder(t *testing.T) {
	s := NewStore(0)
	var got []string
	s.Subscribe(func(v int) { got = append(got, "a") })
	s.Subscribe(func(v int) { got = append(got, "b") })

	if err := s.Set(func(v *int) { *v = 3 }); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Get() != 3 {
		t.Errorf("Get = %d, want 3", s.Get())
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("listeners = %v, want [a b]", got)
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := NewStore("")
	calls := 0
	unsub := s.Subscribe(func(string) { calls++ })
	_ = s.Set(func(v *string) { *v = "x" })
	unsub()
	unsub()
	_ = s.Set(func(v *string) { *v = "y" })
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	s := NewStore(1)
	var seen int
	s.Subscribe(func(int) { seen = s.Get() })
	_ = s.Set(func(v *int) { *v = 2 })
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestStore_ConcurrentSetsNotifyInCommitOrder(t *testing.T) {
	s := NewStore("")
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var notified []string
	s.Subscribe(func(v string) {
		if v == "x" {
			close(entered)
			<-release
		}
		mu.Lock()
		notified = append(notified, v)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.Set(func(v *string) { *v = "x" })
	}()
	<-entered
	go func() {
		defer wg.Done()
		_ = s.Set(func(v *string) { *v = "y" })
	}()

	deadline := time.Now().Add(time.Second)
	for s.Get() != "y" {
		if time.Now().After(deadline) {
			t.Fatal("second Set never committed")
		}
		time.Sleep(time.Millisecond)
	}
	// Leave the second Set time to notify out of turn if it could.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if len(notified) != 2 || notified[0] != "x" || notified[1] != "y" {
		t.Fatalf("notified = %v, want [x y]", notified)
	}
	if last := notified[len(notified)-1]; last != s.Get() {
		t.Errorf("last notified = %q, store = %q", last, s.Get())
	}
}

func TestLoad_RoundTripThroughKV(t *testing.T) {
	kv := kvstore.NewMemory()
	s, err := Load(kv, "ns", models.DocumentSnapshot{}, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_ = s.Set(func(d *models.DocumentSnapshot) { d.Text = "hello"; d.PreviewVisible = true })

	raw, ok, _ := kv.Get("ns")
	if !ok || string(raw) != `{"text":"hello","previewVisible":true}` {
		t.Fatalf("persisted = %s, %v", raw, ok)
	}

	again, err := Load(kv, "ns", models.DocumentSnapshot{}, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := again.Get(); got.Text != "hello" || !got.PreviewVisible {
		t.Errorf("restored = %+v", got)
	}
}

func TestLoad_CorruptFallsBackToDefaults(t *testing.T) {
	kv := kvstore.NewMemory()
	_ = kv.Put("ns", []byte("{not json"))
	s, err := Load(kv, "ns", models.DocumentSnapshot{Text: "seed"}, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Get().Text != "seed" {
		t.Errorf("text = %q, want seed", s.Get().Text)
	}
}

func TestStore_PersistFailureKeepsValue(t *testing.T) {
	kv := &failingKV{Memory: kvstore.NewMemory()}
	s, err := Load[int](kv, "ns", 0, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Set(func(v *int) { *v = 7 }); err == nil {
		t.Fatal("expected persist error")
	}
	if s.Get() != 7 {
		t.Errorf("value = %d, want 7 kept in memory", s.Get())
	}
}

func testDocument(t *testing.T) (*Document, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	doc, err := LoadDocument(kv, "# Welcome", quietLogger())
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	return doc, kv
}

func TestDocument_SeedAndDefaults(t *testing.T) {
	doc, _ := testDocument(t)
	got := doc.Get()
	if got.Text != "# Welcome" || !got.PreviewVisible {
		t.Errorf("seeded = %+v", got)
	}
	if got.Filename != models.DefaultFilename {
		t.Errorf("filename = %q, want %q", got.Filename, models.DefaultFilename)
	}
	if got.Checksum != checksum.String("# Welcome") {
		t.Errorf("checksum mismatch")
	}
}

func TestDocument_MutationsPersistSnapshot(t *testing.T) {
	doc, kv := testDocument(t)
	_ = doc.SetText("abc")
	if _, err := doc.TogglePreview(); err != nil {
		t.Fatalf("TogglePreview: %v", err)
	}
	raw, _, _ := kv.Get(models.MarkdownNamespace)
	if string(raw) != `{"text":"abc","previewVisible":false}` {
		t.Errorf("snapshot = %s", raw)
	}

	doc.CommitFilename("notes")
	raw, _, _ = kv.Get(models.MarkdownNamespace)
	if string(raw) != `{"text":"abc","previewVisible":false}` {
		t.Errorf("filename leaked into snapshot: %s", raw)
	}
}

func TestDocument_SetTextIfMatch(t *testing.T) {
	doc, _ := testDocument(t)
	stale := checksum.String("something else")
	err := doc.SetTextIfMatch("new", stale)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := doc.SetTextIfMatch("new", doc.Get().Checksum); err != nil {
		t.Fatalf("SetTextIfMatch: %v", err)
	}
	if doc.Text() != "new" {
		t.Errorf("text = %q, want new", doc.Text())
	}
}

func TestDocument_FilenameEditFlow(t *testing.T) {
	doc, _ := testDocument(t)

	sess := doc.StartEditing()
	if !sess.Editing || sess.TempName != models.DefaultFilename {
		t.Fatalf("session = %+v", sess)
	}
	if err := doc.SetTempName("my report?"); err != nil {
		t.Fatalf("SetTempName: %v", err)
	}
	// A second start keeps the open session.
	if again := doc.StartEditing(); again.TempName != "my report?" {
		t.Errorf("second start reset temp name: %+v", again)
	}

	name, err := doc.CommitEditing()
	if err != nil {
		t.Fatalf("CommitEditing: %v", err)
	}
	if name != "myreport.md" || doc.Filename() != "myreport.md" {
		t.Errorf("committed = %q, filename = %q", name, doc.Filename())
	}
	if s := doc.EditSession(); s.Editing || !s.JustCommitted {
		t.Errorf("after commit session = %+v", s)
	}

	doc.AcknowledgeCommit()
	if doc.EditSession().JustCommitted {
		t.Error("JustCommitted not cleared")
	}

	// Committing the same name is not a change.
	doc.CommitFilename("myreport")
	if doc.EditSession().JustCommitted {
		t.Error("unchanged commit raised JustCommitted")
	}
}

func TestDocument_CancelKeepsFilename(t *testing.T) {
	doc, _ := testDocument(t)
	doc.StartEditing()
	_ = doc.SetTempName("other")
	doc.CancelEditing()
	if doc.Filename() != models.DefaultFilename {
		t.Errorf("filename = %q after cancel", doc.Filename())
	}
	if err := doc.SetTempName("x"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("SetTempName without session err = %v", err)
	}
	if _, err := doc.CommitEditing(); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("CommitEditing without session err = %v", err)
	}
}

func TestDocument_OnTextIgnoresPreviewToggles(t *testing.T) {
	doc, _ := testDocument(t)
	var texts []string
	doc.OnText(func(s string) { texts = append(texts, s) })

	_ = doc.SetText("a")
	_, _ = doc.TogglePreview()
	_ = doc.SetText("b")

	if len(texts) != 2 || texts[0] != "a" || texts[1] != "b" {
		t.Errorf("texts = %v, want [a b]", texts)
	}
}

func TestDocument_SetTextWaitsForCompareAndSet(t *testing.T) {
	doc, _ := testDocument(t)
	_ = doc.SetText("base")
	expected := checksum.String("base")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	doc.OnText(func(s string) {
		if s == "matched" {
			once.Do(func() { close(entered) })
			<-release
		}
	})

	casDone := make(chan error, 1)
	go func() { casDone <- doc.SetTextIfMatch("matched", expected) }()
	<-entered

	plainDone := make(chan error, 1)
	go func() { plainDone <- doc.SetText("plain") }()

	time.Sleep(20 * time.Millisecond)
	if got := doc.Text(); got != "matched" {
		t.Fatalf("text = %q while compare-and-set in progress, want matched", got)
	}
	close(release)

	if err := <-casDone; err != nil {
		t.Fatalf("SetTextIfMatch: %v", err)
	}
	if err := <-plainDone; err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if got := doc.Text(); got != "plain" {
		t.Errorf("text = %q, want plain", got)
	}
}

func TestDocument_SubscribeSeesFilename(t *testing.T) {
	doc, _ := testDocument(t)
	var last models.Document
	doc.Subscribe(func(d models.Document) { last = d })
	doc.CommitFilename("draft")
	if last.Filename != "draft.md" {
		t.Errorf("listener filename = %q, want draft.md", last.Filename)
	}
}

func TestPreferences_DefaultsAndValidation(t *testing.T) {
	kv := kvstore.NewMemory()
	prefs, err := LoadPreferences(kv, quietLogger())
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if got := prefs.Get(); got.Theme != models.ThemeDark || got.Font != models.DefaultFont {
		t.Errorf("defaults = %+v", got)
	}

	if err := prefs.SetTheme("sepia"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("SetTheme(sepia) err = %v, want ErrInvalid", err)
	}
	if err := prefs.SetFont(""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("SetFont(\"\") err = %v, want ErrInvalid", err)
	}

	theme, err := prefs.ToggleTheme()
	if err != nil || theme != models.ThemeLight {
		t.Fatalf("ToggleTheme = %q, %v", theme, err)
	}
	raw, _, _ := kv.Get(models.UINamespace)
	if string(raw) != `{"theme":"light","font":"Inter"}` {
		t.Errorf("persisted = %s", raw)
	}
}

func TestPreferences_InvalidStoredFieldsReset(t *testing.T) {
	kv := kvstore.NewMemory()
	_ = kv.Put(models.UINamespace, []byte(`{"theme":"neon","font":"Fira Code"}`))
	prefs, err := LoadPreferences(kv, quietLogger())
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	got := prefs.Get()
	if got.Theme != models.ThemeDark || got.Font != "Fira Code" {
		t.Errorf("prefs = %+v, want dark + Fira Code", got)
	}
}
