package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/narrative"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
	"github.com/WessleyAI/mpg-narrative/pkg/resilience"
	"github.com/nats-io/nats.go"
)

func sampleFrame() narrative.Frame {
	d, _ := scene.Default().At(4)
	return narrative.Frame{
		Session:    "s-1",
		Seq:        3,
		Scene:      4,
		SceneCount: 4,
		SceneName:  d.Name,
		Aggregates: []domain.AggregateRecord{
			{Make: "Smart", EngineCylinders: math.NaN(), AverageCityMPG: math.NaN(), AverageHighwayMPG: math.NaN(), AverageCombinedMPG: math.NaN()},
			{Make: "BMW", EngineCylinders: 4, AverageCityMPG: 26, AverageHighwayMPG: 36, AverageCombinedMPG: 31},
			{Make: "Tesla", EngineCylinders: 0, AverageCityMPG: 124, AverageHighwayMPG: 116, AverageCombinedMPG: 120},
		},
		Measure:        domain.MeasureCombined,
		MeasureLabel:   domain.MeasureCombined.Label(),
		Scale:          scene.MPGScale(),
		CylinderDomain: domain.FullCylinderRange(),
		Filter:         domain.FilterState{Fuels: domain.AllFuels(), Cylinders: domain.CylinderRange{Min: 0, Max: 4}},
		Controls:       d.Controls,
		Nav:            narrative.Nav{Previous: true},
		Annotation:     d.Annotation,
	}
}

func TestLatest(t *testing.T) {
	var l Latest
	if _, ok := l.Get(); ok {
		t.Fatal("expected no frame before render")
	}
	if err := l.Render(context.Background(), sampleFrame()); err != nil {
		t.Fatal(err)
	}
	f, ok := l.Get()
	if !ok || f.Seq != 3 {
		t.Fatalf("got %+v, %v", f, ok)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	var a, b Latest
	boom := errors.New("boom")
	failing := narrative.SinkFunc(func(context.Context, narrative.Frame) error { return boom })
	err := Multi{&a, failing, &b}.Render(context.Background(), sampleFrame())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if _, ok := a.Get(); !ok {
		t.Error("healthy sinks should still render")
	}
	if _, ok := b.Get(); !ok {
		t.Error("healthy sinks should still render")
	}
	if err := (Multi{&a}).Render(context.Background(), sampleFrame()); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewText(&buf, 30).Render(context.Background(), sampleFrame()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"== Scene 4/4: Explore ==",
		"measure=Average Combined MPG",
		"Smart | -",
		"Tesla | " + strings.Repeat("#", 24) + " 120.0",
		"Shifting Gears: Electric Takes the Lead",
		"[prev:on next:off]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, "Tesla") > strings.Index(out, "BMW") {
		t.Error("highest value should be printed first")
	}
}

func TestCylinderColor(t *testing.T) {
	dom := domain.FullCylinderRange()
	if got := cylinderColor(0, dom); got != colorLow {
		t.Errorf("0 cylinders: got %s", got)
	}
	if got := cylinderColor(12, dom); got != colorHigh {
		t.Errorf("12 cylinders: got %s", got)
	}
	if got := cylinderColor(math.NaN(), dom); got != "none" {
		t.Errorf("NaN: got %s", got)
	}
	if got := cylinderColor(40, dom); got != colorHigh {
		t.Errorf("values above the domain should clamp, got %s", got)
	}
}

func TestWrap(t *testing.T) {
	lines := wrap("Known for its 3-cylinder engines, Smart car got left behind", 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
	if strings.Join(lines, " ") != "Known for its 3-cylinder engines, Smart car got left behind" {
		t.Errorf("wrap lost words: %v", lines)
	}
}

func TestLayout(t *testing.T) {
	v := layout(sampleFrame())
	if len(v.Bars) != 3 || len(v.Legend) != 13 || len(v.Callouts) != 2 || len(v.Ticks) != 16 {
		t.Fatalf("unexpected layout sizes: bars=%d legend=%d callouts=%d ticks=%d", len(v.Bars), len(v.Legend), len(v.Callouts), len(v.Ticks))
	}
	if v.Bars[0].Width != 0 || v.Bars[0].Value != "n/a" {
		t.Errorf("NaN bar should be empty, got %+v", v.Bars[0])
	}
	if v.Bars[2].Y != 0 {
		t.Errorf("largest value should sit at the top, got y=%v", v.Bars[2].Y)
	}
	if want := 120.0 / 150 * plotWidth; v.Bars[2].Width != want {
		t.Errorf("bar width %v, want %v", v.Bars[2].Width, want)
	}
	if !v.Callouts[1].Arrow || v.Callouts[0].Radius != 75 {
		t.Errorf("unexpected callouts %+v", v.Callouts)
	}
}

func TestSVGServeHTTP(t *testing.T) {
	s := NewSVG()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 503 {
		t.Fatalf("expected 503 before first frame, got %d", rec.Code)
	}

	if err := s.Render(context.Background(), sampleFrame()); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	body := rec.Body.String()
	if rec.Code != 200 || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("status %d, content type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	for _, want := range []string{"Scene 4 of 4: Explore", `class="bar"`, "Average Combined MPG", "Engine Cylinders", `marker-start="url(#arrow)"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, `data-path="/api/scene/previous" disabled`) {
		t.Error("previous should be enabled on the last scene")
	}
}

type fakePub struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakePub) PublishMsg(m *nats.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func TestNATSPublishesFrame(t *testing.T) {
	pub := &fakePub{}
	if err := NewNATS(pub, "mpg.frames").Render(context.Background(), sampleFrame()); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].Subject != "mpg.frames" {
		t.Fatalf("unexpected messages %+v", pub.msgs)
	}
	var got narrative.Frame
	if err := json.Unmarshal(pub.msgs[0].Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Scene != 4 || !got.Aggregates[0].Empty() || got.Aggregates[2].AverageCombinedMPG != 120 {
		t.Fatalf("unexpected decoded frame %+v", got)
	}
}

func TestNATSBreakerFailsFast(t *testing.T) {
	pub := &fakePub{err: nats.ErrConnectionClosed}
	b := resilience.NewBreaker(resilience.BreakerOpts{FailThreshold: 2, Timeout: time.Hour})
	sink := NewNATS(pub, "mpg.frames", WithBreaker(b))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := sink.Render(ctx, sampleFrame()); !errors.Is(err, nats.ErrConnectionClosed) {
			t.Fatalf("render %d: expected publish error, got %v", i, err)
		}
	}
	if b.State() != resilience.StateOpen {
		t.Fatalf("breaker = %s, want open", b.State())
	}
	pub.err = nil
	if err := sink.Render(ctx, sampleFrame()); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("open breaker should not publish, got %d messages", len(pub.msgs))
	}
}
