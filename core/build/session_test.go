package build

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pcbuild/core/catalog"
	"pcbuild/core/compat"
	"pcbuild/core/pricing"
	"pcbuild/core/types"
	"pcbuild/internal/errors"
)

func comp(id string, cat types.Category, price string, specs types.Specs) *types.Component {
	return &types.Component{
		ID:       id,
		Category: cat,
		Name:     id,
		Price:    decimal.RequireFromString(price),
		Specs:    specs,
	}
}

// compatibleParts is a full build with no issues, in step order
func compatibleParts() []*types.Component {
	return []*types.Component{
		comp("cpu-1", types.CategoryCPU, "409.99", types.Specs{Socket: "LGA1700", TDP: 125}),
		comp("mb-1", types.CategoryMotherboard, "229.99", types.Specs{Socket: "LGA1700", MemoryType: "DDR5", FormFactor: "ATX"}),
		comp("ram-1", types.CategoryRAM, "109.99", types.Specs{MemoryType: "DDR5"}),
		comp("ssd-1", types.CategoryStorage, "169.99", types.Specs{}),
		comp("gpu-1", types.CategoryGPU, "999.99", types.Specs{TDP: 320}),
		comp("psu-1", types.CategoryPSU, "134.99", types.Specs{Wattage: 850}),
		comp("case-1", types.CategoryCase, "129.99", types.Specs{FormFactor: "ATX, Micro-ATX"}),
	}
}

func completeSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := NewSession(opts...)
	for _, p := range compatibleParts() {
		if _, err := s.Select(p.Category, p); err != nil {
			t.Fatalf("Select %s: %v", p.ID, err)
		}
	}
	return s
}

func TestNewSessionIsInitial(t *testing.T) {
	s := NewSession()
	state := s.State()

	if state.CurrentStep != 0 || state.Category != types.CategoryCPU {
		t.Errorf("expected step 0 (cpu), got %d (%s)", state.CurrentStep, state.Category)
	}
	if len(state.Selections) != types.CategoryCount() {
		t.Errorf("selections should cover every category, got %d", len(state.Selections))
	}
	for c, sel := range state.Selections {
		if sel != nil {
			t.Errorf("%s should be empty", c)
		}
	}
	if !state.TotalPrice.IsZero() || state.IsComplete || len(state.Issues) != 0 {
		t.Errorf("unexpected derived state: %+v", state)
	}
	if s.ID() == "" {
		t.Error("session should have an ID")
	}
}

func TestSelectAutoAdvances(t *testing.T) {
	s := NewSession()
	parts := compatibleParts()

	state, err := s.Select(types.CategoryCPU, parts[0])
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if state.CurrentStep != 1 {
		t.Errorf("selecting the current category should advance, step=%d", state.CurrentStep)
	}

	// selecting a non-current category does not move the pointer
	state, _ = s.Select(types.CategoryGPU, parts[4])
	if state.CurrentStep != 1 {
		t.Errorf("selecting another category moved the pointer to %d", state.CurrentStep)
	}
}

func TestSelectOnLastStepStays(t *testing.T) {
	s := NewSession()
	s.GoTo(types.CategoryCount() - 1)
	parts := compatibleParts()

	state, err := s.Select(types.CategoryCase, parts[6])
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !state.IsLastStep() {
		t.Errorf("pointer left the last step: %d", state.CurrentStep)
	}
}

func TestAutoAdvanceCanBeDisabled(t *testing.T) {
	s := NewSession(WithAutoAdvance(false))
	state, _ := s.Select(types.CategoryCPU, compatibleParts()[0])
	if state.CurrentStep != 0 {
		t.Errorf("auto advance disabled but step moved to %d", state.CurrentStep)
	}
}

func TestScenarioDCompleteCompatibleBuild(t *testing.T) {
	s := completeSession(t)
	state := s.State()

	if len(state.Issues) != 0 {
		t.Errorf("expected no issues, got %q", state.Issues)
	}
	if !state.IsComplete {
		t.Error("expected complete build")
	}
	expected := decimal.Zero
	for _, p := range compatibleParts() {
		expected = expected.Add(p.Price)
	}
	if !state.TotalPrice.Equal(expected) {
		t.Errorf("expected total %s, got %s", expected, state.TotalPrice)
	}
}

func TestScenarioEResetCPU(t *testing.T) {
	s := completeSession(t)

	// make CPU-dependent issues present first
	badCPU := comp("cpu-am4", types.CategoryCPU, "199.00", types.Specs{Socket: "AM4", TDP: 600})
	before, _ := s.Select(types.CategoryCPU, badCPU)
	if len(before.Issues) != 2 {
		t.Fatalf("expected socket and power issues, got %q", before.Issues)
	}
	stepBefore := before.CurrentStep

	after, err := s.Reset(types.CategoryCPU)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if after.IsComplete {
		t.Error("build should be incomplete after reset")
	}
	if !before.TotalPrice.Sub(after.TotalPrice).Equal(badCPU.Price) {
		t.Errorf("total should drop by %s: %s -> %s", badCPU.Price, before.TotalPrice, after.TotalPrice)
	}
	if len(after.Issues) != 0 {
		t.Errorf("CPU-dependent issues should disappear, got %q", after.Issues)
	}
	if after.CurrentStep != stepBefore {
		t.Errorf("reset moved the pointer from %d to %d", stepBefore, after.CurrentStep)
	}
}

func TestDerivedStateMatchesFreshRecomputation(t *testing.T) {
	s := NewSession()
	parts := compatibleParts()
	engine := compat.NewEngine(compat.DefaultConfig())

	mutations := []func(){
		func() { _, _ = s.Select(types.CategoryCPU, parts[0]) },
		func() { _, _ = s.Select(types.CategoryMotherboard, comp("mb-am4", types.CategoryMotherboard, "99", types.Specs{Socket: "AM4", MemoryType: "DDR4", FormFactor: "ATX"})) },
		func() { _, _ = s.Select(types.CategoryRAM, parts[2]) },
		func() { _, _ = s.Reset(types.CategoryMotherboard) },
		func() { s.Retreat() },
		func() { _, _ = s.Select(types.CategoryMotherboard, parts[1]) },
	}
	for i, m := range mutations {
		m()
		state := s.State()
		if want := engine.Evaluate(state.Selections); !reflect.DeepEqual(state.Issues, want) {
			t.Errorf("step %d: issues diverged: %q vs %q", i, state.Issues, want)
		}
		if want := pricing.TotalPrice(state.Selections); !state.TotalPrice.Equal(want) {
			t.Errorf("step %d: total diverged: %s vs %s", i, state.TotalPrice, want)
		}
		if want := pricing.IsComplete(state.Selections); state.IsComplete != want {
			t.Errorf("step %d: completeness diverged", i)
		}
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	s := NewSession()
	snapshot := s.State()
	_, _ = s.Select(types.CategoryCPU, compatibleParts()[0])

	if snapshot.Selections[types.CategoryCPU] != nil {
		t.Error("earlier snapshot observed a later mutation")
	}
	snapshot.Selections[types.CategoryGPU] = compatibleParts()[4]
	if s.State().Selections[types.CategoryGPU] != nil {
		t.Error("mutating a snapshot leaked into the session")
	}
}

func TestEditedSnapshotDoesNotReachLaterReads(t *testing.T) {
	s := NewSession(WithAutoAdvance(false))
	selected, err := s.Select(types.CategoryCPU, compatibleParts()[0])
	if err != nil {
		t.Fatal(err)
	}

	first := s.State()
	first.Selections[types.CategoryGPU] = compatibleParts()[4]
	first.Issues = append(first.Issues, "edited")
	selected.Selections[types.CategoryCPU] = nil

	second := s.State()
	if second.Selections[types.CategoryGPU] != nil || second.Selections[types.CategoryCPU] == nil {
		t.Errorf("edits to returned snapshots reached the session: %v", second.Selections.IDs())
	}
	if len(second.Issues) != 0 {
		t.Errorf("issues leaked between snapshots: %q", second.Issues)
	}
	if !second.TotalPrice.Equal(compatibleParts()[0].Price) {
		t.Errorf("total %s does not match selections", second.TotalPrice)
	}
}

func TestAdvanceRetreatClamp(t *testing.T) {
	s := NewSession()

	if state := s.Retreat(); state.CurrentStep != 0 {
		t.Errorf("retreat at 0 should be a no-op, got %d", state.CurrentStep)
	}
	for i := 0; i < 20; i++ {
		s.Advance()
	}
	if state := s.State(); state.CurrentStep != types.CategoryCount()-1 {
		t.Errorf("advance should clamp at last step, got %d", state.CurrentStep)
	}
	if state := s.GoTo(-5); state.CurrentStep != 0 {
		t.Errorf("GoTo should clamp low, got %d", state.CurrentStep)
	}
	if state := s.GoTo(99); state.CurrentStep != types.CategoryCount()-1 {
		t.Errorf("GoTo should clamp high, got %d", state.CurrentStep)
	}
}

func TestInvalidArgumentsArePreconditionErrors(t *testing.T) {
	s := NewSession()
	parts := compatibleParts()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"select unknown category", func() error {
			_, err := s.Select(types.Category("fan"), parts[0])
			return err
		}},
		{"select cooling", func() error {
			_, err := s.Select(types.CategoryCooling, comp("cool", types.CategoryCooling, "10", types.Specs{}))
			return err
		}},
		{"select nil component", func() error {
			_, err := s.Select(types.CategoryCPU, nil)
			return err
		}},
		{"select wrong category", func() error {
			_, err := s.Select(types.CategoryGPU, parts[0])
			return err
		}},
		{"reset unknown category", func() error {
			_, err := s.Reset(types.Category(""))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.IsPrecondition(err) {
				t.Errorf("expected precondition error, got %v", err)
			}
		})
	}

	state := s.State()
	if state.CurrentStep != 0 || len(state.Selections.Filled()) != 0 {
		t.Errorf("failed calls mutated the session: %+v", state)
	}
}

func TestEvents(t *testing.T) {
	var events []Event
	s := NewSession(WithObserver(func(e Event) { events = append(events, e) }))
	parts := compatibleParts()

	_, _ = s.Select(types.CategoryCPU, parts[0])
	_, _ = s.Reset(types.CategoryCPU)
	s.Retreat()
	s.Retreat()

	want := []Event{
		{Type: EventSelected, Category: types.CategoryCPU, From: 0, To: 0},
		{Type: EventAdvanced, Category: types.CategoryMotherboard, From: 0, To: 1, Auto: true},
		{Type: EventReset, Category: types.CategoryCPU, From: 1, To: 1},
		{Type: EventRetreated, Category: types.CategoryCPU, From: 1, To: 0},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events mismatch\n got: %+v\nwant: %+v", events, want)
	}
}

func TestObserverMayReenterSession(t *testing.T) {
	var s *Session
	var seen types.Category
	s = NewSession(WithObserver(func(e Event) {
		if e.Type == EventAdvanced {
			seen = s.CurrentCategory()
		}
	}))
	_, _ = s.Select(types.CategoryCPU, compatibleParts()[0])
	if seen != types.CategoryMotherboard {
		t.Errorf("observer saw %q", seen)
	}
}

func TestConfiguredEngineIsUsed(t *testing.T) {
	engine := compat.NewEngine(compat.Config{PowerHeadroomWatts: 500})
	s := completeSession(t, WithEngine(engine))
	issues := s.State().Issues
	if len(issues) != 1 || !strings.Contains(issues[0], "945W") {
		t.Errorf("expected power issue with 500W headroom, got %q", issues)
	}
}

func TestOptionsAnnotatesCurrentStep(t *testing.T) {
	ctx := context.Background()
	s := NewSession()
	cat := catalog.Seed()

	cpu, _ := cat.Get(ctx, "cpu-i7-13700k")
	_, _ = s.Select(types.CategoryCPU, cpu)

	set, err := s.Options(ctx, cat)
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if set.Category != types.CategoryMotherboard || set.Step != 1 {
		t.Errorf("unexpected option set header: %s/%d", set.Category, set.Step)
	}
	compatible := set.Compatible()
	if len(compatible) != 2 {
		t.Fatalf("expected the two LGA1700 boards, got %+v", compatible)
	}
	for _, c := range compatible {
		if c.Specs.Socket != "LGA1700" {
			t.Errorf("incompatible board offered as compatible: %s", c.ID)
		}
	}
}

func TestOptionsEmptyResult(t *testing.T) {
	s := NewSession()
	set, err := s.Options(context.Background(), catalog.NewCatalog())
	if err != nil {
		t.Fatalf("empty catalog should not fail: %v", err)
	}
	if set.Options == nil || len(set.Options) != 0 {
		t.Errorf("expected empty, non-nil option list, got %#v", set.Options)
	}
}

type failingProvider struct{ catalog.Provider }

func (failingProvider) FetchOptions(context.Context, types.Category) ([]types.Component, error) {
	return nil, fmt.Errorf("catalog service unavailable")
}

func TestOptionsFailureLeavesSelectionsAlone(t *testing.T) {
	s := NewSession()
	_, _ = s.Select(types.CategoryCPU, compatibleParts()[0])
	before := s.State()

	_, err := s.Options(context.Background(), failingProvider{})
	if !errors.IsType(err, errors.TypeCatalog) {
		t.Fatalf("expected catalog error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Motherboard") {
		t.Errorf("error should name the failing step: %v", err)
	}
	after := s.State()
	if !reflect.DeepEqual(before.Selections, after.Selections) || before.CurrentStep != after.CurrentStep {
		t.Error("catalog failure changed the session")
	}
}

// blockingProvider holds FetchOptions until released or cancelled
type blockingProvider struct {
	catalog.Provider
	started chan types.Category
	release chan struct{}
}

func (p *blockingProvider) FetchOptions(ctx context.Context, cat types.Category) ([]types.Component, error) {
	p.started <- cat
	select {
	case <-p.release:
		return p.Provider.FetchOptions(context.Background(), cat)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestStaleOptionsDiscardedAfterStepChange(t *testing.T) {
	s := NewSession()
	provider := &blockingProvider{
		Provider: catalog.Seed(),
		started:  make(chan types.Category, 1),
		release:  make(chan struct{}),
	}

	type result struct {
		set OptionSet
		err error
	}
	done := make(chan result, 1)
	go func() {
		set, err := s.Options(context.Background(), provider)
		done <- result{set, err}
	}()

	if cat := <-provider.started; cat != types.CategoryCPU {
		t.Fatalf("fetch started for %s", cat)
	}
	s.Advance()

	select {
	case r := <-done:
		if !errors.IsType(r.err, errors.TypeStale) {
			t.Fatalf("expected stale error, got %v (%+v)", r.err, r.set)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}
}

func TestStaleOptionsDiscardedWhenResultArrivesLate(t *testing.T) {
	s := NewSession()
	provider := &blockingProvider{
		Provider: catalog.Seed(),
		started:  make(chan types.Category, 2),
		release:  make(chan struct{}),
	}

	first := make(chan error, 1)
	go func() {
		_, err := s.Options(context.Background(), provider)
		first <- err
	}()
	<-provider.started

	// a newer request for the same step supersedes the first
	second := make(chan error, 1)
	go func() {
		_, err := s.Options(context.Background(), provider)
		second <- err
	}()
	<-provider.started
	close(provider.release)

	if err := <-first; !errors.IsType(err, errors.TypeStale) {
		t.Errorf("first fetch should be stale, got %v", err)
	}
	if err := <-second; err != nil {
		t.Errorf("latest fetch should succeed, got %v", err)
	}
}
