package karma

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeStore struct {
	profiles map[string]*ActorProfile
	totals   map[string]int64
	addErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: map[string]*ActorProfile{},
		totals:   map[string]int64{},
	}
}

func (f *fakeStore) add(p ActorProfile) {
	f.profiles[p.UserID] = &p
	f.totals[p.GUID] = p.KarmaPoints
}

func (f *fakeStore) ProfileForUser(_ context.Context, userID string) (*ActorProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) AddPoints(_ context.Context, actorGUID string, points int64) (int64, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.totals[actorGUID] += points
	return f.totals[actorGUID], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAwardCrossesPlateau(t *testing.T) {
	store := newFakeStore()
	store.add(ActorProfile{GUID: "a-1", UserID: "bob", QualifiedName: "people.bob", KarmaPoints: 95, Public: true})
	svc := NewService(store, 10, 100, testLogger())

	crossing, err := svc.AwardForChange(context.Background(), "bob")
	if err != nil {
		t.Fatalf("AwardForChange failed: %v", err)
	}
	if crossing == nil {
		t.Fatal("expected a plateau crossing at 95 + 10 over threshold 100")
	}
	if crossing.Plateau != 1 || crossing.TotalPoints != 105 {
		t.Fatalf("crossing = %+v, want plateau 1 total 105", crossing)
	}
	if crossing.ActorGUID != "a-1" || crossing.UserID != "bob" || !crossing.Public {
		t.Fatalf("crossing identity mismatch: %+v", crossing)
	}
	if store.totals["a-1"] != 105 {
		t.Fatalf("stored total = %d, want 105", store.totals["a-1"])
	}
}

func TestAwardWithinPlateau(t *testing.T) {
	store := newFakeStore()
	store.add(ActorProfile{GUID: "a-1", UserID: "bob", KarmaPoints: 50})
	svc := NewService(store, 10, 100, testLogger())

	crossing, err := svc.AwardForChange(context.Background(), "bob")
	if err != nil {
		t.Fatalf("AwardForChange failed: %v", err)
	}
	if crossing != nil {
		t.Fatalf("unexpected crossing: %+v", crossing)
	}
	if store.totals["a-1"] != 60 {
		t.Fatalf("stored total = %d, want 60", store.totals["a-1"])
	}
}

func TestAwardThresholdDisabledStillCounts(t *testing.T) {
	store := newFakeStore()
	store.add(ActorProfile{GUID: "a-1", UserID: "bob", KarmaPoints: 95})
	svc := NewService(store, 10, 0, testLogger())

	crossing, err := svc.AwardForChange(context.Background(), "bob")
	if err != nil {
		t.Fatalf("AwardForChange failed: %v", err)
	}
	if crossing != nil {
		t.Fatalf("crossings must be disabled at threshold 0, got %+v", crossing)
	}
	if store.totals["a-1"] != 105 {
		t.Fatalf("stored total = %d, want 105", store.totals["a-1"])
	}
}

func TestAwardIncrementDisabled(t *testing.T) {
	store := newFakeStore()
	store.add(ActorProfile{GUID: "a-1", UserID: "bob", KarmaPoints: 95})
	svc := NewService(store, 0, 100, testLogger())

	crossing, err := svc.AwardForChange(context.Background(), "bob")
	if err != nil || crossing != nil {
		t.Fatalf("disabled awarding must be a no-op, got %+v %v", crossing, err)
	}
	if store.totals["a-1"] != 95 {
		t.Fatalf("stored total = %d, want untouched 95", store.totals["a-1"])
	}
}

func TestAwardSkipsUnknownUser(t *testing.T) {
	svc := NewService(newFakeStore(), 10, 100, testLogger())
	crossing, err := svc.AwardForChange(context.Background(), "nobody")
	if err != nil || crossing != nil {
		t.Fatalf("unknown user must be skipped silently, got %+v %v", crossing, err)
	}
}

func TestAwardPropagatesStoreError(t *testing.T) {
	store := newFakeStore()
	store.add(ActorProfile{GUID: "a-1", UserID: "bob"})
	store.addErr = errors.New("connection reset")
	svc := NewService(store, 10, 100, testLogger())

	if _, err := svc.AwardForChange(context.Background(), "bob"); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
