package match

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

var baseTS = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func goalAt(minute, side, player string, offset int) Event {
	return Event{Type: EventGoal, Time: Text(minute), Side: side, Player: player, TS: baseTS.Add(time.Duration(offset) * time.Second)}
}

func TestMergeEvents_GoalJitterCollapsesWithinTwoMinuteBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		first   string
		second  string
		wantLen int
	}{
		{name: "minute 2 and 3", first: "2", second: "3", wantLen: 1},
		{name: "minute 2 and 67", first: "2", second: "67", wantLen: 2},
		{name: "same minute", first: "67", second: "67'", wantLen: 1},
		{name: "bucket boundary", first: "3", second: "4", wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			current := []Event{goalAt(tt.first, "home", "", 0)}
			incoming := []Event{goalAt(tt.second, "h", "", 1)}

			got := MergeEvents("ls-55", current, incoming, DefaultKeepLast)
			if len(got) != tt.wantLen {
				t.Fatalf("unexpected event count, got=%d want=%d events=%+v", len(got), tt.wantLen, got)
			}
		})
	}
}

func TestMergeEvents_DifferentSidesNeverCollapse(t *testing.T) {
	t.Parallel()

	got := MergeEvents("ls-55", nil, []Event{goalAt("10", "h", "", 0), goalAt("10", "a", "", 1)}, DefaultKeepLast)
	if len(got) != 2 {
		t.Fatalf("expected both sides kept, got=%+v", got)
	}
}

func TestMergeEvents_EnrichmentNeverRevertsToBlank(t *testing.T) {
	t.Parallel()

	blank := goalAt("23", "h", "", 0)
	enriched := goalAt("23", "h", "B. Saka", 1)

	got := MergeEvents("ls-55", []Event{blank}, []Event{enriched}, DefaultKeepLast)
	if len(got) != 1 || got[0].Player != "B. Saka" {
		t.Fatalf("expected enriched event, got=%+v", got)
	}

	laterBlank := goalAt("23", "h", "", 5)
	got = MergeEvents("ls-55", got, []Event{laterBlank}, DefaultKeepLast)
	if len(got) != 1 || got[0].Player != "B. Saka" {
		t.Fatalf("expected enriched event to survive a blank resend, got=%+v", got)
	}
}

func TestMergeEvents_LongerPlayerNameWins(t *testing.T) {
	t.Parallel()

	current := []Event{goalAt("23", "h", "", 0)}
	incoming := []Event{goalAt("23", "h", "B. Saka", 1), goalAt("22", "h", "Bukayo Saka", 2)}

	got := MergeEvents("ls-55", current, incoming, DefaultKeepLast)
	if len(got) != 1 || got[0].Player != "Bukayo Saka" {
		t.Fatalf("expected full name to win, got=%+v", got)
	}
}

func TestMergeEvents_PlayerNormalizationCollides(t *testing.T) {
	t.Parallel()

	current := []Event{goalAt("55", "a", "V. Gyökeres", 0)}
	incoming := []Event{goalAt("55", "a", "V Gyokeres", 1)}

	got := MergeEvents("ls-7", current, incoming, DefaultKeepLast)
	if len(got) != 1 {
		t.Fatalf("expected one event, got=%+v", got)
	}
	if got[0].Player != "V. Gyökeres" {
		t.Fatalf("expected longer spelling kept, got=%q", got[0].Player)
	}
}

func TestMergeEvents_OrdersByMinuteThenTimestamp(t *testing.T) {
	t.Parallel()

	incoming := []Event{
		{Type: "SUBST", Time: "", Player: "late", TS: baseTS},
		{Type: "SUBST", Time: "46", Player: "c", TS: baseTS},
		{Type: "SUBST", Time: "45+2", Player: "b", TS: baseTS},
		{Type: "SUBST", Time: "45", Player: "a2", TS: baseTS.Add(time.Minute)},
		{Type: "SUBST", Time: "45", Player: "a1", TS: baseTS},
	}

	got := MergeEvents("ls-1", nil, incoming, DefaultKeepLast)

	var players []string
	for _, e := range got {
		players = append(players, e.Player)
	}
	want := []string{"a1", "a2", "b", "c", "late"}
	if !reflect.DeepEqual(players, want) {
		t.Fatalf("unexpected order, got=%v want=%v", players, want)
	}
}

func TestMergeEvents_CapKeepsAllGoals(t *testing.T) {
	t.Parallel()

	var incoming []Event
	for i := 0; i < 35; i++ {
		incoming = append(incoming, goalAt(fmt.Sprintf("%d", 2*i+1), "h", fmt.Sprintf("scorer%d", i), i))
	}
	for i := 0; i < 10; i++ {
		incoming = append(incoming, Event{Type: "SUBST", Time: Text(fmt.Sprintf("%d", 80+i)), Player: fmt.Sprintf("sub%d", i), TS: baseTS})
	}

	got := MergeEvents("ls-1", nil, incoming, DefaultKeepLast)
	if len(got) != 35 {
		t.Fatalf("expected every goal retained, got=%d", len(got))
	}
	for _, e := range got {
		if !IsGoal(e.Type) {
			t.Fatalf("non-goal should be trimmed first, got=%+v", e)
		}
	}
}

func TestMergeEvents_CapProtectsOnlyPlainGoals(t *testing.T) {
	t.Parallel()

	var incoming []Event
	for i := 0; i < 3; i++ {
		incoming = append(incoming, goalAt(fmt.Sprintf("%d", 10*i+1), "h", fmt.Sprintf("scorer%d", i), i))
	}
	incoming = append(incoming,
		Event{Type: "OWN_GOAL", Time: "5", Side: "a", Player: "Own", TS: baseTS},
		Event{Type: "GOAL_PENALTY", Time: "7", Side: "h", Player: "Spot", TS: baseTS},
		Event{Type: "SUBST", Time: "60", Player: "sub", TS: baseTS},
	)

	got := MergeEvents("ls-1", nil, incoming, 4)
	if len(got) != 4 {
		t.Fatalf("expected cap honored, got=%d %+v", len(got), got)
	}
	for _, e := range got {
		if e.Type == "OWN_GOAL" || e.Type == "GOAL_PENALTY" {
			t.Fatalf("only plain goals survive past the cap, got=%+v", e)
		}
	}
}

func TestMergeEvents_CapFillsWithMostRecentOthers(t *testing.T) {
	t.Parallel()

	var incoming []Event
	for i := 0; i < 5; i++ {
		incoming = append(incoming, goalAt(fmt.Sprintf("%d", 10*i+5), "a", fmt.Sprintf("scorer%d", i), i))
	}
	for i := 0; i < 40; i++ {
		incoming = append(incoming, Event{Type: "SUBST", Time: Text(fmt.Sprintf("%d", i+1)), Player: fmt.Sprintf("sub%d", i), TS: baseTS})
	}

	got := MergeEvents("ls-1", nil, incoming, 30)
	if len(got) != 30 {
		t.Fatalf("expected cap honored, got=%d", len(got))
	}

	goals := 0
	for _, e := range got {
		if IsGoal(e.Type) {
			goals++
			continue
		}
		if MinuteValue(string(e.Time)) < 1600 {
			t.Fatalf("expected only the latest substitutions, got=%+v", e)
		}
	}
	if goals != 5 {
		t.Fatalf("expected all goals retained, got=%d", goals)
	}
	for i := 1; i < len(got); i++ {
		if MinuteOrder(string(got[i-1].Time)) > MinuteOrder(string(got[i].Time)) {
			t.Fatalf("result not sorted at %d: %+v", i, got)
		}
	}
}

func TestMergeEvents_Idempotent(t *testing.T) {
	t.Parallel()

	batch := []Event{
		goalAt("12", "h", "", 0),
		goalAt("13", "h", "M. Odegaard", 1),
		{Type: EventYellowCard, Time: "30", Side: "a", Player: "Rice", TS: baseTS},
		{Type: "SUBST", Time: "60", Side: "a", TS: baseTS},
	}

	merged := MergeEvents("ls-9", nil, batch, DefaultKeepLast)

	if again := MergeEvents("ls-9", merged, nil, DefaultKeepLast); !reflect.DeepEqual(again, merged) {
		t.Fatalf("empty incoming changed the log, got=%+v want=%+v", again, merged)
	}
	if again := MergeEvents("ls-9", merged, merged, DefaultKeepLast); !reflect.DeepEqual(again, merged) {
		t.Fatalf("re-merging the log changed it, got=%+v want=%+v", again, merged)
	}
}

func TestMergeEvents_EmptyIncomingDoesNotAlias(t *testing.T) {
	t.Parallel()

	current := []Event{goalAt("1", "h", "x", 0)}
	got := MergeEvents("ls-1", current, nil, DefaultKeepLast)
	got[0].Player = "changed"
	if current[0].Player != "x" {
		t.Fatalf("merge result aliases the current log")
	}
}
