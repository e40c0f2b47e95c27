package database

import (
	"strings"
	"testing"
)

func TestMigrationNamesOrdered(t *testing.T) {
	names, err := MigrationNames()
	if err != nil {
		t.Fatalf("MigrationNames() error = %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}

	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations out of order: %s before %s", names[i-1], names[i])
		}
	}

	want := []string{"events", "event_slots", "participants", "slot_responses"}
	for i, table := range want {
		if !strings.Contains(names[i], table) {
			t.Errorf("migration %d = %s, want it to create %s", i, names[i], table)
		}
	}
}
