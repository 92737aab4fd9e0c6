package gameid

import (
	"strings"
	"testing"
	"time"
)

func TestNewHasPrefixAndValidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		gen    func() string
	}{
		{PrefixTable, NewTableID},
		{PrefixHand, NewHandID},
		{PrefixPlayer, NewPlayerID},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			t.Parallel()
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix+"_") {
				t.Errorf("id %q missing prefix %q", id, tt.prefix)
			}
			if err := Validate(id, tt.prefix); err != nil {
				t.Errorf("Validate(%q) error = %v", id, err)
			}
		})
	}
}

func TestNewIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewHandID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNewSortsByTime(t *testing.T) {
	earlier := NewTableID()
	time.Sleep(2 * time.Millisecond)
	later := NewTableID()

	if !(earlier < later) {
		t.Errorf("expected %q < %q", earlier, later)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
	}{
		{"wrong prefix", "hnd_01h455vb4pex5vsknk084sn02q"},
		{"no prefix", "01h455vb4pex5vsknk084sn02q"},
		{"short body", "tbl_01h455vb4pex5vsknk084sn0"},
		{"bad alphabet", "tbl_01h455vb4pex5vsknk084sn0il"},
		{"time overflow", "tbl_81h455vb4pex5vsknk084sn02q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := Validate(tt.id, PrefixTable); err == nil {
				t.Errorf("Validate(%q) = nil, want error", tt.id)
			}
		})
	}
}
