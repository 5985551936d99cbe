package cache

import (
	"strings"
	"testing"
)

func TestKeyNamedPartsOrderIndependent(t *testing.T) {
	a := Key("destinations", []string{"Sports"}, map[string]string{"count": "5", "activities": "true"})
	b := Key("destinations", []string{"Sports"}, map[string]string{"activities": "true", "count": "5"})
	if a != b {
		t.Errorf("same inputs in different order produced different keys:\n%s\n%s", a, b)
	}
}

func TestKeyDistinctInputs(t *testing.T) {
	base := Key("destinations", []string{"Sports"}, map[string]string{"count": "5"})
	variants := []string{
		Key("destinations", []string{"Sports"}, map[string]string{"count": "6"}),
		Key("destinations", []string{"Scientific"}, map[string]string{"count": "5"}),
		Key("activities", []string{"Sports"}, map[string]string{"count": "5"}),
		Key("destinations", []string{"Sports"}, map[string]string{"count": "5", "activities": "true"}),
		Key("destinations", nil, nil),
	}
	seen := map[string]bool{base: true}
	for i, v := range variants {
		if seen[v] {
			t.Errorf("variant %d collided with an earlier key: %s", i, v)
		}
		seen[v] = true
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("p", []string{"x", "y"}, map[string]string{"k": "v"})
	b := Key("p", []string{"x", "y"}, map[string]string{"k": "v"})
	if a != b {
		t.Errorf("repeated call produced different keys: %s vs %s", a, b)
	}
}

func TestKeyKeepsPrefixVisible(t *testing.T) {
	k := Key("destinations", []string{"Sports"}, nil)
	if !strings.HasPrefix(k, "destinations:") {
		t.Errorf("key %q should start with the prefix", k)
	}
}
