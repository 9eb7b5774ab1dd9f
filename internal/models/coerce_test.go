package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`null`, false},
		{`1`, true},
		{`0`, false},
		{`2`, true},
		{`"1"`, true},
		{`"0"`, false},
		{`""`, false},
		{`"false"`, false},
		{`"true"`, true},
	}
	for _, tt := range tests {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), "input %s", tt.in)
		assert.Equal(t, tt.want, f.Bool(), "input %s", tt.in)
	}
}

func TestFlagUnmarshalRejectsObjects(t *testing.T) {
	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`{}`), &f))
}

func TestIDListUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want IDList
	}{
		{`[1,2,3]`, IDList{1, 2, 3}},
		{`["4","5"]`, IDList{4, 5}},
		{`"6,7,8"`, IDList{6, 7, 8}},
		// the list endpoint terminates the string form with a comma
		{`"9,10,"`, IDList{9, 10}},
		{`"11"`, IDList{11}},
		{`""`, nil},
		{`[]`, IDList{}},
		{`null`, nil},
	}
	for _, tt := range tests {
		var l IDList
		require.NoError(t, json.Unmarshal([]byte(tt.in), &l), "input %s", tt.in)
		assert.Equal(t, tt.want, l, "input %s", tt.in)
	}
}

func TestIDListUnmarshalRejectsGarbage(t *testing.T) {
	for _, in := range []string{`"a,b"`, `[true]`, `{}`} {
		var l IDList
		assert.Error(t, json.Unmarshal([]byte(in), &l), "input %s", in)
	}
}
