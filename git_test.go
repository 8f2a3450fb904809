package main

import (
	"reflect"
	"testing"
)

func TestParsePorcelain(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{
			input:    "",
			expected: nil,
		},
		{
			input:    " M main.py",
			expected: []string{"main.py"},
		},
		{
			input:    "?? new.py\n M main.py\nA  staged.py",
			expected: []string{"new.py", "main.py", "staged.py"},
		},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got := parsePorcelain(test.input)
			if !reflect.DeepEqual(got, test.expected) {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}
