package chat

import (
	"fmt"
	"testing"
)

type lines []string

func (l *lines) Println(v ...interface{}) {
	*l = append(*l, fmt.Sprintln(v...))
}

func TestWithTag(test *testing.T) {
	if withTag(nil, "x") != nil {
		test.Error("withTag(nil) must stay nil")
	}
	out := &lines{}
	logInfo(withTag(out, "abc"), "hello")
	logError(withTag(out, "abc"), "failed")
	expected := []string{"[abc] hello\n", "[abc] ERR failed\n"}
	if len(*out) != len(expected) {
		test.Fatal("Unexpected lines:", *out)
	}
	for i := range expected {
		if (*out)[i] != expected[i] {
			test.Errorf("Expected %q, actual %q", expected[i], (*out)[i])
		}
	}
}
