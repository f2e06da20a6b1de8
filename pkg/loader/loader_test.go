// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"testing"
)

func TestFuncInstall(t *testing.T) {
	var got []string
	l := Func(func(paths []string) error {
		got = append(got, paths...)
		return nil
	})

	want := []string{"a.zip", "b.zip"}
	if err := l.Install(want); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loader saw %d paths, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s (order must be preserved)", i, got[i], want[i])
		}
	}
}

func TestMulti(t *testing.T) {
	var order []string
	mk := func(name string, err error) Loader {
		return Func(func([]string) error {
			order = append(order, name)
			return err
		})
	}

	boom := errors.New("boom")
	l := Multi(mk("first", nil), mk("second", boom), mk("third", nil))

	if err := l.Install([]string{"x.zip"}); !errors.Is(err, boom) {
		t.Fatalf("Install error = %v, want %v", err, boom)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("loaders ran as %v, want [first second]", order)
	}
}
