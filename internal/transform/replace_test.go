package transform

import (
	"testing"
)

func TestApplyReplacesTokens(t *testing.T) {
	r := NewReplacer(map[string]string{"name": "Skyblock", "version": "1.4.0"})

	out, changed := r.Apply([]byte("Welcome to @name@ v@version@! @unknown@ stays."))
	if !changed {
		t.Fatal("expected change")
	}
	if got := string(out); got != "Welcome to Skyblock v1.4.0! @unknown@ stays." {
		t.Errorf("got %q", got)
	}
}

func TestApplyUnchanged(t *testing.T) {
	r := NewReplacer(map[string]string{"name": "x"})
	out, changed := r.Apply([]byte("nothing here"))
	if changed || string(out) != "nothing here" {
		t.Errorf("got %q, %v", out, changed)
	}
}

func TestApplySkipsBinary(t *testing.T) {
	r := NewReplacer(map[string]string{"name": "x"})
	bin := []byte{'@', 'n', 'a', 'm', 'e', '@', 0x00}
	out, changed := r.Apply(bin)
	if changed || string(out) != string(bin) {
		t.Error("binary content should be left alone")
	}

	invalid := []byte{0xff, 0xfe, '@'}
	if _, changed := r.Apply(invalid); changed {
		t.Error("invalid utf-8 should be left alone")
	}
}

func TestLongerKeysFirst(t *testing.T) {
	r := NewReplacer(map[string]string{"a": "short", "a@b": "long"})
	out, _ := r.Apply([]byte("@a@b@"))
	if string(out) != "long" {
		t.Errorf("got %q", out)
	}
}

func TestEligible(t *testing.T) {
	for name, want := range map[string]bool{
		"config/a.toml":       true,
		"README.md":           true,
		"mods/sodium.jar":     false,
		"resourcepacks/x.ZIP": false,
		"icon.png":            false,
	} {
		if got := Eligible(name); got != want {
			t.Errorf("Eligible(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestMergeVars(t *testing.T) {
	got := MergeVars(map[string]string{"name": "Pack"}, map[string]string{"name": "Other", "discord": "url"})
	if got["name"] != "Pack" || got["discord"] != "url" {
		t.Errorf("got %v", got)
	}
}
