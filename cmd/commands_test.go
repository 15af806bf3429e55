package cmd

import "testing"

func TestMatchCommandByName(t *testing.T) {
	cmd, ok := matchCommand("rename")
	if !ok {
		t.Fatal("rename not matched")
	}
	if cmd.Name != "rename" {
		t.Errorf("matched %q", cmd.Name)
	}
}

func TestMatchCommandByAlias(t *testing.T) {
	cases := map[string]string{
		"h":    "help",
		"?":    "help",
		"n":    "new",
		"ls":   "history",
		"mv":   "rename",
		"rm":   "delete",
		"q":    "quit",
		"exit": "quit",
	}
	for alias, want := range cases {
		cmd, ok := matchCommand(alias)
		if !ok {
			t.Errorf("alias %q not matched", alias)
			continue
		}
		if cmd.Name != want {
			t.Errorf("alias %q matched %q, want %q", alias, cmd.Name, want)
		}
	}
}

func TestMatchCommandUnknown(t *testing.T) {
	if _, ok := matchCommand("bogus"); ok {
		t.Fatal("unknown command matched")
	}
}

func TestAllCommandsHaveUsage(t *testing.T) {
	for _, c := range AllCommands() {
		if c.Name == "" || c.Description == "" || c.Usage == "" {
			t.Errorf("incomplete command entry: %+v", c)
		}
	}
}
