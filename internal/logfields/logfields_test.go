package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Pipeline", KeyPipeline, "blog", Pipeline("blog")},
		{"Stage", KeyStage, "markdown", Stage("markdown")},
		{"Task", KeyTask, "styles", Task("styles")},
		{"Group", KeyGroup, "blog", Group("blog")},
		{"Version", KeyVersion, "1.8", Version("1.8")},
		{"File", KeyFile, "foo.md", File("foo.md")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"URL", KeyURL, "/docs/latest/", URL("/docs/latest/")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("nil error should be empty, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("unexpected error value %q", got)
	}
	if Files(3).Value.Int64() != 3 {
		t.Fatal("files attr should carry count")
	}
}
