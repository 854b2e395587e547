package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
	th "github.com/desertthunder/filmx/internal/testing"
)

func testProfile() models.UserProfile {
	return models.UserProfile{
		ID:        7,
		Name:      "Ana Lima",
		Email:     "ana@example.com",
		CreatedAt: models.Timestamp{Time: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)},
		Extra:     map[string]json.RawMessage{"role": json.RawMessage(`"critic"`)},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ProfileToCSV", func(t *testing.T) {
		data, err := ProfileToCSV(testProfile())
		if err != nil {
			t.Fatalf("ProfileToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one record, got %d lines: %q", len(lines), data)
		}
		if lines[0] != "ID,Name,Email,Member Since" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "7,Ana Lima,ana@example.com,2024-03-15" {
			t.Errorf("unexpected CSV record: %s", lines[1])
		}
	})

	t.Run("ProfileToCSV quotes commas", func(t *testing.T) {
		p := testProfile()
		p.Name = "Lima, Ana"

		data, err := ProfileToCSV(p)
		if err != nil {
			t.Fatalf("ProfileToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), `"Lima, Ana"`) {
			t.Errorf("expected quoted name, got %s", data)
		}
	})

	t.Run("ProfileToMarkdown", func(t *testing.T) {
		data, err := ProfileToMarkdown(testProfile())
		if err != nil {
			t.Fatalf("ProfileToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Ana Lima",
			"**Email**: ana@example.com",
			"**Member since**: 2024-03-15",
			"## Additional fields",
			"- `role`: \"critic\"",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}

		t.Run("without name or creation date", func(t *testing.T) {
			data, err := ProfileToMarkdown(models.UserProfile{Email: "x@example.com"})
			if err != nil {
				t.Fatalf("ProfileToMarkdown failed: %v", err)
			}

			output := string(data)
			if !strings.HasPrefix(output, "# x@example.com") {
				t.Errorf("expected email as title, got:\n%s", output)
			}
			if strings.Contains(output, "Member since") {
				t.Error("expected no member since line")
			}
			if strings.Contains(output, "Additional fields") {
				t.Error("expected no additional fields section")
			}
		})
	})

	t.Run("ProfileToText", func(t *testing.T) {
		data, err := ProfileToText(testProfile())
		if err != nil {
			t.Fatalf("ProfileToText failed: %v", err)
		}

		want := "Name: Ana Lima\nEmail: ana@example.com\nMember since: 2024-03-15\nrole: \"critic\"\n"
		if string(data) != want {
			t.Errorf("expected %q, got %q", want, data)
		}
	})

	t.Run("ProfileToJSON", func(t *testing.T) {
		data, err := ProfileToJSON(testProfile())
		if err != nil {
			t.Fatalf("ProfileToJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded["email"] != "ana@example.com" {
			t.Errorf("expected email, got %v", decoded["email"])
		}
		if decoded["role"] != "critic" {
			t.Errorf("expected extra field to survive, got %v", decoded["role"])
		}
		if !strings.HasSuffix(string(data), "\n") {
			t.Error("expected trailing newline")
		}
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "Name: Ana Lima"},
		{FormatText, "Name: Ana Lima"},
		{FormatMarkdown, "# Ana Lima"},
		{"md", "# Ana Lima"},
		{"CSV", "ID,Name,Email,Member Since"},
		{FormatJSON, `"email": "ana@example.com"`},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			data, err := Render(testProfile(), tt.format)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("expected %q in output, got:\n%s", tt.want, data)
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		_, err := Render(testProfile(), "yaml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteProfileExport", func(t *testing.T) {
		t.Run("appends extension", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "exports", "ana")

			path, err := WriteProfileExport(testProfile(), FormatMarkdown, base)
			if err != nil {
				t.Fatalf("WriteProfileExport failed: %v", err)
			}
			if path != base+".md" {
				t.Errorf("expected %s.md, got %s", base, path)
			}

			th.AssertFileExists(t, path)
			if content := th.MustReadFile(t, path); !strings.Contains(content, "# Ana Lima") {
				t.Errorf("unexpected file content: %s", content)
			}
		})

		t.Run("keeps explicit extension", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "me.data")

			got, err := WriteProfileExport(testProfile(), FormatCSV, path)
			if err != nil {
				t.Fatalf("WriteProfileExport failed: %v", err)
			}
			if got != path {
				t.Errorf("expected %s, got %s", path, got)
			}
			if content := th.MustReadFile(t, got); !strings.HasPrefix(content, "ID,Name") {
				t.Errorf("unexpected file content: %s", content)
			}
		})

		t.Run("rejects unknown format", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "me")
			if _, err := WriteProfileExport(testProfile(), "xml", path); err == nil {
				t.Error("expected error for unknown format")
			}
		})
	})
}
