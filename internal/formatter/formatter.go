// package formatter renders the authenticated user's profile as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

// Output formats accepted by [Render].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists every format in display order.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ProfileToCSV converts a profile to a header row and a single record: ID, Name, Email, Member Since
func ProfileToCSV(p models.UserProfile) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Email", "Member Since"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	record := []string{strconv.FormatInt(p.ID, 10), p.Name, p.Email, p.MemberSince()}
	if err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ProfileToMarkdown converts a profile to a Markdown document titled with the user's display name.
func ProfileToMarkdown(p models.UserProfile) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", displayName(p))
	fmt.Fprintf(&buf, "**Email**: %s\n", p.Email)
	if since := p.MemberSince(); since != "" {
		fmt.Fprintf(&buf, "**Member since**: %s\n", since)
	}
	if p.ID != 0 {
		fmt.Fprintf(&buf, "**ID**: %d\n", p.ID)
	}

	if len(p.Extra) > 0 {
		buf.WriteString("\n## Additional fields\n\n")
		for _, key := range extraKeys(p) {
			fmt.Fprintf(&buf, "- `%s`: %s\n", key, string(p.Extra[key]))
		}
	}

	return buf.Bytes(), nil
}

// ProfileToText converts a profile to plain text
func ProfileToText(p models.UserProfile) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Name: %s\n", displayName(p))
	fmt.Fprintf(&buf, "Email: %s\n", p.Email)
	if since := p.MemberSince(); since != "" {
		fmt.Fprintf(&buf, "Member since: %s\n", since)
	}

	for _, key := range extraKeys(p) {
		fmt.Fprintf(&buf, "%s: %s\n", key, string(p.Extra[key]))
	}

	return buf.Bytes(), nil
}

// ProfileToJSON converts a profile to indented JSON, unknown API fields included.
func ProfileToJSON(p models.UserProfile) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	return append(data, '\n'), nil
}

// Render converts a profile to the named format.
func Render(p models.UserProfile, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return ProfileToText(p)
	case FormatMarkdown, "md":
		return ProfileToMarkdown(p)
	case FormatCSV:
		return ProfileToCSV(p)
	case FormatJSON:
		return ProfileToJSON(p)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteProfileExport renders a profile and writes it to path, creating parent directories as needed.
//
// When path has no extension the format's conventional one is appended. Returns the path written.
func WriteProfileExport(p models.UserProfile, format, path string) (string, error) {
	data, err := Render(p, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "profile"
	}
	if filepath.Ext(path) == "" {
		path += extension(format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

func displayName(p models.UserProfile) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

func extraKeys(p models.UserProfile) []string {
	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
