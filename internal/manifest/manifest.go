// Package manifest reads the mount worklist: the controller registrations
// found at the application's call sites, one per line.
//
//	# comment
//	mount com.example.UserController
//	mvc   com.example.AdminController "/admin"
//	mount com.example.Outer$Inner /api
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"route-recon/internal/logger"
	"route-recon/internal/model"
)

// File is the parsed manifest
type File struct {
	Entries []*Entry `parser:"@@*"`
}

// Entry is one mount line
type Entry struct {
	Pos     lexer.Position
	Keyword string  `parser:"@(\"mount\" | \"mvc\")"`
	Type    string  `parser:"@Ident ( @\".\" @Ident )*"`
	Prefix  *string `parser:"@(String | Path)?"`
}

var manifestLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Path", Pattern: `/[^\s#]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`},
	{Name: "Punct", Pattern: `[.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var parser = participle.MustBuild[File](
	participle.Lexer(manifestLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads and parses a manifest file, decoding it with the encoding hints
func Load(path string, encodings []string) ([]model.Mount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	content, err := Decode(data, encodings)
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}

	mounts, err := Parse(path, content)
	if err != nil {
		return nil, err
	}
	logger.Info("[MANIFEST] %d mounts read from %s", len(mounts), path)
	return mounts, nil
}

// Parse parses manifest text into mounts, in file order
func Parse(name, content string) ([]model.Mount, error) {
	file, err := parser.ParseString(name, content)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	mounts := make([]model.Mount, 0, len(file.Entries))
	for _, e := range file.Entries {
		m := model.Mount{ControllerType: e.Type}
		if e.Prefix != nil {
			m.PathPrefix = strings.TrimSpace(*e.Prefix)
		}
		mounts = append(mounts, m)
	}
	return mounts, nil
}

// Decode converts manifest bytes to text. Valid UTF-8 is used as is;
// otherwise each encoding hint is tried in order, then EUC-KR.
func Decode(data []byte, encodings []string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	for _, name := range encodings {
		if strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
			continue
		}
		enc, err := htmlindex.Get(name)
		if err != nil {
			logger.Warn("[MANIFEST] Unknown encoding %q", name)
			continue
		}
		decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded), nil
		}
	}

	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("encoding detection failed: %w", err)
	}
	return string(decoded), nil
}
