package notes

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/academicapex/strategist/constants"
	"github.com/academicapex/strategist/internal/common"
)

const notesDirName = "ApexNotes"

// Vault writes markdown notes into a directory tree a knowledge-base app
// (Obsidian and the like) can index directly. Each category gets its own
// subdirectory under ApexNotes; general notes sit at the subtree root.
type Vault struct {
	root     string
	notesDir string
	logger   *slog.Logger
}

// NewVault creates the vault layout under root, making directories for every
// known category up front.
func NewVault(root string, logger *slog.Logger) (*Vault, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, common.WrapError(err, "resolve vault path")
	}

	v := &Vault{
		root:     abs,
		notesDir: filepath.Join(abs, notesDirName),
		logger:   logger,
	}
	if err := os.MkdirAll(v.notesDir, 0o755); err != nil {
		return nil, common.WrapError(err, "create vault directories")
	}
	for _, c := range []constants.Category{constants.Quiz, constants.StudyPlan, constants.Code, constants.Document} {
		if err := os.MkdirAll(filepath.Join(v.notesDir, string(c)), 0o755); err != nil {
			return nil, common.WrapError(err, "create category directory")
		}
	}
	logger.Info("vault.ready", "root", v.root, "notes_dir", v.notesDir)
	return v, nil
}

// CreateNote writes the note atomically: content goes to a temp file in the
// target directory, then a rename publishes it.
func (v *Vault) CreateNote(ctx context.Context, title, body, category string) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Location{}, common.Tag(common.ErrValidation, "note title must not be empty", nil)
	}
	cat, _ := constants.Canonicalize(category)

	dir := v.categoryDir(cat)
	now := time.Now()
	filename := noteFilename(title, now)
	dest := filepath.Join(dir, filename)

	content := frontmatter(title, cat, now) + body

	tmp, err := os.CreateTemp(dir, ".note-*")
	if err != nil {
		return Location{}, common.WrapError(err, "create temp note")
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Location{}, common.WrapError(err, "write note")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Location{}, common.WrapError(err, "close note")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return Location{}, common.WrapError(err, "publish note")
	}

	v.logger.Info("vault.note_created",
		"path", dest,
		"category", string(cat),
		"bytes", len(content),
	)
	return Location{
		Path:     dest,
		Filename: filename,
		Category: string(cat),
		Size:     len(content),
		Created:  now,
	}, nil
}

// ListNotes returns all markdown notes, newest first. An empty category
// matches everything.
func (v *Vault) ListNotes(category string) ([]Note, error) {
	var filter string
	if category != "" {
		c, _ := constants.Canonicalize(category)
		filter = string(c)
	}

	var out []Note
	err := filepath.WalkDir(v.notesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			v.logger.Warn("vault.stat_failed", "path", path, "error", ierr)
			return nil
		}
		cat := filepath.Base(filepath.Dir(path))
		if filepath.Dir(path) == v.notesDir {
			cat = string(constants.General)
		}
		if filter != "" && cat != filter {
			return nil
		}
		out = append(out, Note{
			Filename: d.Name(),
			Path:     path,
			Category: cat,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, common.WrapError(err, "list notes")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Modified.After(out[j].Modified) })
	return out, nil
}

// ValidateVault checks the layout and that the notes directory is writable.
// It returns the problems found rather than stopping at the first one.
func (v *Vault) ValidateVault() []string {
	var issues []string

	if info, err := os.Stat(v.root); err != nil {
		issues = append(issues, fmt.Sprintf("vault path does not exist: %s", v.root))
	} else if !info.IsDir() {
		issues = append(issues, fmt.Sprintf("vault path is not a directory: %s", v.root))
	}
	if _, err := os.Stat(v.notesDir); err != nil {
		issues = append(issues, fmt.Sprintf("notes directory missing: %s", v.notesDir))
	}
	for _, c := range []constants.Category{constants.Quiz, constants.StudyPlan, constants.Code, constants.Document} {
		dir := filepath.Join(v.notesDir, string(c))
		if _, err := os.Stat(dir); err != nil {
			issues = append(issues, fmt.Sprintf("category directory missing: %s", dir))
		}
	}

	probe := filepath.Join(v.notesDir, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		issues = append(issues, fmt.Sprintf("write permission check failed: %v", err))
	} else {
		os.Remove(probe)
	}
	return issues
}

// Root returns the resolved vault root.
func (v *Vault) Root() string { return v.root }

func (v *Vault) categoryDir(cat constants.Category) string {
	if cat == constants.General {
		return v.notesDir
	}
	return filepath.Join(v.notesDir, string(cat))
}

// noteFilename builds <slug>_<timestamp>_<uuid8>.md. The uuid fragment keeps
// names unique when two notes land within the same second.
func noteFilename(title string, now time.Time) string {
	slug := slugify(title)
	return fmt.Sprintf("%s_%s_%s.md", slug, now.Format("20060102_150405"), uuid.New().String()[:8])
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "note"
	}
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return slug
}

func frontmatter(title string, cat constants.Category, now time.Time) string {
	return fmt.Sprintf(`---
title: %q
category: %q
created: %s
type: "note"
tags: ["academic-apex", %q, "ai-generated"]
---

# %s

Created: %s

---

`, title, string(cat), now.Format(time.RFC3339), string(cat), title, now.Format("2006-01-02 15:04:05"))
}
