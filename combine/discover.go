/*
 * discover.go, part of govasp.
 *
 * Copyright 2024 The govasp authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package combine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

//SortOrder is the order in which the discovered files are merged.
type SortOrder string

const (
	//SortNatural compares runs of digits as numbers, so 2/ comes before 10/.
	SortNatural SortOrder = "natural"
	//SortLexical compares paths byte by byte, so 10/ comes before 2/.
	SortLexical SortOrder = "lexical"
)

//ParseSortOrder returns the SortOrder named by s.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortNatural:
		return SortNatural, nil
	case SortLexical:
		return SortLexical, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want %q or %q)", s, SortNatural, SortLexical)
	}
}

//Entry is a file found under the root directory.
type Entry struct {
	//Path is the file path as given to the readers: the root joined with Rel.
	Path string
	//Rel is the path relative to the root.
	Rel string
	//Valid is false for files in directories that are neither numeric nor the root.
	Valid bool
}

//Dir returns the directory of the entry, relative to the root ("." for the root itself).
func (e Entry) Dir() string {
	return filepath.Dir(e.Rel)
}

func hidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

//matches returns true if name is the pattern, or, with compressed, the pattern followed by .gz or .zst.
func matches(pattern, name string, compressed bool) (bool, error) {
	ok, err := filepath.Match(pattern, name)
	if err != nil || ok || !compressed {
		return ok, err
	}
	for _, ext := range []string{".gz", ".zst"} {
		if !strings.HasSuffix(name, ext) {
			continue
		}
		if ok, err = filepath.Match(pattern, strings.TrimSuffix(name, ext)); ok || err != nil {
			return ok, err
		}
	}
	return false, nil
}

//Discover returns the files under root whose name matches pattern. With recursive, every
//depth is searched, otherwise only root/*/pattern. The file in root itself is
//included only with includeRoot. Hidden directories are not searched. With compressed,
//pattern.gz and pattern.zst also match. Symbolic links to directories are followed,
//each target directory only once. All returned entries are valid; the order
//is the one of filepath.WalkDir.
func Discover(root, pattern string, recursive, includeRoot, compressed bool) ([]Entry, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("discover: bad pattern %q: %w", pattern, err)
	}
	d := &discoverer{root: root, pattern: pattern, recursive: recursive, includeRoot: includeRoot, compressed: compressed, seen: make(map[string]bool)}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		d.seen[real] = true
	}
	if err := d.walk(dirPath(root), "."); err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	return d.entries, nil
}

type discoverer struct {
	root        string
	pattern     string
	recursive   bool
	includeRoot bool
	compressed  bool
	//real paths of the directories already walked.
	seen    map[string]bool
	entries []Entry
}

//walk searches dir, which is base relative to the root.
func (D *discoverer) walk(dir, base string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.Join(base, rel)
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if !D.searchable(d.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return D.follow(path, d.Name(), rel)
			}
		}
		ok, _ := matches(D.pattern, d.Name(), D.compressed)
		if !ok {
			return nil
		}
		if !D.includeRoot && filepath.Dir(rel) == "." {
			return nil
		}
		D.entries = append(D.entries, Entry{Path: filepath.Join(D.root, rel), Rel: rel, Valid: true})
		return nil
	})
}

//searchable tells whether the directory called name, at rel from the root, is to be searched.
func (D *discoverer) searchable(name, rel string) bool {
	return !hidden(name) && (D.recursive || !strings.Contains(rel, string(filepath.Separator)))
}

//follow walks the directory the symbolic link at path points to, unless it was already walked.
func (D *discoverer) follow(path, name, rel string) error {
	if !D.searchable(name, rel) {
		return nil
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil || D.seen[real] {
		return nil
	}
	D.seen[real] = true
	return D.walk(dirPath(path), rel)
}

//dirPath adds a trailing separator to path, so a symbolic link in it is resolved
//by filepath.WalkDir.
func dirPath(path string) string {
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return path
	}
	return path + string(filepath.Separator)
}

func numeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

//Filter marks as invalid the entries whose directory is neither the root nor a
//directory with a purely numeric name, and returns the valid ones.
func Filter(entries []Entry) []Entry {
	ret := make([]Entry, 0, len(entries))
	for i, e := range entries {
		dir := e.Dir()
		entries[i].Valid = dir == "." || numeric(filepath.Base(dir))
		if entries[i].Valid {
			ret = append(ret, entries[i])
		}
	}
	return ret
}

//Order sorts the entries in place by path, with the given order.
func Order(entries []Entry, order SortOrder) error {
	switch order {
	case SortNatural:
		sort.SliceStable(entries, func(i, j int) bool { return natural.Less(entries[i].Path, entries[j].Path) })
	case SortLexical:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	default:
		return fmt.Errorf("order: unknown sort order %q", order)
	}
	return nil
}
