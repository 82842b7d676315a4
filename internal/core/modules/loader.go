package modules

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/mudcore/internal/core/schema/registry"
	"github.com/zeusync/mudcore/pkg/concurrent"
	"github.com/zeusync/mudcore/pkg/sequence"
)

const (
	metaFile      = "meta.yaml"
	zonesDir      = "zones"
	prototypesDir = "prototypes"
)

type fileKind uint8

const (
	kindMeta fileKind = iota
	kindZone
	kindPrototype
)

type sourceFile struct {
	module string
	kind   fileKind
	path   string
}

type parsedFile struct {
	sourceFile
	meta  Meta
	zone  ZoneFile
	proto registry.Record
}

// Load reads every module under dir.
func Load(ctx context.Context, dir string) ([]*Module, error) {
	return LoadFS(ctx, os.DirFS(dir))
}

// LoadFS reads every module of fsys. A module is a top-level directory holding meta.yaml.
// Files are parsed in parallel; modules come back sorted by priority, then name.
func LoadFS(ctx context.Context, fsys fs.FS) ([]*Module, error) {
	files, err := scan(fsys)
	if err != nil {
		return nil, err
	}

	parsed, err := concurrent.Map(ctx, sequence.From(files), runtime.NumCPU(), func(_ context.Context, f sourceFile) (parsedFile, error) {
		return parse(fsys, f)
	})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Module)
	var out []*Module
	for _, p := range parsed {
		if p.kind != kindMeta {
			continue
		}
		meta := p.meta
		if meta.Name == "" {
			meta.Name = p.module
		}
		m := NewModule(meta)
		m.Path = p.module
		byName[p.module] = m
		out = append(out, m)
	}
	for _, p := range parsed {
		m := byName[p.module]
		switch p.kind {
		case kindZone:
			m.AddZone(p.zone)
		case kindPrototype:
			m.AddPrototype(stem(p.path), p.proto)
		}
	}

	slices.SortFunc(out, byPriority)
	return out, nil
}

// LoadFS loads the modules of fsys into the registry.
func (r *Registry) LoadFS(ctx context.Context, fsys fs.FS) error {
	mods, err := LoadFS(ctx, fsys)
	if err != nil {
		return err
	}
	for _, m := range mods {
		if err := r.Add(m); err != nil {
			return err
		}
	}
	return nil
}

func scan(fsys fs.FS) ([]sourceFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("scan modules: %w", err)
	}
	var files []sourceFile
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		mod := e.Name()
		if _, err := fs.Stat(fsys, path.Join(mod, metaFile)); err != nil {
			continue
		}
		files = append(files, sourceFile{module: mod, kind: kindMeta, path: path.Join(mod, metaFile)})
		for _, dir := range []struct {
			name string
			kind fileKind
		}{{zonesDir, kindZone}, {prototypesDir, kindPrototype}} {
			matches, err := fs.Glob(fsys, path.Join(mod, dir.name, "*.yaml"))
			if err != nil {
				return nil, err
			}
			slices.Sort(matches)
			for _, p := range matches {
				files = append(files, sourceFile{module: mod, kind: dir.kind, path: p})
			}
		}
	}
	return files, nil
}

func parse(fsys fs.FS, f sourceFile) (parsedFile, error) {
	out := parsedFile{sourceFile: f}
	r, err := fsys.Open(f.path)
	if err != nil {
		return out, err
	}
	defer r.Close()

	switch f.kind {
	case kindMeta:
		err = decode(r, &out.meta)
	case kindZone:
		err = decode(r, &out.zone)
		if out.zone.Key == "" {
			out.zone.Key = stem(f.path)
		}
	case kindPrototype:
		out.proto = registry.Record{}
		err = decode(r, &out.proto)
	}
	if err != nil {
		return out, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return out, nil
}

func decode(r io.Reader, v any) error {
	if err := yaml.NewDecoder(r).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func byPriority(a, b *Module) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

func stem(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}
