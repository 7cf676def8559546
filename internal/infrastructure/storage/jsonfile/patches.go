package jsonfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/titanous/json5"

	"github.com/a-luna/vigorish-sub003/internal/domain/patch"
)

// Patch files are edited by hand, so comments and trailing commas are
// accepted.
var patchExts = map[string]struct{}{".json": {}, ".json5": {}}

// LoadPatches reads every patch list under dir into a registry. A missing
// dir yields an empty registry.
func LoadPatches(dir string) (*patch.Registry, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return patch.NewRegistry()
	}

	paths := make([]string, 0)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := patchExts[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return patch.NewRegistry()
		}
		return nil, crerr.Wrapf(err, "walk patch dir %s", dir)
	}
	sort.Strings(paths)

	validate := validator.New()
	lists := make([]patch.List, 0, len(paths))
	for _, path := range paths {
		list, err := readPatchList(validate, path)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return patch.NewRegistry(lists...)
}

func readPatchList(validate *validator.Validate, path string) (patch.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return patch.List{}, crerr.Wrapf(err, "read %s", path)
	}
	var list patch.List
	if err := json5.Unmarshal(data, &list); err != nil {
		return patch.List{}, crerr.Wrapf(patch.ErrInvalidList, "decode %s: %v", path, err)
	}
	if !list.Tag {
		return patch.List{}, crerr.Wrapf(patch.ErrInvalidList, "%s is not tagged as a patch list", path)
	}
	if err := validate.Struct(list); err != nil {
		return patch.List{}, crerr.Wrapf(patch.ErrInvalidList, "%s: %v", path, err)
	}
	return list, nil
}
