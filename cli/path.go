package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/mung"

	"github.com/ardnew/datalit/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config.yaml"

// baseSchema is the configuration subdirectory searched for schemas.
const baseSchema = "schema"

// defaultDirMode is the permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// basePrefix is the executable base name with a debugger suffix or leading
// dots removed. It names the configuration and cache directories and the
// environment variable prefix.
var basePrefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = strings.TrimSuffix(filepath.Base(id), filepath.Ext(id))

		for rex, rep := range map[*regexp.Regexp]string{
			regexp.MustCompile(`^__debug_bin\d+$`): pkg.Name, // dlv default output
			regexp.MustCompile(`^\.+`):             "",
		} {
			id = rex.ReplaceAllString(id, rep)
		}

		if id == "" {
			return pkg.Name
		}

		return id
	},
)

// userDir returns the directory from base, or from home joined with
// fallback, or the working directory, joined with the prefix.
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		if dir, err = os.UserHomeDir(); err == nil {
			dir = filepath.Join(dir, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

var configDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

var cacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// configPath joins elem to the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// pathEnv is the environment variable listing extra schema directories.
func pathEnv() string {
	return strings.ToUpper(basePrefix()) + "_PATH"
}

// schemaPath returns the schema search directories: the configuration
// schema directory followed by the entries of [pathEnv]. Entries that are
// not directories are dropped.
func schemaPath() []string {
	return filepath.SplitList(mung.Make(
		mung.WithSubjectItems(os.Getenv(pathEnv())),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(configPath(baseSchema)),
		mung.WithFilter(isDir),
	).String())
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
