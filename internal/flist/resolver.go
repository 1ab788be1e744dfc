// Package flist resolves a file-list into a newline-joined list of
// absolute source paths (§4.1), grounded on
// original_source/source/flist_formatter.py's FlistFormatter.format_cva6.
package flist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/texerai/alf/internal/alferr"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// Resolve expands the flist at path into a newline-joined list of
// absolute source paths. Missing directories, missing -F targets, and
// unset environment variables are fatal Configuration errors.
func Resolve(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", alferr.Wrap(alferr.Configuration, true, "opening flist "+path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "#") {
			continue
		}

		expanded, err := expandEnv(raw)
		if err != nil {
			return "", alferr.Wrap(alferr.Configuration, true, "expanding "+path, err)
		}

		switch {
		case strings.HasPrefix(expanded, "+incdir+"):
			dir := expanded[len("+incdir+"):]
			files, err := walkDir(dir)
			if err != nil {
				return "", alferr.Wrap(alferr.Configuration, true, "resolving +incdir+"+dir, err)
			}
			lines = append(lines, files...)

		case strings.HasPrefix(expanded, "-F"):
			fListPath := strings.TrimSpace(expanded[2:])
			if _, statErr := os.Stat(fListPath); statErr != nil {
				return "", alferr.Wrap(alferr.Configuration, true, "resolving -F "+fListPath, statErr)
			}
			nested, err := Resolve(fListPath)
			if err != nil {
				return "", err
			}
			if nested != "" {
				lines = append(lines, strings.Split(nested, "\n")...)
			}

		default:
			lines = append(lines, expanded)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", alferr.Wrap(alferr.IO, true, "reading flist "+path, err)
	}

	return strings.Join(lines, "\n"), nil
}

func expandEnv(line string) (string, error) {
	var firstErr error
	replaced := envVarPattern.ReplaceAllStringFunc(line, func(m string) string {
		name := envVarPattern.FindStringSubmatch(m)[1]
		val, ok := os.LookupEnv(name)
		if !ok && firstErr == nil {
			firstErr = fmt.Errorf("environment variable %q is not set", name)
		}
		return val
	})
	if firstErr != nil {
		return "", firstErr
	}
	return replaced, nil
}

// walkDir recursively lists every non-directory entry under dir, in the
// order filepath.Walk visits them (lexical order within each directory).
func walkDir(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}

	var files []string
	err = filepath.Walk(dir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
