// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the locale files against the Go sources. It reports
// message IDs passed to i18n.T that the primary locale does not define,
// IDs no source uses, IDs missing from secondary locales and translations
// whose format verbs differ from the primary text.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "active.en.yaml"
)

var (
	usedKeyRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)
	verbRe    = regexp.MustCompile(`%[-+# 0]*\d*(?:\.\d+)?[a-zA-Z]`)
)

// Result collects every finding of one lint run.
type Result struct {
	Used      int
	Undefined []string
	Orphaned  []string
	// Missing and VerbMismatch are keyed by locale file name.
	Missing      map[string][]string
	VerbMismatch map[string][]string
}

// Failed reports whether the findings should fail a build. Orphaned keys
// are only a warning.
func (r Result) Failed() bool {
	if len(r.Undefined) > 0 {
		return true
	}
	for _, keys := range r.Missing {
		if len(keys) > 0 {
			return true
		}
	}
	for _, keys := range r.VerbMismatch {
		if len(keys) > 0 {
			return true
		}
	}
	return false
}

func main() {
	res, err := lint(".", localesDir)
	if err != nil {
		fmt.Printf("i18n linter: %v\n", err)
		os.Exit(1)
	}
	printResult(res)
	if res.Failed() {
		os.Exit(1)
	}
}

func printResult(r Result) {
	fmt.Printf("Found %d translation keys used in source code.\n", r.Used)
	section := func(title string, keys []string) {
		if len(keys) == 0 {
			return
		}
		fmt.Printf("\n%s:\n", title)
		for _, k := range keys {
			fmt.Printf("  - %s\n", k)
		}
	}
	section("Used but not defined in "+primaryLocale, r.Undefined)
	section("Defined but never used", r.Orphaned)
	for _, file := range sortedKeys(r.Missing) {
		section("Missing in "+file, r.Missing[file])
	}
	for _, file := range sortedKeys(r.VerbMismatch) {
		section("Format verbs differ in "+file, r.VerbMismatch[file])
	}
	if !r.Failed() {
		fmt.Println("\nAll translation files are consistent.")
	}
}

// lint compares the sources under root with the locale files in locales.
func lint(root, locales string) (Result, error) {
	res := Result{Missing: map[string][]string{}, VerbMismatch: map[string][]string{}}

	used, err := findUsedKeys(root)
	if err != nil {
		return res, fmt.Errorf("scan sources: %w", err)
	}
	res.Used = len(used)

	primary, err := loadLocale(filepath.Join(root, locales, primaryLocale))
	if err != nil {
		return res, fmt.Errorf("load primary locale: %w", err)
	}

	for key := range used {
		if _, ok := primary[key]; !ok {
			res.Undefined = append(res.Undefined, key)
		}
	}
	for key := range primary {
		if _, ok := used[key]; !ok {
			res.Orphaned = append(res.Orphaned, key)
		}
	}
	sort.Strings(res.Undefined)
	sort.Strings(res.Orphaned)

	files, err := filepath.Glob(filepath.Join(root, locales, "*.yaml"))
	if err != nil {
		return res, err
	}
	for _, file := range files {
		name := filepath.Base(file)
		if name == primaryLocale {
			continue
		}
		other, err := loadLocale(file)
		if err != nil {
			return res, fmt.Errorf("load %s: %w", name, err)
		}
		for key, text := range primary {
			translated, ok := other[key]
			if !ok {
				res.Missing[name] = append(res.Missing[name], key)
				continue
			}
			if !sameVerbs(text, translated) {
				res.VerbMismatch[name] = append(res.VerbMismatch[name], key)
			}
		}
		sort.Strings(res.Missing[name])
		sort.Strings(res.VerbMismatch[name])
	}
	return res, nil
}

// findUsedKeys scans non-test Go files for i18n.T("key") calls. The tools
// directory and dot directories are skipped.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "tools" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range usedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadLocale reads a locale file into a flat map of message ID to text.
func loadLocale(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	flatten("", data, out)
	return out, nil
}

// flatten turns nested maps into dot-separated IDs. go-i18n also accepts
// "other" leaves for plural forms; those collapse onto their parent ID.
func flatten(prefix string, node interface{}, out map[string]string) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, val := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if k == "other" && prefix != "" {
				key = prefix
			}
			flatten(key, val, out)
		}
	default:
		if prefix != "" {
			out[prefix] = fmt.Sprint(v)
		}
	}
}

// sameVerbs reports whether a and b use the same format verbs in the same
// order.
func sameVerbs(a, b string) bool {
	va, vb := verbRe.FindAllString(a, -1), verbRe.FindAllString(b, -1)
	if len(va) != len(vb) {
		return false
	}
	for i := range va {
		if va[i] != vb[i] {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
