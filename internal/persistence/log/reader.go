package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"homeship.ai/internal/sim/ship"
)

// ListFiles returns <prefix>-*.jsonl.zst files in dir in name (and therefore time) order.
func ListFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ScanFile calls fn for every line of a .jsonl.zst file. fn must not retain line.
func ScanFile(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return sc.Err()
}

// ReadAudit decodes every audit entry under dir in file order.
func ReadAudit(dir string) ([]ship.AuditEntry, error) {
	files, err := ListFiles(dir, "audit")
	if err != nil {
		return nil, err
	}
	var out []ship.AuditEntry
	for _, p := range files {
		err := ScanFile(p, func(line []byte) error {
			var e ship.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("unmarshal: %w", err)
			}
			out = append(out, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func ReadGenerations(dir string) ([]GenerationEntry, error) {
	files, err := ListFiles(dir, "generations")
	if err != nil {
		return nil, err
	}
	var out []GenerationEntry
	for _, p := range files {
		err := ScanFile(p, func(line []byte) error {
			var e GenerationEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("unmarshal: %w", err)
			}
			out = append(out, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
