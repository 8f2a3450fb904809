package patch

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup filenames sort lexicographically in time order, so "latest" is
// just the last glob match.
const backupStampLayout = "20060102-150405"

// BackupFile copies the target to a timestamped sibling before a rewrite.
// The copy keeps the original's permission bits.
func BackupFile(target string, now time.Time) (string, error) {
	contents, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for backup: %w", target, err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", target, err)
	}
	dst := fmt.Sprintf("%s.bak-%s", target, now.UTC().Format(backupStampLayout))
	err = os.WriteFile(dst, contents, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", dst, err)
	}
	return dst, nil
}

// Backups lists existing backups of the target, oldest first.
func Backups(target string) ([]string, error) {
	dir := filepath.Dir(target)
	base := filepath.Base(target)
	fsys := os.DirFS(dir)
	matches, err := fs.Glob(fsys, base+".bak-*")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	for i := range matches {
		matches[i] = path.Join(dir, matches[i])
	}
	return matches, nil
}

// LatestBackup returns the newest backup of the target, or "" when the
// target was never backed up.
func LatestBackup(target string) (string, error) {
	backups, err := Backups(target)
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", nil
	}
	return backups[len(backups)-1], nil
}

// RestoreBackup copies the newest backup over the target and returns the
// backup path it restored from. The backup file itself is kept.
func RestoreBackup(target string) (string, error) {
	src, err := LatestBackup(target)
	if err != nil {
		return "", err
	}
	if src == "" {
		return "", nil
	}
	contents, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("failed to read backup %s: %w", src, err)
	}
	err = os.WriteFile(target, contents, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to restore %s: %w", target, err)
	}
	return src, nil
}

// StampFromBackup recovers the timestamp encoded in a backup filename.
func StampFromBackup(backupPath string) (time.Time, error) {
	idx := strings.LastIndex(backupPath, ".bak-")
	if idx == -1 {
		return time.Time{}, fmt.Errorf("%s is not a backup path", backupPath)
	}
	return time.Parse(backupStampLayout, backupPath[idx+len(".bak-"):])
}
