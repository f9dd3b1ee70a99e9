// Package conanpath is the canonical Conan storage key model: package
// coordinates, recipe/binary file keys, and the parsers that turn
// URL-matcher captures into coordinates. Path construction is
// kept explicit and centralized the way distribution/distribution's
// registry/storage pathMapper keeps every on-disk layout decision in one
// place, even though that file is reference material, not the teacher.
package conanpath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cs3conan/conan-server/pkg/errtypes"
)

// DefaultUserChannel is the literal placeholder used when a coordinate
// carries no explicit user/channel.
const DefaultUserChannel = "_"

// PkgSrcList is the canonical recipe file set.
var PkgSrcList = []string{
	"conanmanifest.txt",
	"conan_export.tgz",
	"conanfile.py",
	"conan_sources.tgz",
}

// PkgBinList is the canonical binary file set.
var PkgBinList = []string{
	"conanmanifest.txt",
	"conaninfo.txt",
	"conan_package.tgz",
}

// Coordinate identifies a package: name/version/user/channel.
type Coordinate struct {
	Name    string
	Version string
	User    string
	Channel string
}

// String renders the coordinate as its on-disk/URL path,
// "name/version/user/channel".
func (c Coordinate) String() string {
	return strings.Join([]string{c.Name, c.Version, c.User, c.Channel}, "/")
}

var hashPattern = regexp.MustCompile(`^[0-9a-f]+$`)

// ValidHash reports whether s matches the lowercase-hex hash grammar.
func ValidHash(s string) bool {
	return s != "" && hashPattern.MatchString(s)
}

// segmentPattern rejects empty segments, ".." and backslashes.
var segmentPattern = regexp.MustCompile(`^[^/\\]+$`)

func validSegment(s string) bool {
	return s != "" && s != ".." && segmentPattern.MatchString(s) && !strings.Contains(s, "\\")
}

// ParseCoordinate parses a "path" URL-matcher capture (slash-separated,
// 2 or 4 segments) into a Coordinate, defaulting user/channel to "_".
func ParseCoordinate(pathCapture string) (Coordinate, error) {
	parts := strings.Split(strings.Trim(pathCapture, "/"), "/")
	for _, p := range parts {
		if !validSegment(p) {
			return Coordinate{}, errtypes.BadRequest(fmt.Sprintf("bad coordinate segment in %q", pathCapture))
		}
	}
	switch len(parts) {
	case 2:
		return Coordinate{Name: parts[0], Version: parts[1], User: DefaultUserChannel, Channel: DefaultUserChannel}, nil
	case 4:
		return Coordinate{Name: parts[0], Version: parts[1], User: parts[2], Channel: parts[3]}, nil
	default:
		return Coordinate{}, errtypes.BadRequest(fmt.Sprintf("malformed coordinate %q", pathCapture))
	}
}

// ParseHash validates a "hash" URL-matcher capture.
func ParseHash(hashCapture string) (string, error) {
	if !ValidHash(hashCapture) {
		return "", errtypes.BadRequest(fmt.Sprintf("malformed hash %q", hashCapture))
	}
	return hashCapture, nil
}

// CoordRoot is the storage key for a coordinate's root directory.
func CoordRoot(c Coordinate) string {
	return c.String()
}

// RecipeRevDir is the directory holding one recipe revision's export/ tree.
func RecipeRevDir(c Coordinate, rev int) string {
	return fmt.Sprintf("%s/%d", CoordRoot(c), rev)
}

// RecipeKey builds "<coord>/<rev>/export/<filename>".
func RecipeKey(c Coordinate, rev int, filename string) (string, error) {
	if !validSegment(filename) {
		return "", errtypes.BadRequest(fmt.Sprintf("bad filename %q", filename))
	}
	return fmt.Sprintf("%s/export/%s", RecipeRevDir(c, rev), filename), nil
}

// PackageHashDir is the directory holding every revision of one binary hash.
func PackageHashDir(c Coordinate, recipeRev int, hash string) string {
	return fmt.Sprintf("%s/package/%s", RecipeRevDir(c, recipeRev), hash)
}

// BinaryRevDir is the directory holding one binary revision's files.
func BinaryRevDir(c Coordinate, recipeRev int, hash string, binRev int) string {
	return fmt.Sprintf("%s/%d", PackageHashDir(c, recipeRev, hash), binRev)
}

// BinaryKey builds "<coord>/<recipeRev>/package/<hash>/<binRev>/<filename>".
func BinaryKey(c Coordinate, recipeRev int, hash string, binRev int, filename string) (string, error) {
	if !validSegment(filename) {
		return "", errtypes.BadRequest(fmt.Sprintf("bad filename %q", filename))
	}
	return fmt.Sprintf("%s/%s", BinaryRevDir(c, recipeRev, hash, binRev), filename), nil
}

// RevisionsIndexKey returns the "<dir>/revisions.txt" key for dir.
func RevisionsIndexKey(dir string) string {
	return dir + "/revisions.txt"
}

// ParseRevisionDirName parses an immediate child directory name into a
// non-negative integer revision, per invariant I3: revision numbers are
// parsed as integers, not compared lexicographically.
func ParseRevisionDirName(name string) (int, bool) {
	n, err := strconv.Atoi(name)
	if err != nil || n < 0 {
		return 0, false
	}
	// reject anything strconv would parse loosely, e.g. leading "+0".
	if strconv.Itoa(n) != name {
		return 0, false
	}
	return n, true
}
