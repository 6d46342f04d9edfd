package sync

import (
	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreList filters candidate files by gitignore-style patterns from the
// config's exclude list, matched against the slash-separated relative path.
type ignoreList struct {
	matcher *gitignore.GitIgnore
}

func newIgnoreList(patterns []string) *ignoreList {
	if len(patterns) == 0 {
		return &ignoreList{}
	}
	return &ignoreList{matcher: gitignore.CompileIgnoreLines(patterns...)}
}

func (l *ignoreList) Match(relPath string) bool {
	if l.matcher == nil {
		return false
	}
	return l.matcher.MatchesPath(relPath)
}
