// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/termpanel/panel"
)

// minIDPrefix is the shortest ID prefix accepted as a reference.
const minIDPrefix = 4

// resolveTerminal finds the session a command-line reference names:
// "." for the active terminal, a full ID, a unique ID prefix, or an
// exact title. When fuzzy is set, anything else is matched against
// titles and the best-scoring session wins.
func resolveTerminal(engine *panel.Engine, reference string, fuzzy bool) (panel.Session, error) {
	sessions := engine.Terminals()

	if reference == "." {
		active := engine.ActiveTerminalID()
		if active == "" {
			return panel.Session{}, fmt.Errorf("no active terminal")
		}
		session, _ := engine.Terminal(active)
		return session, nil
	}

	if session, ok := engine.Terminal(reference); ok {
		return session, nil
	}

	if len(reference) >= minIDPrefix {
		var matches []panel.Session
		for _, session := range sessions {
			if strings.HasPrefix(session.ID, reference) {
				matches = append(matches, session)
			}
		}
		switch len(matches) {
		case 1:
			return matches[0], nil
		case 0:
		default:
			return panel.Session{}, fmt.Errorf("terminal prefix %q is ambiguous (%d matches)", reference, len(matches))
		}
	}

	for _, session := range sessions {
		if session.Title == reference {
			return session, nil
		}
	}

	if fuzzy {
		if ranked := rankByTitle(reference, sessions); len(ranked) > 0 {
			return ranked[0].session, nil
		}
	}
	return panel.Session{}, fmt.Errorf("no terminal matches %q", reference)
}

type titleMatch struct {
	session panel.Session
	score   int
}

var initFuzzy sync.Once

// rankByTitle fuzzy-matches query against every session title and
// returns the matches best first. Equal scores keep registry order.
func rankByTitle(query string, sessions []panel.Session) []titleMatch {
	initFuzzy.Do(func() { algo.Init("default") })

	pattern := []rune(strings.ToLower(query))
	if len(pattern) == 0 {
		return nil
	}
	slab := util.MakeSlab(100*1024, 2048)

	var matches []titleMatch
	for _, session := range sessions {
		chars := util.ToChars([]byte(session.Title))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
		if result.Start < 0 || result.Score <= 0 {
			continue
		}
		matches = append(matches, titleMatch{session: session, score: result.Score})
	}
	slices.SortStableFunc(matches, func(a, b titleMatch) int {
		return cmp.Compare(b.score, a.score)
	})
	return matches
}
