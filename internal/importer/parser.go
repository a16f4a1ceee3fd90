// Package importer reads learning goals from a plain-text file and submits
// them through the Draft Form.
package importer

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/skillstack/internal/domain"
)

const (
	skillPrefix    = "Skill:"
	typePrefix     = "Type:"
	platformPrefix = "Platform:"
	notesPrefix    = "Notes:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingSkill
	readingType
	readingPlatform
	readingNotes
)

var prefixes = []struct {
	prefix string
	state  state
}{
	{skillPrefix, readingSkill},
	{typePrefix, readingType},
	{platformPrefix, readingPlatform},
	{notesPrefix, readingNotes},
}

// ParseFile reads a file from the given path and extracts all drafts.
func ParseFile(path string) ([]domain.Draft, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads drafts from r. A draft starts at a "Skill:" line and ends at the
// next "Skill:" line, a "---" line or the end of input. Lines without a prefix
// continue the previous field, so notes may span several lines.
func Parse(r io.Reader) ([]domain.Draft, error) {
	scanner := bufio.NewScanner(r)
	var drafts []domain.Draft
	var current domain.Draft
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch currentState {
		case readingSkill:
			current.SkillName = content
		case readingType:
			current.ResourceType = content
		case readingPlatform:
			current.Platform = content
		case readingNotes:
			current.Notes = content
		}
		block = nil
	}

	finishDraft := func() {
		flushBlock()
		if current.SkillName != "" {
			drafts = append(drafts, current)
		}
		current = domain.Draft{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finishDraft()
			continue
		}

		next, rest, ok := matchPrefix(line)
		if !ok {
			if currentState != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == readingSkill && currentState != seeking {
			finishDraft()
		} else {
			flushBlock()
		}
		currentState = next
		block = append(block, rest)
	}

	finishDraft()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return drafts, nil
}

func matchPrefix(line string) (state, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.state, strings.TrimPrefix(rest, " "), true
		}
	}
	return seeking, "", false
}
