// Package examkey parses answer keys for multi-part exam papers from manual
// text entry or text extracted from an uploaded document.
package examkey

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Parse failures surfaced to callers as user-correctable input errors.
var (
	ErrBadIndex       = errors.New("invalid or duplicated question number")
	ErrMissingIndex   = errors.New("missing question number")
	ErrCountMismatch  = errors.New("unexpected answer count")
	ErrMissingChoice  = errors.New("missing choice for a multiple-choice question")
	ErrInvalidChoice  = errors.New("invalid multiple-choice answer")
	ErrInvalidBoolean = errors.New("invalid true/false value")
	ErrStatementCount = errors.New("unexpected number of true/false values")
)

var (
	sectionRe   = regexp.MustCompile(`(?i)^\[(?:PART|PHẦN)\s*(\d)\]`)
	indexRe     = regexp.MustCompile(`(?i)^(?:câu|question)?\s*(\d+)(?:[.\-:)]\s*)?(.*)$`)
	nonChoiceRe = regexp.MustCompile(`[^a-dA-D]`)
	tokenRe     = regexp.MustCompile(`[\s,;]+`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// Token vocabularies accepted for true/false statements, case-insensitive.
var (
	trueTokens  = map[string]bool{"d": true, "đ": true, "t": true, "true": true, "y": true, "yes": true, "đúng": true}
	falseTokens = map[string]bool{"s": true, "f": true, "false": true, "n": true, "no": true, "sai": true}
)

type indexedLine struct {
	index    int
	explicit bool
	value    string
}

func iterIndexedLines(lines []string) []indexedLine {
	entries := make([]indexedLine, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if match := indexRe.FindStringSubmatch(line); match != nil {
			index, err := strconv.Atoi(match[1])
			if err == nil {
				entries = append(entries, indexedLine{index: index, explicit: true, value: strings.TrimSpace(match[2])})
				continue
			}
		}
		entries = append(entries, indexedLine{value: line})
	}

	return entries
}

// normalizeOrder assigns sequential indices to unprefixed lines, rejects
// duplicates and out-of-range indices, and requires the sorted indices to be
// exactly 1..len. A positive expected count must match the parsed count.
func normalizeOrder(entries []indexedLine, expected int) ([]string, error) {
	type numbered struct {
		index int
		value string
	}

	ordered := make([]numbered, 0, len(entries))
	seen := make(map[int]bool, len(entries))
	next := 1
	for _, entry := range entries {
		index := entry.index
		if !entry.explicit {
			index = next
		}
		if index < 1 || seen[index] {
			return nil, fmt.Errorf("%w: %d", ErrBadIndex, index)
		}
		ordered = append(ordered, numbered{index: index, value: entry.value})
		seen[index] = true
		next = index + 1
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })
	for position, entry := range ordered {
		if entry.index != position+1 {
			return nil, fmt.Errorf("%w %d", ErrMissingIndex, position+1)
		}
	}

	values := make([]string, len(ordered))
	for i, entry := range ordered {
		values[i] = entry.value
	}

	if expected > 0 && len(values) != expected {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", ErrCountMismatch, expected, len(values))
	}

	return values, nil
}

// ParsePart1 parses multiple-choice answer lines into A–D letters, in
// question order. A non-positive expected count disables the count check.
func ParsePart1(lines []string, expected int) ([]string, error) {
	values, err := normalizeOrder(iterIndexedLines(lines), expected)
	if err != nil {
		return nil, err
	}

	answers := make([]string, 0, len(values))
	for _, value := range values {
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return nil, ErrMissingChoice
		}
		candidate := strings.ToUpper(nonChoiceRe.ReplaceAllString(fields[0], ""))
		switch candidate {
		case "A", "B", "C", "D":
			answers = append(answers, candidate)
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, fields[0])
		}
	}

	return answers, nil
}

func parseTrueFalseToken(token string) (bool, error) {
	cleaned := strings.ToLower(strings.TrimSpace(token))
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	if trueTokens[cleaned] {
		return true, nil
	}
	if falseTokens[cleaned] {
		return false, nil
	}

	return false, fmt.Errorf("%w: %q", ErrInvalidBoolean, token)
}

// ParsePart2 parses true/false answer lines. Each line must contain exactly
// statements tokens (4 when statements is non-positive).
func ParsePart2(lines []string, statements, expected int) ([][]bool, error) {
	if statements <= 0 {
		statements = 4
	}

	values, err := normalizeOrder(iterIndexedLines(lines), expected)
	if err != nil {
		return nil, err
	}

	answers := make([][]bool, 0, len(values))
	for _, value := range values {
		raw := tokenRe.Split(value, -1)
		tokens := raw[:0]
		for _, token := range raw {
			if token != "" {
				tokens = append(tokens, token)
			}
		}
		if len(tokens) != statements {
			return nil, fmt.Errorf("%w: each true/false question must have %d values", ErrStatementCount, statements)
		}
		row := make([]bool, len(tokens))
		for i, token := range tokens {
			parsed, err := parseTrueFalseToken(token)
			if err != nil {
				return nil, err
			}
			row[i] = parsed
		}
		answers = append(answers, row)
	}

	return answers, nil
}

// ParsePart3 parses short-answer lines; the answer is the line remainder with
// all whitespace removed.
func ParsePart3(lines []string, expected int) ([]string, error) {
	values, err := normalizeOrder(iterIndexedLines(lines), expected)
	if err != nil {
		return nil, err
	}

	answers := make([]string, len(values))
	for i, value := range values {
		answers[i] = spaceRe.ReplaceAllString(value, "")
	}

	return answers, nil
}

// Document holds the answer lists parsed from a combined answer document.
// Parts whose section marker never appeared are left nil.
type Document struct {
	Part1 []string
	Part2 [][]bool
	Part3 []string
}

// ParseDocument splits text on case-insensitive [PART n]/[PHẦN n] markers and
// runs the per-part line parsers on each section's collected lines.
func ParseDocument(text string, statements int) (Document, error) {
	sections := map[int][]string{1: nil, 2: nil, 3: nil}
	current := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if match := sectionRe.FindStringSubmatch(line); match != nil {
			current, _ = strconv.Atoi(match[1])
			continue
		}
		if _, ok := sections[current]; ok {
			sections[current] = append(sections[current], line)
		}
	}

	var doc Document
	var err error
	if len(sections[1]) > 0 {
		if doc.Part1, err = ParsePart1(sections[1], 0); err != nil {
			return Document{}, err
		}
	}
	if len(sections[2]) > 0 {
		if doc.Part2, err = ParsePart2(sections[2], statements, 0); err != nil {
			return Document{}, err
		}
	}
	if len(sections[3]) > 0 {
		if doc.Part3, err = ParsePart3(sections[3], 0); err != nil {
			return Document{}, err
		}
	}

	return doc, nil
}
