// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"errors"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// ErrEmptyCode is returned when a code submission has no code.
var ErrEmptyCode = errors.New("code snippet is empty")

// GenericConcept is reported when no known pattern matches.
const GenericConcept = "Generic Algorithm"

// Languages lists the languages offered for code submissions.
var Languages = []string{"javascript", "python", "java", "cpp", "typescript"}

// concept ties a detection pattern to the library hints it unlocks.
type concept struct {
	name          string
	pattern       *regexp.Regexp
	dataStructure string
	algorithm     string
}

// Checked in order; the first match wins.
var concepts = []concept{
	{"Two Pointer", regexp.MustCompile(`(?i)two\s*pointers?`), "array", "twoPointer"},
	{"Sliding Window", regexp.MustCompile(`(?i)sliding\s*window`), "array", "slidingWindow"},
	{"Dynamic Programming", regexp.MustCompile(`(?i)\bdp\b|dynamic\s*programming|memo`), "array", "dynamicProgramming"},
	{"Recursion", regexp.MustCompile(`(?i)recursive|recursion`), "tree", "dfs"},
	{"Hash Map", regexp.MustCompile(`(?i)hash\s*map|dictionary|\bdict\(|\bmap\[|new Map\(|unordered_map`), "hashMap", ""},
	{"Stack", regexp.MustCompile(`(?i)stack\s*implementation|\bstack\b`), "stack", ""},
	{"Queue", regexp.MustCompile(`(?i)queue\s*implementation|\bdeque\b|\bqueue\b`), "queue", "bfs"},
}

var (
	pythonDef       = regexp.MustCompile(`(?m)^\s*def \w+\(.*\)\s*(->.*)?:`)
	typeScriptTypes = regexp.MustCompile(`:\s*(number|string|boolean)(\[\])?\b|\binterface \w+ \{`)
)

// CodeAnalysis is the result of inspecting a code submission.
type CodeAnalysis struct {
	Concept      string
	Language     string
	Improvements []string
	Questions    []string
}

// AnalyzeCode detects the main DSA concept in code and picks matching hints
// and a guiding question. The question is chosen from a hash of the code so
// the same snippet always gets the same question.
func AnalyzeCode(code, language string) CodeAnalysis {
	c := concept{name: GenericConcept}
	for _, candidate := range concepts {
		if candidate.pattern.MatchString(code) {
			c = candidate
			break
		}
	}

	h := fnv.New32a()
	h.Write([]byte(code))
	question := SocraticQuestions[int(h.Sum32()%uint32(len(SocraticQuestions)))]

	return CodeAnalysis{
		Concept:  c.name,
		Language: NormalizeLanguage(language, code),
		Improvements: []string{
			DataStructureHint(c.dataStructure),
			AlgorithmHint(c.algorithm),
		},
		Questions: []string{question},
	}
}

// CodeRequest is a code snippet submitted for review.
type CodeRequest struct {
	Code      string
	Language  string
	AnchorURL string
	Note      string
}

// CodeReview builds the review message for a code submission.
func CodeReview(req CodeRequest) (string, CodeAnalysis, error) {
	code := strings.TrimRight(req.Code, " \t\r\n")
	if strings.TrimSpace(code) == "" {
		return "", CodeAnalysis{}, ErrEmptyCode
	}
	a := AnalyzeCode(code, req.Language)

	var sb strings.Builder
	sb.WriteString("## Code Submission Analysis\n")
	sb.WriteString("Concept Identified: " + a.Concept + "\n")
	sb.WriteString("Potential Improvements:\n")
	for _, imp := range a.Improvements {
		sb.WriteString("- " + imp + "\n")
	}
	sb.WriteString("\nGuiding Questions:\n")
	for _, q := range a.Questions {
		sb.WriteString("- " + q + "\n")
	}

	anchor := ""
	if u := strings.TrimSpace(req.AnchorURL); u != "" {
		anchor = anchorNote(u)
	}
	note := ""
	if n := strings.TrimSpace(req.Note); n != "" {
		note = "Student's note: " + n
	}
	review := "Review the student's " + a.Language + " code below. Point out what to revisit and ask questions; do not rewrite it.\n\n```" +
		a.Language + "\n" + code + "\n```"

	return join(sb.String(), anchor, note, review), a, nil
}

// NormalizeLanguage maps a user-supplied language name to one of Languages.
// An empty or unknown name is detected from the code, defaulting to the
// first entry.
func NormalizeLanguage(language, code string) string {
	if l := canonicalLanguage(language); l != "" {
		return l
	}
	if l := DetectLanguage(code); l != "" {
		return l
	}
	return Languages[0]
}

// DetectLanguage guesses the language of code, returning "" when unsure.
func DetectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		if l := canonicalFromLexer(lexer); l != "" {
			return l
		}
	}
	switch {
	case strings.Contains(code, "#include") || strings.Contains(code, "std::"):
		return "cpp"
	case strings.Contains(code, "public class") || strings.Contains(code, "System.out"):
		return "java"
	case pythonDef.MatchString(code):
		return "python"
	case typeScriptTypes.MatchString(code):
		return "typescript"
	case strings.Contains(code, "function") || strings.Contains(code, "=>") || strings.Contains(code, "const "):
		return "javascript"
	}
	return ""
}

func canonicalLanguage(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		return ""
	}
	for _, l := range Languages {
		if name == l {
			return l
		}
	}
	if lexer := lexers.Get(name); lexer != nil {
		return canonicalFromLexer(lexer)
	}
	return ""
}

func canonicalFromLexer(lexer chroma.Lexer) string {
	switch lexer.Config().Name {
	case "JavaScript":
		return "javascript"
	case "TypeScript":
		return "typescript"
	case "Python", "Python 2":
		return "python"
	case "Java":
		return "java"
	case "C++", "C":
		return "cpp"
	}
	return ""
}
