// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

// =============================================================================
// TEACHING PATTERN LIBRARY
// =============================================================================

// ProblemBreakdown lists questions that help restate a problem.
var ProblemBreakdown = []string{
	"What is the problem asking us to find or calculate?",
	"What are the input constraints?",
	"What patterns in the input should we pay attention to?",
	"Can we restate this problem in simpler terms?",
	"What would a minimal working example look like?",
}

// SocraticQuestions are generic prompts that keep the student thinking.
var SocraticQuestions = []string{
	"What happens if we try a small example first?",
	"Can you identify any patterns in the expected output?",
	"What edge cases should we consider?",
	"Could we solve a simpler version of this problem first?",
	"What's the most expensive operation in your current approach?",
	"Is there a way to avoid recalculating the same values?",
	"How would you explain your approach to someone else?",
	"What's the invariant in each step of your algorithm?",
}

// DataStructureHints maps a data structure to a nudge toward using it.
var DataStructureHints = map[string]string{
	"array":   "Consider how arrays provide O(1) access when index is known. Would that help here?",
	"hashMap": "When we need to check for existence or retrieve values quickly, hash maps offer O(1) lookup.",
	"stack":   "Does the problem involve processing elements in a last-in, first-out manner?",
	"queue":   "Is the order of processing important? Should we handle elements first-in, first-out?",
	"heap":    "Do we need to repeatedly find the minimum/maximum element efficiently?",
	"tree":    "Is there a hierarchical relationship in the data? Or do we need to eliminate half our options at each step?",
	"graph":   "Are there relationships between elements that form a network structure?",
}

// AlgorithmPatterns maps an algorithm family to a recognition hint.
var AlgorithmPatterns = map[string]string{
	"twoPointer":         "Could we use two pointers moving through the array to find relationships between elements?",
	"slidingWindow":      "Can we maintain a window of elements and slide it through the data to find patterns?",
	"binarySearch":       "If the data is sorted (or can be sorted), could we eliminate half the possibilities in each step?",
	"dfs":                "Would exploring paths as deeply as possible before backtracking help solve this problem?",
	"bfs":                "Should we explore all possibilities at one level before moving deeper?",
	"dynamicProgramming": "Are there overlapping subproblems where we calculate the same thing multiple times?",
	"greedy":             "Can we make locally optimal choices at each step to reach a global optimum?",
	"divideConquer":      "Can we break this into smaller subproblems, solve them independently, and combine the results?",
}

// PseudocodeTemplates holds skeletons for common solution shapes.
var PseudocodeTemplates = map[string]string{
	"iterative": "```pseudocode\n" +
		"function solve(input):\n" +
		"    initialize data structures\n" +
		"    for each element in input:\n" +
		"        process element\n" +
		"        update state\n" +
		"    return result\n" +
		"```",
	"recursive": "```pseudocode\n" +
		"function solve(input):\n" +
		"    // Base case\n" +
		"    if input meets end condition:\n" +
		"        return base value\n" +
		"\n" +
		"    // Recursive case\n" +
		"    return operation_with(solve(modified_input))\n" +
		"```",
	"binarySearch": "```pseudocode\n" +
		"function binarySearch(array, target):\n" +
		"    left = 0\n" +
		"    right = array.length - 1\n" +
		"\n" +
		"    while left <= right:\n" +
		"        mid = left + (right - left) / 2\n" +
		"\n" +
		"        if array[mid] == target:\n" +
		"            return mid\n" +
		"        else if array[mid] < target:\n" +
		"            left = mid + 1\n" +
		"        else:\n" +
		"            right = mid - 1\n" +
		"\n" +
		"    return -1  // Not found\n" +
		"```",
	"dynamicProgramming": "```pseudocode\n" +
		"function solveDp(input):\n" +
		"    initialize dp array/table\n" +
		"\n" +
		"    // Base cases\n" +
		"    dp[0] = base_value\n" +
		"\n" +
		"    // Fill dp table\n" +
		"    for i from 1 to n:\n" +
		"        dp[i] = calculation based on previous dp values\n" +
		"\n" +
		"    return dp[n]\n" +
		"```",
}

// ComplexityExplanations describes the common complexity classes.
var ComplexityExplanations = map[string]string{
	"constant":     "O(1) - The algorithm takes the same amount of time regardless of input size.",
	"linear":       "O(n) - The time grows linearly with input size, often from a single pass through the data.",
	"logarithmic":  "O(log n) - The algorithm reduces the problem size by a constant factor at each step, like binary search.",
	"linearithmic": "O(n log n) - Common in efficient sorting algorithms like merge sort and heap sort.",
	"quadratic":    "O(n²) - Often seen with nested loops iterating through the input.",
	"exponential":  "O(2ⁿ) - The algorithm's time doubles with each additional element, often in recursive solutions without memoization.",
}

// Fallbacks for unknown keys.
const (
	defaultDataStructureHint = "Consider which data structure would be most efficient for the operations you need."
	defaultAlgorithmHint     = "Think about which algorithmic pattern might be most appropriate for this problem."
	defaultComplexity        = "Consider the time and space requirements as the input size grows."
)

// DataStructureHint returns the hint for key, or a generic one.
func DataStructureHint(key string) string {
	if h, ok := DataStructureHints[key]; ok {
		return h
	}
	return defaultDataStructureHint
}

// AlgorithmHint returns the hint for key, or a generic one.
func AlgorithmHint(key string) string {
	if h, ok := AlgorithmPatterns[key]; ok {
		return h
	}
	return defaultAlgorithmHint
}

// PseudocodeTemplate returns the template for key, falling back to the
// iterative skeleton.
func PseudocodeTemplate(key string) string {
	if t, ok := PseudocodeTemplates[key]; ok {
		return t
	}
	return PseudocodeTemplates["iterative"]
}

// ComplexityExplanation returns the explanation for key, or a generic one.
func ComplexityExplanation(key string) string {
	if e, ok := ComplexityExplanations[key]; ok {
		return e
	}
	return defaultComplexity
}
